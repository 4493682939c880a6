package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestTextExtractsDOCXParagraphs(t *testing.T) {
	payload := buildDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Sujet : la hiérarchie des normes</w:t></w:r></w:p>
    <w:p><w:r><w:t>Introduction du devoir.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := Text(payload, MimeDOCX)
	require.NoError(t, err)
	require.Contains(t, text, "Sujet : la hiérarchie des normes")
	require.Contains(t, text, "Introduction du devoir.")
}

func TestTextResolvesZipMimeToDOCX(t *testing.T) {
	payload := buildDOCX(t, `<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>contenu</w:t></w:r></w:p></w:body></w:document>`)

	text, err := Text(payload, "application/zip")
	require.NoError(t, err)
	require.Equal(t, "contenu", text)
}

func TestTextRejectsUnsupportedMime(t *testing.T) {
	_, err := Text([]byte("plain"), "image/png")
	require.ErrorIs(t, err, ErrUnsupportedDocument)
}

func TestTextRejectsDOCXWithoutDocumentXML(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)
	entry, err := writer.Create("other.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	_, err = Text(buf.Bytes(), MimeDOCX)
	require.Error(t, err)
}
