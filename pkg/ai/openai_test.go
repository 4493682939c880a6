package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCorrectionResponseClampsScoreAndTags(t *testing.T) {
	content := `{
		"normalized_body": "La dissertation porte sur la séparation des pouvoirs.",
		"global_comment": "Bonne structure, introduction à étoffer.",
		"inline_notes": [
			{"tag": "purple", "quote": "séparation des pouvoirs", "comment": "Définir la notion."},
			{"tag": "green", "quote": "", "comment": "Plan apparent."}
		],
		"score": {"overall": 27.5, "out_of": 20}
	}`

	result, err := parseCorrectionResponse(content)
	require.NoError(t, err)
	require.Equal(t, 20.0, result.Score.Overall)
	require.Equal(t, 20.0, result.Score.OutOf)
	require.Len(t, result.InlineNotes, 2)
	require.Equal(t, "blue", result.InlineNotes[0].Tag)
	require.Equal(t, "green", result.InlineNotes[1].Tag)
}

func TestParseCorrectionResponseRejectsMissingBody(t *testing.T) {
	_, err := parseCorrectionResponse(`{"global_comment": "vide"}`)
	require.Error(t, err)
}

func TestParseCorrectionResponseCapsInlineNotes(t *testing.T) {
	content := `{
		"normalized_body": "texte",
		"inline_notes": [
			{"tag": "red", "quote": "a", "comment": "1"},
			{"tag": "red", "quote": "b", "comment": "2"},
			{"tag": "red", "quote": "c", "comment": "3"},
			{"tag": "red", "quote": "d", "comment": "4"},
			{"tag": "red", "quote": "e", "comment": "5"},
			{"tag": "red", "quote": "f", "comment": "6"},
			{"tag": "red", "quote": "g", "comment": "7"}
		],
		"score": {"overall": 12, "out_of": 20}
	}`

	result, err := parseCorrectionResponse(content)
	require.NoError(t, err)
	require.Len(t, result.InlineNotes, maxInlineNotes)
}

func TestDocumentCarriesAliasKeysAndErrorMarker(t *testing.T) {
	result := CorrectionResult{
		NormalizedBody: "corps",
		GlobalComment:  "commentaire",
		Score:          Score{Overall: 0, OutOf: 20},
		Error:          ErrorNoTextFound,
		Degraded:       true,
	}

	doc := result.Document()
	require.Equal(t, "corps", doc["normalized_body"])
	require.Equal(t, "corps", doc["body"])
	require.Equal(t, "commentaire", doc["global_comment"])
	require.Equal(t, "commentaire", doc["comment"])
	require.Equal(t, ErrorNoTextFound, doc["error"])
	require.Equal(t, true, doc["degraded"])
	require.NotNil(t, doc["inline_notes"])
}
