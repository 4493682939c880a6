package ai

import "context"

// CorrectionInput carries the submission artefacts sent to the producer.
type CorrectionInput struct {
	ExerciseKind string
	Subject      string
	SourceText   string
}

// InlineNote is one annotated span anchored to the normalized body.
type InlineNote struct {
	Tag     string `json:"tag"`
	Quote   string `json:"quote"`
	Comment string `json:"comment"`
}

// Score grades the submission on a French /20 scale.
type Score struct {
	Overall float64 `json:"overall"`
	OutOf   float64 `json:"out_of"`
}

// CorrectionResult is the structured correction returned by the producer.
type CorrectionResult struct {
	NormalizedBody string                 `json:"normalized_body"`
	GlobalComment  string                 `json:"global_comment"`
	InlineNotes    []InlineNote           `json:"inline_notes"`
	Score          Score                  `json:"score"`
	Error          string                 `json:"error,omitempty"`
	Degraded       bool                   `json:"degraded"`
	Raw            map[string]interface{} `json:"raw,omitempty"`
}

// ErrorNoTextFound marks a placeholder result produced without any source text.
const ErrorNoTextFound = "no_text_found"

// Corrector describes an AI model capable of correcting a legal assignment.
type Corrector interface {
	Correct(ctx context.Context, input CorrectionInput) (CorrectionResult, error)
}

// Document flattens the result into the persisted JSON shape. The body and
// comment are written under both their primary and alias keys so readers with
// either expectation can consume the same row.
func (r CorrectionResult) Document() map[string]interface{} {
	notes := r.InlineNotes
	if notes == nil {
		notes = []InlineNote{}
	}

	doc := map[string]interface{}{
		"normalized_body": r.NormalizedBody,
		"body":            r.NormalizedBody,
		"global_comment":  r.GlobalComment,
		"comment":         r.GlobalComment,
		"inline_notes":    notes,
		"score": map[string]float64{
			"overall": r.Score.Overall,
			"out_of":  r.Score.OutOf,
		},
		"degraded": r.Degraded,
	}

	if r.Error != "" {
		doc["error"] = r.Error
	}

	return doc
}
