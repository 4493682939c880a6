package dto

import (
	"time"

	"github.com/juriscorrect/juriscorrect-api/internal/models"
)

// SubmissionCreateRequest describes the intake payload. Body may be empty when
// a document upload is provided instead; the minimum body length is enforced
// by the service so each entry point can keep its own threshold.
type SubmissionCreateRequest struct {
	ExerciseKind string `json:"exercise_kind" form:"exercise_kind" validate:"required,oneof=dissertation commentary case-study"`
	Subject      string `json:"subject" form:"subject" validate:"required,min=3"`
	Body         string `json:"body" form:"body"`
}

// SubmissionResponse is returned to API clients after intake.
type SubmissionResponse struct {
	ID           string    `json:"id"`
	ExerciseKind string    `json:"exercise_kind"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"`
	DocumentURL  string    `json:"document_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		ExerciseKind: model.ExerciseKind,
		Subject:      model.Subject,
		Status:       model.Status,
		DocumentURL:  model.DocumentURL,
		CreatedAt:    model.CreatedAt,
	}
}
