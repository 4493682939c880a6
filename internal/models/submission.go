package models

import "time"

// Submission represents one assignment handed in for correction.
type Submission struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ExerciseKind string    `gorm:"size:32;not null" json:"exercise_kind"`
	Subject      string    `gorm:"type:text;not null" json:"subject"`
	Body         string    `gorm:"type:text" json:"body"`
	DocumentURL  string    `gorm:"size:512" json:"document_url"`
	UserID       *string   `gorm:"size:36" json:"user_id"`
	Status       string    `gorm:"size:32;not null" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	// ExerciseKindDissertation is a structured legal essay.
	ExerciseKindDissertation = "dissertation"
	// ExerciseKindCommentary is a case-law commentary.
	ExerciseKindCommentary = "commentary"
	// ExerciseKindCaseStudy is a practical case study.
	ExerciseKindCaseStudy = "case-study"
)

// SubmissionStatusReceived indicates the submission has been persisted and dispatched.
const SubmissionStatusReceived = "received"

// HasText reports whether the submission carries correctable content.
func (s Submission) HasText() bool {
	return s.Body != ""
}
