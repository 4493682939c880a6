package models

import (
	"time"

	"gorm.io/datatypes"
)

// Correction captures the outcome of an AI correction run for a submission.
//
// Active mirrors the status column: true while the row is running or ready,
// NULL once failed. The composite unique index on (submission_id, active)
// guarantees at most one in-flight or completed correction per submission even
// when generate is invoked concurrently; NULLs never collide, so failed rows
// do not block a retry.
type Correction struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	SubmissionID string         `gorm:"size:36;not null;uniqueIndex:idx_corrections_submission_active" json:"submission_id"`
	Status       string         `gorm:"size:32;not null" json:"status"`
	Result       datatypes.JSON `json:"result"`
	Degraded     bool           `gorm:"not null;default:false" json:"degraded"`
	UserID       *string        `gorm:"size:36" json:"user_id"`
	Active       *bool          `gorm:"uniqueIndex:idx_corrections_submission_active" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Submission   Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// CorrectionStatusRunning indicates the producer call is in flight.
	CorrectionStatusRunning = "running"
	// CorrectionStatusReady indicates the result payload is final.
	CorrectionStatusReady = "ready"
	// CorrectionStatusFailed indicates the row could not be finalized.
	CorrectionStatusFailed = "failed"
)

// IsTerminal reports whether the correction reached its final state.
func (c Correction) IsTerminal() bool {
	return c.Status == CorrectionStatusReady || c.Status == CorrectionStatusFailed
}
