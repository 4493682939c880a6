package dto

import (
	"encoding/json"
	"time"

	"github.com/juriscorrect/juriscorrect-api/internal/models"
)

// CorrectionStatusNone is reported when no correction row exists yet, so a
// poller can distinguish "not started" from "running".
const CorrectionStatusNone = "none"

// GenerateResponse acknowledges a generate call.
type GenerateResponse struct {
	CorrectionID string `json:"correction_id"`
	Status       string `json:"status"`
}

// CorrectionStatusResponse is the poll payload for a submission.
type CorrectionStatusResponse struct {
	Status       string          `json:"status"`
	CorrectionID string          `json:"correction_id,omitempty"`
	Degraded     bool            `json:"degraded,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// NewGenerateResponse converts a Correction model into a generate DTO.
func NewGenerateResponse(model models.Correction) GenerateResponse {
	return GenerateResponse{
		CorrectionID: model.ID,
		Status:       model.Status,
	}
}

// NewCorrectionStatusResponse converts a Correction model into a poll DTO.
// The result payload is only exposed once the correction is ready.
func NewCorrectionStatusResponse(model models.Correction) CorrectionStatusResponse {
	response := CorrectionStatusResponse{
		Status:       model.Status,
		CorrectionID: model.ID,
	}

	if model.Status == models.CorrectionStatusReady {
		response.Degraded = model.Degraded
		response.Result = json.RawMessage(model.Result)
		updatedAt := model.UpdatedAt
		response.UpdatedAt = &updatedAt
	}

	return response
}
