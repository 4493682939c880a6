package dto

// CheckoutCreateRequest selects the plan used to unlock a correction.
type CheckoutCreateRequest struct {
	SubmissionID string `json:"submission_id" validate:"required,uuid4"`
	Plan         string `json:"plan" validate:"required,oneof=standard premium"`
}

// CheckoutResponse carries the redirect URL to the hosted checkout page.
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// UnlockStatusResponse reports whether the full correction is viewable.
type UnlockStatusResponse struct {
	SubmissionID string `json:"submission_id"`
	Unlocked     bool   `json:"unlocked"`
}
