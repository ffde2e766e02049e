package models

import "encoding/json"

// NormalizeRequest carries raw model output (or a bare extracted JSON object)
// for normalization without an extraction call
type NormalizeRequest struct {
	RawText   string          `json:"raw_text"`
	Extracted json.RawMessage `json:"extracted,omitempty"`
}

// CreateFormSessionRequest opens a new profile form session
type CreateFormSessionRequest struct {
	CandidateID string              `json:"candidate_id" validate:"omitempty,candidate_id"`
	Profile     *UnifiedProfileData `json:"profile,omitempty" validate:"-"`
}

// FormStepRequest updates one named slice of a form session
type FormStepRequest struct {
	ExpectedVersion int             `json:"expected_version" validate:"gte=0"`
	Data            json.RawMessage `json:"data" validate:"required"`
}

// SubmitFormRequest hands a form session to the profile-creation endpoint
type SubmitFormRequest struct {
	ExpectedVersion int `json:"expected_version" validate:"gte=0"`
}
