package models

import "time"

// ValidationResult is the accumulated outcome of profile validation.
// Errors is never nil.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// CVExtractionResponse is returned by the synchronous extraction endpoint
type CVExtractionResponse struct {
	Status          string              `json:"status"`
	Profile         *UnifiedProfileData `json:"profile"`
	Validation      ValidationResult    `json:"validation"`
	Warnings        []string            `json:"warnings"`
	SkillCategories map[string][]string `json:"skill_categories,omitempty"`
	PromptVersion   string              `json:"prompt_version"`
	Provider        string              `json:"provider"`
	ProcessingTime  time.Duration       `json:"processing_time"`
	RequestID       string              `json:"request_id"`
}

// CVFailureResponse is returned when a terminal pipeline stage fails
type CVFailureResponse struct {
	Status    string    `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ProfileValidationResponse is returned by the standalone validation endpoint
type ProfileValidationResponse struct {
	Validation ValidationResult `json:"validation"`
	RequestID  string           `json:"request_id"`
}

// ProfileNormalizationResponse is returned by the normalization endpoint
type ProfileNormalizationResponse struct {
	Profile    *UnifiedProfileData `json:"profile"`
	Validation ValidationResult    `json:"validation"`
	Warnings   []string            `json:"warnings"`
	RequestID  string              `json:"request_id"`
}
