// Package form keeps the state of the multi-step profile form. A Session is an
// explicit, versioned value; every step is a reducer over one named slice of
// the profile and every change produces a new version.
package form

import (
	"errors"
	"fmt"
	"time"

	"jobportal-cv/pkg/models"
)

// Form state errors
var (
	ErrSessionNotFound  = errors.New("form session not found")
	ErrVersionConflict  = errors.New("form session was modified by another request")
	ErrUnknownStep      = errors.New("unknown form step")
	ErrInvalidPayload   = errors.New("invalid step payload")
	ErrAlreadySubmitted = errors.New("form session was already submitted")
	ErrSubmitInProgress = errors.New("form session is being submitted")
	ErrProfileInvalid   = errors.New("profile has validation errors")
)

// Status of a session
type Status string

const (
	StatusDraft      Status = "draft"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)

// Step names a slice of the profile edited by one form page
type Step string

const (
	StepBasicInfo       Step = "basic_info"
	StepWorkExperience  Step = "work_experience"
	StepEducation       Step = "education"
	StepCertificates    Step = "certificates"
	StepProjects        Step = "projects"
	StepAwards          Step = "awards"
	StepVolunteering    Step = "volunteering"
	StepSkills          Step = "skills"
	StepAccomplishments Step = "accomplishments"
)

// Steps lists every step in form order
var Steps = []Step{
	StepBasicInfo,
	StepWorkExperience,
	StepEducation,
	StepCertificates,
	StepProjects,
	StepAwards,
	StepVolunteering,
	StepSkills,
	StepAccomplishments,
}

// ParseStep converts a path segment into a Step
func ParseStep(s string) (Step, error) {
	for _, step := range Steps {
		if string(step) == s {
			return step, nil
		}
	}
	return "", ErrUnknownStep
}

// ExtractionInfo records the CV extraction that last populated the session
type ExtractionInfo struct {
	FileName      string    `json:"file_name"`
	Provider      string    `json:"provider"`
	PromptVersion string    `json:"prompt_version"`
	Warnings      []string  `json:"warnings"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// Session is the shared state of one candidate's form
type Session struct {
	ID             string                     `json:"id"`
	Version        int                        `json:"version"`
	Status         Status                     `json:"status"`
	CandidateID    string                     `json:"candidate_id,omitempty"`
	Profile        *models.UnifiedProfileData `json:"profile"`
	Validation     models.ValidationResult    `json:"validation"`
	CompletedSteps []Step                     `json:"completed_steps"`
	Extraction     *ExtractionInfo            `json:"extraction,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	ExpiresAt      time.Time                  `json:"expires_at"`
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Profile = s.Profile.Clone()
	if s.Validation.Errors != nil {
		c.Validation.Errors = append([]string{}, s.Validation.Errors...)
	}
	if s.CompletedSteps != nil {
		c.CompletedSteps = append([]Step{}, s.CompletedSteps...)
	}
	if s.Extraction != nil {
		e := *s.Extraction
		if s.Extraction.Warnings != nil {
			e.Warnings = append([]string{}, s.Extraction.Warnings...)
		}
		c.Extraction = &e
	}
	return &c
}

// Expired reports whether the session outlived its TTL
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Editable returns nil while the session is a draft
func (s *Session) Editable() error {
	switch s.Status {
	case StatusSubmitted:
		return ErrAlreadySubmitted
	case StatusSubmitting:
		return ErrSubmitInProgress
	default:
		return nil
	}
}

// claimable reports whether a submit at expectedVersion may proceed
func (s *Session) claimable(expectedVersion int) error {
	if err := s.Editable(); err != nil {
		return err
	}
	if s.Version != expectedVersion {
		return fmt.Errorf("%w: expected version %d, current version is %d", ErrVersionConflict, expectedVersion, s.Version)
	}
	return nil
}

func (s *Session) markCompleted(step Step) {
	for _, done := range s.CompletedSteps {
		if done == step {
			return
		}
	}
	s.CompletedSteps = append(s.CompletedSteps, step)
}
