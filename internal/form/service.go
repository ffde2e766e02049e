package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

// Submitter hands a finished profile to the persistence service
type Submitter interface {
	SubmitProfile(ctx context.Context, candidateID string, profile *models.UnifiedProfileData) error
}

// Service coordinates sessions, reducers and submission
type Service struct {
	store     Store
	validator Validator
	submitter Submitter
	ttl       time.Duration
	now       func() time.Time
	logger    logging.Logger
}

// NewService creates a form service. submitter may be nil, in which case a
// submitted profile is only logged.
func NewService(store Store, validator Validator, submitter Submitter, ttl time.Duration) *Service {
	return &Service{
		store:     store,
		validator: validator,
		submitter: submitter,
		ttl:       ttl,
		now:       time.Now,
		logger:    logging.GetGlobalLogger(),
	}
}

// Create starts a session, optionally seeded with a profile
func (s *Service) Create(ctx context.Context, candidateID string, profile *models.UnifiedProfileData) (*Session, error) {
	now := s.now()

	if profile == nil {
		profile = models.NewUnifiedProfileData()
	} else {
		profile = profile.Clone()
		profile.EnsureLists()
	}

	session := &Session{
		ID:             utils.GenerateFormSessionID(),
		Version:        1,
		Status:         StatusDraft,
		CandidateID:    candidateID,
		Profile:        profile,
		Validation:     s.validator.Validate(profile),
		CompletedSteps: []Step{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if s.ttl > 0 {
		session.ExpiresAt = now.Add(s.ttl)
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create form session: %w", err)
	}

	s.logger.Info("Form session created", map[string]interface{}{
		"session_id":   session.ID,
		"candidate_id": candidateID,
	})
	return session, nil
}

// Get returns a session
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// UpdateStep applies one step if the caller saw the current version
func (s *Service) UpdateStep(ctx context.Context, id string, step Step, expectedVersion int, payload json.RawMessage) (*Session, error) {
	return s.store.Update(ctx, id, func(current *Session) (*Session, error) {
		if current.Version != expectedVersion {
			return nil, fmt.Errorf("%w: expected version %d, current version is %d", ErrVersionConflict, expectedVersion, current.Version)
		}
		return Apply(current, step, payload, s.validator, s.now())
	})
}

// ApplyExtraction supersedes the session's profile with an extracted one. It
// is only called after a successful extraction, so a failed upload never
// touches the session.
func (s *Service) ApplyExtraction(ctx context.Context, id string, extracted *models.UnifiedProfileData, info ExtractionInfo) (*Session, error) {
	next, err := s.store.Update(ctx, id, func(current *Session) (*Session, error) {
		return ApplyExtraction(current, extracted, info, s.validator, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Form session populated from CV", map[string]interface{}{
		"session_id": id,
		"version":    next.Version,
		"file_name":  info.FileName,
		"is_valid":   next.Validation.IsValid,
	})
	return next, nil
}

// Submit hands a valid profile to the submitter and ends the session. The
// session is claimed inside a store update before the submitter runs, so only
// one caller per version reaches it; a failed hand-off restores the draft.
func (s *Service) Submit(ctx context.Context, id string, expectedVersion int) (*Session, error) {
	var rejected *Session
	claimed, err := s.store.Update(ctx, id, func(current *Session) (*Session, error) {
		if err := current.claimable(expectedVersion); err != nil {
			return nil, err
		}

		validation := s.validator.Validate(current.Profile)
		if !validation.IsValid {
			rejected = current.Clone()
			rejected.Validation = validation
			return nil, ErrProfileInvalid
		}

		next := current.Clone()
		next.Status = StatusSubmitting
		next.Validation = validation
		next.Version++
		next.UpdatedAt = s.now()
		return next, nil
	})
	if errors.Is(err, ErrProfileInvalid) {
		return rejected, err
	}
	if err != nil {
		return nil, err
	}

	if s.submitter != nil {
		if err := s.submitter.SubmitProfile(ctx, claimed.CandidateID, claimed.Profile); err != nil {
			s.release(ctx, id, claimed.Version, expectedVersion)
			return nil, fmt.Errorf("failed to submit profile: %w", err)
		}
	} else {
		s.logger.Warn("No profile submitter configured, profile was not persisted", map[string]interface{}{
			"session_id": id,
		})
	}

	claimed.Status = StatusSubmitted
	claimed.UpdatedAt = s.now()

	if err := s.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.logger.Error("Failed to delete submitted form session", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}

	s.logger.Info("Form session submitted", map[string]interface{}{
		"session_id":   id,
		"candidate_id": claimed.CandidateID,
	})
	return claimed, nil
}

// release returns a claimed session to draft at the version the caller
// submitted, so the same submit can be retried
func (s *Service) release(ctx context.Context, id string, claimedVersion, draftVersion int) {
	_, err := s.store.Update(context.WithoutCancel(ctx), id, func(current *Session) (*Session, error) {
		if current.Status != StatusSubmitting || current.Version != claimedVersion {
			return nil, ErrVersionConflict
		}
		next := current.Clone()
		next.Status = StatusDraft
		next.Version = draftVersion
		next.UpdatedAt = s.now()
		return next, nil
	})
	if err != nil {
		s.logger.Error("Failed to release form session after submit failure", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}
}

// Delete discards a session
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
