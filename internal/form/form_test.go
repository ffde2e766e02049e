package form

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-cv/internal/config"
	"jobportal-cv/internal/cv/validate"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	profiles []*models.UnifiedProfileData
	err      error
}

func (r *recordingSubmitter) SubmitProfile(_ context.Context, _ string, p *models.UnifiedProfileData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.profiles = append(r.profiles, p)
	return nil
}

func newService(submitter Submitter) *Service {
	return NewService(NewMemoryStore(), validate.New(), submitter, time.Hour)
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func extractedProfile() *models.UnifiedProfileData {
	p := models.NewUnifiedProfileData()
	p.FirstName = "Ana"
	p.LastName = "Li"
	p.WorkExperience = []models.WorkExperienceData{{Title: "Engineer", Company: "Acme", StartDate: "2020-01-01"}}
	p.CandidateSkills = []models.CandidateSkillData{{SkillName: "Go", SkillSource: models.SkillSourceCVExtraction, Proficiency: 50}}
	p.DeriveSkills()
	return p
}

func TestParseStep(t *testing.T) {
	step, err := ParseStep("work_experience")
	require.NoError(t, err)
	assert.Equal(t, StepWorkExperience, step)

	_, err = ParseStep("hobbies")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := &Session{ID: "frm_1", Version: 3, Status: StatusDraft, Profile: extractedProfile(), CompletedSteps: []Step{}}
	before := s.Clone()

	next, err := Apply(s, StepBasicInfo, raw(`{"first_name":"Joana","last_name":"Silva"}`), validate.New(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, before, s)
	assert.Equal(t, 4, next.Version)
	assert.Equal(t, "Joana", next.Profile.FirstName)
	assert.Equal(t, []Step{StepBasicInfo}, next.CompletedSteps)
	assert.Len(t, next.Profile.WorkExperience, 1, "other slices untouched")
}

func TestReducers(t *testing.T) {
	v := validate.New()
	base := func() *Session {
		return &Session{Version: 1, Status: StatusDraft, Profile: extractedProfile(), CompletedSteps: []Step{}}
	}

	t.Run("work experience clears end date of current roles", func(t *testing.T) {
		next, err := Apply(base(), StepWorkExperience, raw(`[{"title":"Lead","company":"Globex","start_date":"2021-01-01","end_date":"2022-01-01","is_current":true}]`), v, time.Now())
		require.NoError(t, err)
		assert.Empty(t, next.Profile.WorkExperience[0].EndDate)
		assert.True(t, next.Validation.IsValid)
	})

	t.Run("work experience shrink unlinks accomplishments", func(t *testing.T) {
		s := base()
		idx := 0
		s.Profile.Accomplishments = []models.AccomplishmentData{{Title: "t", Description: "d", WorkExperienceIndex: &idx}}
		next, err := Apply(s, StepWorkExperience, raw(`[]`), v, time.Now())
		require.NoError(t, err)
		assert.Nil(t, next.Profile.Accomplishments[0].WorkExperienceIndex)
	})

	t.Run("skills default proficiency and source", func(t *testing.T) {
		next, err := Apply(base(), StepSkills, raw(`[{"skill_name":"Rust"},{"skill_name":"SQL","proficiency":90,"skill_source":"cv_extraction"},{"skill_name":"  "}]`), v, time.Now())
		require.NoError(t, err)
		assert.Equal(t, []models.CandidateSkillData{
			{SkillName: "Rust", SkillSource: SkillSourceManual, Proficiency: 50},
			{SkillName: "SQL", SkillSource: models.SkillSourceCVExtraction, Proficiency: 90},
		}, next.Profile.CandidateSkills)
		assert.Equal(t, []string{"Rust", "SQL"}, next.Profile.Skills)
	})

	t.Run("skills proficiency out of range", func(t *testing.T) {
		_, err := Apply(base(), StepSkills, raw(`[{"skill_name":"Rust","proficiency":101}]`), v, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("accomplishment linked to existing work experience", func(t *testing.T) {
		next, err := Apply(base(), StepAccomplishments, raw(`[{"title":"Scaled API","description":"10x traffic","work_experience_index":0}]`), v, time.Now())
		require.NoError(t, err)
		require.NotNil(t, next.Profile.Accomplishments[0].WorkExperienceIndex)
		assert.Equal(t, 0, *next.Profile.Accomplishments[0].WorkExperienceIndex)
	})

	t.Run("accomplishment linked to missing work experience", func(t *testing.T) {
		_, err := Apply(base(), StepAccomplishments, raw(`[{"title":"Scaled API","description":"10x traffic","work_experience_index":5}]`), v, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("certificates need name and authority", func(t *testing.T) {
		_, err := Apply(base(), StepCertificates, raw(`[{"name":"CKA"}]`), v, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("volunteering revalidates", func(t *testing.T) {
		next, err := Apply(base(), StepVolunteering, raw(`[{"role":"Mentor"}]`), v, time.Now())
		require.NoError(t, err)
		assert.False(t, next.Validation.IsValid)
		assert.Equal(t, []string{"Volunteering #1: institution is required"}, next.Validation.Errors)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		_, err := Apply(base(), StepEducation, raw(`[{"school":"MIT"}]`), v, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		_, err := Apply(base(), StepProjects, nil, v, time.Now())
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("null list payload keeps lists non-nil", func(t *testing.T) {
		next, err := Apply(base(), StepAwards, raw(`null`), v, time.Now())
		require.NoError(t, err)
		assert.NotNil(t, next.Profile.Awards)
	})

	t.Run("unknown step", func(t *testing.T) {
		_, err := Apply(base(), Step("hobbies"), raw(`[]`), v, time.Now())
		assert.ErrorIs(t, err, ErrUnknownStep)
	})
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	submitter := &recordingSubmitter{}
	svc := newService(submitter)

	session, err := svc.Create(ctx, "cand_1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Version)
	assert.False(t, session.Validation.IsValid)

	session, err = svc.ApplyExtraction(ctx, session.ID, extractedProfile(), ExtractionInfo{FileName: "cv.pdf", Provider: "claude"})
	require.NoError(t, err)
	assert.Equal(t, 2, session.Version)
	assert.True(t, session.Validation.IsValid)
	assert.Equal(t, "cv.pdf", session.Extraction.FileName)
	assert.NotNil(t, session.Extraction.Warnings)

	_, err = svc.UpdateStep(ctx, session.ID, StepBasicInfo, 1, raw(`{"first_name":"X","last_name":"Y"}`))
	assert.ErrorIs(t, err, ErrVersionConflict)

	session, err = svc.UpdateStep(ctx, session.ID, StepBasicInfo, 2, raw(`{"first_name":"Ana","last_name":"Li","email":"ana@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, session.Version)

	stored, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", stored.Profile.Email)

	submitted, err := svc.Submit(ctx, session.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, submitted.Status)
	require.Len(t, submitter.profiles, 1)
	assert.Equal(t, "Ana", submitter.profiles[0].FirstName)

	_, err = svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceSubmitInvalidProfile(t *testing.T) {
	ctx := context.Background()
	submitter := &recordingSubmitter{}
	svc := newService(submitter)

	session, err := svc.Create(ctx, "", nil)
	require.NoError(t, err)

	result, err := svc.Submit(ctx, session.ID, 1)
	assert.ErrorIs(t, err, ErrProfileInvalid)
	assert.Equal(t, []string{"First name is required", "Last name is required"}, result.Validation.Errors)
	assert.Empty(t, submitter.profiles)

	_, err = svc.Get(ctx, session.ID)
	assert.NoError(t, err, "session survives a rejected submit")
}

func TestServiceSubmitFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(&recordingSubmitter{err: errors.New("profile service down")})

	session, err := svc.Create(ctx, "cand_1", extractedProfile())
	require.NoError(t, err)

	_, err = svc.Submit(ctx, session.ID, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile service down")

	stored, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, 1, stored.Version, "a failed hand-off can be retried at the same version")
}

// slowSubmitter holds every call open until release is closed
type slowSubmitter struct {
	recordingSubmitter
	entered chan struct{}
	release chan struct{}
}

func (s *slowSubmitter) SubmitProfile(ctx context.Context, candidateID string, p *models.UnifiedProfileData) error {
	s.entered <- struct{}{}
	<-s.release
	return s.recordingSubmitter.SubmitProfile(ctx, candidateID, p)
}

func TestServiceConcurrentSubmitsPostOnce(t *testing.T) {
	ctx := context.Background()
	submitter := &slowSubmitter{entered: make(chan struct{}, 4), release: make(chan struct{})}
	svc := newService(submitter)

	session, err := svc.Create(ctx, "cand_1", extractedProfile())
	require.NoError(t, err)

	const callers = 4
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, session.ID, 1)
			errs <- err
		}()
	}

	<-submitter.entered
	inFlight, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitting, inFlight.Status)

	_, err = svc.UpdateStep(ctx, session.ID, StepSkills, inFlight.Version, raw(`[{"skill_name":"Rust"}]`))
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(submitter.release)
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrSubmitInProgress) || errors.Is(err, ErrSessionNotFound), err.Error())
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, submitter.profiles, 1)
}

func TestServiceExtractionKeepsArchivedDocuments(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)

	seed := extractedProfile()
	seed.CVDocuments = []models.CVDocument{{FileName: "old.pdf", FileURL: "https://cdn/old.pdf"}}
	session, err := svc.Create(ctx, "cand_1", seed)
	require.NoError(t, err)

	fresh := extractedProfile()
	fresh.FirstName = "Joana"
	fresh.CVDocuments = []models.CVDocument{{FileName: "new.pdf", FileURL: "https://cdn/new.pdf"}}

	session, err = svc.ApplyExtraction(ctx, session.ID, fresh, ExtractionInfo{FileName: "new.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Joana", session.Profile.FirstName)
	require.Len(t, session.Profile.CVDocuments, 2)
	assert.Equal(t, "old.pdf", session.Profile.CVDocuments[0].FileName)
	assert.Equal(t, "new.pdf", session.Profile.CVDocuments[1].FileName)
	assert.Empty(t, session.CompletedSteps)
}

func TestServiceConcurrentStepUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newService(nil)
	session, err := svc.Create(ctx, "", extractedProfile())
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStep(ctx, session.ID, StepProjects, 1, raw(`[{"title":"p","description":"d","technologies":[]}]`))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "only one writer can win a given version")
	final, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, final.Version)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, &Session{ID: "a", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.Create(ctx, &Session{ID: "b", ExpiresAt: now.Add(time.Hour)}))
	assert.Error(t, store.Create(ctx, &Session{ID: "a"}))

	now = now.Add(10 * time.Minute)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, store.Sweep())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, store.Sweep())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	cfg := config.Default()
	cfg.Redis.URL = url
	client := utils.NewRedisClient(cfg)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	svc := NewService(NewRedisStore(client, time.Minute), validate.New(), nil, time.Minute)
	session, err := svc.Create(ctx, "cand_redis", extractedProfile())
	require.NoError(t, err)
	defer svc.Delete(ctx, session.ID)

	next, err := svc.UpdateStep(ctx, session.ID, StepBasicInfo, 1, raw(`{"first_name":"Ana","last_name":"Li"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Version)

	_, err = svc.UpdateStep(ctx, session.ID, StepBasicInfo, 1, raw(`{"first_name":"Ana","last_name":"Li"}`))
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = svc.Get(ctx, "frm_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
