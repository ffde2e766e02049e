package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jobportal-cv/pkg/models"
)

// SkillSourceManual marks skills typed in by the candidate
const SkillSourceManual = "manual"

// Validator checks a profile
type Validator interface {
	Validate(profile *models.UnifiedProfileData) models.ValidationResult
}

// Reducer writes one step's payload into its slice of the profile
type Reducer func(profile *models.UnifiedProfileData, payload json.RawMessage) error

// BasicInfo is the payload of the basic_info step
type BasicInfo struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Title             string `json:"title"`
	Bio               string `json:"bio"`
	About             string `json:"about"`
	Location          string `json:"location"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Website           string `json:"website"`
	LinkedInURL       string `json:"linkedin_url"`
	GitHubURL         string `json:"github_url"`
	PortfolioURL      string `json:"portfolio_url"`
	YearsOfExperience *int   `json:"years_of_experience"`
	ExperienceLevel   string `json:"experience_level"`
	CurrentPosition   string `json:"current_position"`
	Industry          string `json:"industry"`
}

type skillInput struct {
	SkillName   string `json:"skill_name"`
	SkillSource string `json:"skill_source"`
	Proficiency *int   `json:"proficiency"`
}

var reducers = map[Step]Reducer{
	StepBasicInfo:       reduceBasicInfo,
	StepWorkExperience:  reduceWorkExperience,
	StepEducation:       reduceEducation,
	StepCertificates:    reduceCertificates,
	StepProjects:        reduceProjects,
	StepAwards:          reduceAwards,
	StepVolunteering:    reduceVolunteering,
	StepSkills:          reduceSkills,
	StepAccomplishments: reduceAccomplishments,
}

// Apply returns a new session with payload written into step's slice. The
// input session is not modified.
func Apply(s *Session, step Step, payload json.RawMessage, v Validator, now time.Time) (*Session, error) {
	reduce, ok := reducers[step]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	if err := s.Editable(); err != nil {
		return nil, err
	}

	next := s.Clone()
	if next.Profile == nil {
		next.Profile = models.NewUnifiedProfileData()
	}

	if err := reduce(next.Profile, payload); err != nil {
		return nil, err
	}

	next.Profile.EnsureLists()
	next.markCompleted(step)
	next.Validation = v.Validate(next.Profile)
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

// ApplyExtraction returns a new session whose profile is superseded by an
// extracted one. Archived CV documents are carried over.
func ApplyExtraction(s *Session, extracted *models.UnifiedProfileData, info ExtractionInfo, v Validator, now time.Time) (*Session, error) {
	if err := s.Editable(); err != nil {
		return nil, err
	}

	next := s.Clone()
	profile := extracted.Clone()
	profile.EnsureLists()

	if s.Profile != nil {
		profile.CVDocuments = append(append([]models.CVDocument{}, s.Profile.CVDocuments...), profile.CVDocuments...)
	}

	next.Profile = profile
	next.CompletedSteps = []Step{}
	next.Validation = v.Validate(profile)
	info.ExtractedAt = now
	if info.Warnings == nil {
		info.Warnings = []string{}
	}
	next.Extraction = &info
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

func decode(payload json.RawMessage, dest interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func reduceBasicInfo(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in BasicInfo
	if err := decode(payload, &in); err != nil {
		return err
	}
	if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
		return fmt.Errorf("%w: years_of_experience must not be negative", ErrInvalidPayload)
	}

	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.Title = in.Title
	p.Bio = in.Bio
	p.About = in.About
	p.Location = in.Location
	p.Email = strings.TrimSpace(in.Email)
	p.Phone = in.Phone
	p.Website = in.Website
	p.LinkedInURL = in.LinkedInURL
	p.GitHubURL = in.GitHubURL
	p.PortfolioURL = in.PortfolioURL
	p.YearsOfExperience = in.YearsOfExperience
	p.ExperienceLevel = in.ExperienceLevel
	p.CurrentPosition = in.CurrentPosition
	p.Industry = in.Industry
	return nil
}

func reduceWorkExperience(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.WorkExperienceData
	if err := decode(payload, &in); err != nil {
		return err
	}
	for i := range in {
		if in[i].IsCurrent {
			in[i].EndDate = ""
		}
	}
	p.WorkExperience = in

	// accomplishments must not point past the new list
	for i := range p.Accomplishments {
		if idx := p.Accomplishments[i].WorkExperienceIndex; idx != nil && *idx >= len(in) {
			p.Accomplishments[i].WorkExperienceIndex = nil
		}
	}
	return nil
}

func reduceEducation(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.EducationData
	if err := decode(payload, &in); err != nil {
		return err
	}
	p.Education = in
	return nil
}

func reduceCertificates(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.CertificateData
	if err := decode(payload, &in); err != nil {
		return err
	}
	for i, c := range in {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.IssuingAuthority) == "" {
			return fmt.Errorf("%w: certificate #%d needs name and issuing_authority", ErrInvalidPayload, i+1)
		}
	}
	p.Certificates = in
	return nil
}

func reduceProjects(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.ProjectData
	if err := decode(payload, &in); err != nil {
		return err
	}
	p.Projects = in
	return nil
}

func reduceAwards(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.AwardData
	if err := decode(payload, &in); err != nil {
		return err
	}
	p.Awards = in
	return nil
}

func reduceVolunteering(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.VolunteeringData
	if err := decode(payload, &in); err != nil {
		return err
	}
	for i := range in {
		if in[i].IsCurrent {
			in[i].EndDate = ""
		}
	}
	p.Volunteering = in
	return nil
}

func reduceSkills(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []skillInput
	if err := decode(payload, &in); err != nil {
		return err
	}

	skills := make([]models.CandidateSkillData, 0, len(in))
	for i, s := range in {
		name := strings.TrimSpace(s.SkillName)
		if name == "" {
			continue
		}
		skill := models.CandidateSkillData{
			SkillName:   name,
			SkillSource: s.SkillSource,
			Proficiency: models.DefaultSkillProficiency,
		}
		if skill.SkillSource == "" {
			skill.SkillSource = SkillSourceManual
		}
		if s.Proficiency != nil {
			if *s.Proficiency < 0 || *s.Proficiency > 100 {
				return fmt.Errorf("%w: skill #%d proficiency must be between 0 and 100", ErrInvalidPayload, i+1)
			}
			skill.Proficiency = *s.Proficiency
		}
		skills = append(skills, skill)
	}

	p.CandidateSkills = skills
	p.DeriveSkills()
	return nil
}

func reduceAccomplishments(p *models.UnifiedProfileData, payload json.RawMessage) error {
	var in []models.AccomplishmentData
	if err := decode(payload, &in); err != nil {
		return err
	}
	for i, a := range in {
		if idx := a.WorkExperienceIndex; idx != nil && (*idx < 0 || *idx >= len(p.WorkExperience)) {
			return fmt.Errorf("%w: accomplishment #%d links to unknown work experience %d", ErrInvalidPayload, i+1, *idx)
		}
	}
	p.Accomplishments = in
	return nil
}
