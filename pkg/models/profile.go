package models

import "time"

// SkillSourceCVExtraction marks candidate skills produced by CV extraction
const SkillSourceCVExtraction = "cv_extraction"

// DefaultSkillProficiency is used when the source gives no numeric signal
const DefaultSkillProficiency = 50

// UnifiedProfileData is the canonical candidate profile shared by every form step.
// List fields are always non-nil so they serialize as [] rather than null.
type UnifiedProfileData struct {
	FirstName string `json:"first_name" validate:"notblank"`
	LastName  string `json:"last_name" validate:"notblank"`

	Title             string `json:"title,omitempty"`
	Bio               string `json:"bio,omitempty"`
	About             string `json:"about,omitempty"`
	Location          string `json:"location,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Website           string `json:"website,omitempty"`
	LinkedInURL       string `json:"linkedin_url,omitempty"`
	GitHubURL         string `json:"github_url,omitempty"`
	PortfolioURL      string `json:"portfolio_url,omitempty"`
	YearsOfExperience *int   `json:"years_of_experience,omitempty"`
	ExperienceLevel   string `json:"experience_level,omitempty"`
	CurrentPosition   string `json:"current_position,omitempty"`
	Industry          string `json:"industry,omitempty"`

	WorkExperience  []WorkExperienceData `json:"work_experience" validate:"dive"`
	Education       []EducationData      `json:"education" validate:"dive"`
	Certificates    []CertificateData    `json:"certificates"`
	Projects        []ProjectData        `json:"projects"`
	Awards          []AwardData          `json:"awards"`
	Volunteering    []VolunteeringData   `json:"volunteering" validate:"dive"`
	CandidateSkills []CandidateSkillData `json:"candidate_skills"`
	Accomplishments []AccomplishmentData `json:"accomplishments" validate:"dive"`
	Skills          []string             `json:"skills"`
	CVDocuments     []CVDocument         `json:"cv_documents"`
}

// WorkExperienceData represents a single employment entry
type WorkExperienceData struct {
	Title          string `json:"title" validate:"notblank"`
	Company        string `json:"company" validate:"notblank"`
	Location       string `json:"location,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	StartDate      string `json:"start_date" validate:"notblank"`
	EndDate        string `json:"end_date,omitempty"`
	IsCurrent      bool   `json:"is_current"`
	Description    string `json:"description,omitempty"`
}

// EducationData represents a single education entry
type EducationData struct {
	DegreeDiploma    string `json:"degree_diploma" validate:"notblank"`
	UniversitySchool string `json:"university_school" validate:"notblank"`
	FieldOfStudy     string `json:"field_of_study,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	Grade            string `json:"grade,omitempty"`
	Description      string `json:"description,omitempty"`
}

// CertificateData represents a certificate or certification.
// Entries without name or issuing authority never reach the profile.
type CertificateData struct {
	Name             string `json:"name"`
	IssuingAuthority string `json:"issuing_authority"`
	IssueDate        string `json:"issue_date,omitempty"`
	ExpiryDate       string `json:"expiry_date,omitempty"`
	CredentialID     string `json:"credential_id,omitempty"`
	CredentialURL    string `json:"credential_url,omitempty"`
}

// ProjectData represents a personal or professional project
type ProjectData struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Role         string   `json:"role,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	ProjectURL   string   `json:"project_url,omitempty"`
	Technologies []string `json:"technologies"`
}

// AwardData represents an award or honor
type AwardData struct {
	Title       string `json:"title"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// VolunteeringData represents a volunteering entry. The institution field is
// named institution even when the source called it organization.
type VolunteeringData struct {
	Role        string `json:"role" validate:"notblank"`
	Institution string `json:"institution" validate:"notblank"`
	Cause       string `json:"cause,omitempty"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	IsCurrent   bool   `json:"is_current"`
	Description string `json:"description,omitempty"`
}

// CandidateSkillData represents a skill with a 0-100 proficiency
type CandidateSkillData struct {
	SkillName   string `json:"skill_name"`
	SkillSource string `json:"skill_source"`
	Proficiency int    `json:"proficiency"`
}

// AccomplishmentData represents a notable accomplishment. WorkExperienceIndex is
// only set interactively by the form layer.
type AccomplishmentData struct {
	Title               string `json:"title" validate:"notblank"`
	Description         string `json:"description" validate:"notblank"`
	Date                string `json:"date,omitempty"`
	WorkExperienceIndex *int   `json:"work_experience_index,omitempty"`
}

// CVDocument references an archived copy of an uploaded CV
type CVDocument struct {
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	MIMEType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewUnifiedProfileData returns a profile with every list field initialized
func NewUnifiedProfileData() *UnifiedProfileData {
	p := &UnifiedProfileData{}
	p.EnsureLists()
	return p
}

// EnsureLists replaces nil list fields with empty slices
func (p *UnifiedProfileData) EnsureLists() {
	if p.WorkExperience == nil {
		p.WorkExperience = []WorkExperienceData{}
	}
	if p.Education == nil {
		p.Education = []EducationData{}
	}
	if p.Certificates == nil {
		p.Certificates = []CertificateData{}
	}
	if p.Projects == nil {
		p.Projects = []ProjectData{}
	}
	for i := range p.Projects {
		if p.Projects[i].Technologies == nil {
			p.Projects[i].Technologies = []string{}
		}
	}
	if p.Awards == nil {
		p.Awards = []AwardData{}
	}
	if p.Volunteering == nil {
		p.Volunteering = []VolunteeringData{}
	}
	if p.CandidateSkills == nil {
		p.CandidateSkills = []CandidateSkillData{}
	}
	if p.Accomplishments == nil {
		p.Accomplishments = []AccomplishmentData{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.CVDocuments == nil {
		p.CVDocuments = []CVDocument{}
	}
}

// DeriveSkills rebuilds the flat skills list from candidate skills, in order and without de-duplication
func (p *UnifiedProfileData) DeriveSkills() {
	skills := make([]string, 0, len(p.CandidateSkills))
	for _, s := range p.CandidateSkills {
		skills = append(skills, s.SkillName)
	}
	p.Skills = skills
}

// Clone returns a deep copy of the profile
func (p *UnifiedProfileData) Clone() *UnifiedProfileData {
	if p == nil {
		return nil
	}
	c := *p
	if p.YearsOfExperience != nil {
		years := *p.YearsOfExperience
		c.YearsOfExperience = &years
	}
	c.WorkExperience = append([]WorkExperienceData{}, p.WorkExperience...)
	c.Education = append([]EducationData{}, p.Education...)
	c.Certificates = append([]CertificateData{}, p.Certificates...)
	c.Projects = make([]ProjectData, len(p.Projects))
	for i, proj := range p.Projects {
		proj.Technologies = append([]string{}, proj.Technologies...)
		c.Projects[i] = proj
	}
	c.Awards = append([]AwardData{}, p.Awards...)
	c.Volunteering = append([]VolunteeringData{}, p.Volunteering...)
	c.CandidateSkills = append([]CandidateSkillData{}, p.CandidateSkills...)
	c.Accomplishments = make([]AccomplishmentData, len(p.Accomplishments))
	for i, a := range p.Accomplishments {
		if a.WorkExperienceIndex != nil {
			idx := *a.WorkExperienceIndex
			a.WorkExperienceIndex = &idx
		}
		c.Accomplishments[i] = a
	}
	c.Skills = append([]string{}, p.Skills...)
	c.CVDocuments = append([]CVDocument{}, p.CVDocuments...)
	return &c
}
