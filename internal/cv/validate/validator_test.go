package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-cv/pkg/models"
)

func validProfile() *models.UnifiedProfileData {
	p := models.NewUnifiedProfileData()
	p.FirstName = "Ana"
	p.LastName = "Li"
	p.WorkExperience = []models.WorkExperienceData{{Title: "Engineer", Company: "Acme", StartDate: "2020-01-01", IsCurrent: true}}
	p.Education = []models.EducationData{{DegreeDiploma: "BSc", UniversitySchool: "MIT"}}
	p.Volunteering = []models.VolunteeringData{{Role: "Mentor", Institution: "Red Cross"}}
	p.Accomplishments = []models.AccomplishmentData{{Title: "Shipped v2", Description: "Led the rewrite"}}
	p.Certificates = []models.CertificateData{{Name: "CKA", IssuingAuthority: "CNCF"}}
	return p
}

func TestValidateAcceptsCompleteProfile(t *testing.T) {
	result := Validate(validProfile())
	assert.True(t, result.IsValid)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidateEmptyListsAreValid(t *testing.T) {
	p := models.NewUnifiedProfileData()
	p.FirstName = "Ana"
	p.LastName = "Li"

	result := Validate(p)
	assert.True(t, result.IsValid)
}

func TestValidateNames(t *testing.T) {
	p := validProfile()
	p.FirstName = "   "
	p.LastName = ""

	result := Validate(p)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"First name is required", "Last name is required"}, result.Errors)
}

func TestValidateAccumulatesEveryMissingField(t *testing.T) {
	p := validProfile()
	p.WorkExperience = append(p.WorkExperience,
		models.WorkExperienceData{},
		models.WorkExperienceData{Title: "Lead", Company: " "},
	)
	p.Education = append(p.Education, models.EducationData{DegreeDiploma: "MSc"})
	p.Volunteering = []models.VolunteeringData{{Institution: "Red Cross"}}
	p.Accomplishments = []models.AccomplishmentData{{}, {Title: "Only title"}}

	result := Validate(p)
	require.False(t, result.IsValid)

	assert.ElementsMatch(t, []string{
		"Work experience #2: title is required",
		"Work experience #2: company is required",
		"Work experience #2: start date is required",
		"Work experience #3: company is required",
		"Work experience #3: start date is required",
		"Education #2: university/school is required",
		"Volunteering #1: role is required",
		"Accomplishment #1: title is required",
		"Accomplishment #1: description is required",
		"Accomplishment #2: description is required",
	}, result.Errors)
}

func TestValidateCountsMatchMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *models.UnifiedProfileData)
		wantLen int
	}{
		{"one missing", func(p *models.UnifiedProfileData) { p.Education[0].DegreeDiploma = "" }, 1},
		{"names and entries", func(p *models.UnifiedProfileData) {
			p.FirstName = ""
			p.WorkExperience[0].StartDate = ""
			p.Volunteering[0].Institution = ""
		}, 3},
		{"whole entries empty", func(p *models.UnifiedProfileData) {
			p.WorkExperience[0] = models.WorkExperienceData{}
			p.Education[0] = models.EducationData{}
			p.Volunteering[0] = models.VolunteeringData{}
			p.Accomplishments[0] = models.AccomplishmentData{}
		}, 9},
		{"optional lists are not checked", func(p *models.UnifiedProfileData) {
			p.Certificates = append(p.Certificates, models.CertificateData{})
			p.Projects = append(p.Projects, models.ProjectData{})
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			result := Validate(p)
			assert.Len(t, result.Errors, tt.wantLen)
			assert.Equal(t, tt.wantLen == 0, result.IsValid)
		})
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	p := validProfile()
	p.WorkExperience[0].Title = ""
	before := p.Clone()

	Validate(p)
	assert.Equal(t, before, p)
}

func TestValidateNilProfile(t *testing.T) {
	result := New().Validate(nil)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1)
}
