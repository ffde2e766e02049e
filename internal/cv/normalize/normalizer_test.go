package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal-cv/internal/cv/recovery"
	"jobportal-cv/pkg/models"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func parse(t *testing.T, raw string) recovery.ExtractedData {
	t.Helper()
	data, err := recovery.Parse(raw)
	require.NoError(t, err)
	return data
}

func normalize(t *testing.T, raw string) (*models.UnifiedProfileData, Report) {
	t.Helper()
	return New(WithClock(func() time.Time { return fixedNow })).Normalize(parse(t, raw))
}

func assertListsPresent(t *testing.T, p *models.UnifiedProfileData) {
	t.Helper()
	assert.NotNil(t, p.WorkExperience)
	assert.NotNil(t, p.Education)
	assert.NotNil(t, p.Certificates)
	assert.NotNil(t, p.Projects)
	assert.NotNil(t, p.Awards)
	assert.NotNil(t, p.Volunteering)
	assert.NotNil(t, p.CandidateSkills)
	assert.NotNil(t, p.Accomplishments)
	assert.NotNil(t, p.Skills)
	assert.NotNil(t, p.CVDocuments)
}

func TestNormalizeAlwaysProducesLists(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"basic_info":null}`,
		`{"basic_info":"Ana Li","skills":null}`,
		`{"work_experiences":"none","educations":{},"certificates":42,"certifications":true,"projects":"x","skills":"Go","awards":{},"volunteering":1,"accomplishments":"lots"}`,
		`{"work_experiences":[null,"text",1,[]]}`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			p, _ := normalize(t, input)
			require.NotNil(t, p)
			assertListsPresent(t, p)

			encoded, err := json.Marshal(p)
			require.NoError(t, err)
			assert.NotContains(t, string(encoded), "null")
		})
	}
}

func TestNormalizeReportsIgnoredInput(t *testing.T) {
	_, report := normalize(t, `{"work_experiences":"none","educations":[1,{"degree":"BSc"}],"skills":["Go",{"proficiency":90},""]}`)

	assert.Equal(t, []string{"work_experiences"}, report.IgnoredSections)
	assert.Equal(t, 1, report.SkippedEntries)
	assert.Equal(t, 2, report.DroppedSkills)
	assert.Len(t, report.Warnings(), 3)
}

func TestNormalizeEndToEndScenario(t *testing.T) {
	p, _ := normalize(t, `{"basic_info":{"first_name":"Ana","last_name":"Li"},"certifications":[{"title":"AWS SAA","issuer":"AWS","date":"2023-05-01"}]}`)

	assert.Equal(t, "Ana", p.FirstName)
	assert.Equal(t, "Li", p.LastName)
	require.Len(t, p.Certificates, 1)
	assert.Equal(t, models.CertificateData{Name: "AWS SAA", IssuingAuthority: "AWS", IssueDate: "2023-05-01"}, p.Certificates[0])
	assertListsPresent(t, p)
}

func TestNormalizeBasicInfo(t *testing.T) {
	p, _ := normalize(t, `{"basic_info":{
		"first_name":"  Ana ","last_name":"Li","title":"Backend Engineer","email":"ana@example.com",
		"linkedin":"https://linkedin.com/in/ana","years_of_experience":"7","experience_level":"Senior",
		"industry":null,"phone":5551234}}`)

	assert.Equal(t, "Ana", p.FirstName)
	assert.Equal(t, "Backend Engineer", p.Title)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "https://linkedin.com/in/ana", p.LinkedInURL)
	require.NotNil(t, p.YearsOfExperience)
	assert.Equal(t, 7, *p.YearsOfExperience)
	assert.Equal(t, "senior", p.ExperienceLevel)
	assert.Empty(t, p.Industry)
	assert.Equal(t, "5551234", p.Phone)
}

func TestNormalizeNegativeYearsIgnored(t *testing.T) {
	p, _ := normalize(t, `{"basic_info":{"years_of_experience":-3}}`)
	assert.Nil(t, p.YearsOfExperience)
}

func TestNormalizeCertificateMerge(t *testing.T) {
	valid := `{"name":"CKA","issuing_authority":"CNCF","issue_date":"2022-01-01"}`
	alias := `{"title":"CKA","organization":"CNCF","date":"2022-01-01"}`
	invalid := `{"name":"Orphan"}`

	want := []models.CertificateData{{Name: "CKA", IssuingAuthority: "CNCF", IssueDate: "2022-01-01"}}

	tests := []struct {
		name string
		raw  string
	}{
		{"certificates only", `{"certificates":[` + valid + `,` + invalid + `]}`},
		{"certifications only", `{"certifications":[` + alias + `,` + invalid + `]}`},
		{"duplicated under both", `{"certificates":[` + valid + `],"certifications":[` + valid + `,` + invalid + `]}`},
		{"duplicated with aliases", `{"certificates":[` + valid + `],"certifications":[` + alias + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := normalize(t, tt.raw)
			assert.Equal(t, want, p.Certificates)
		})
	}
}

func TestNormalizeCertificateAliasPriority(t *testing.T) {
	p, _ := normalize(t, `{"certifications":[{"name":"A","title":"B","issuing_authority":"X","issuer":"Y","organization":"Z","issue_date":"2020-01-01","date":"2021-01-01"}]}`)
	require.Len(t, p.Certificates, 1)
	assert.Equal(t, "A", p.Certificates[0].Name)
	assert.Equal(t, "X", p.Certificates[0].IssuingAuthority)
	assert.Equal(t, "2020-01-01", p.Certificates[0].IssueDate)
}

func TestNormalizeVolunteeringRename(t *testing.T) {
	p, _ := normalize(t, `{"volunteering":[{"role":"Mentor","organization":"Red Cross","cause":"Health","location":"Lisbon"}]}`)

	require.Len(t, p.Volunteering, 1)
	v := p.Volunteering[0]
	assert.Equal(t, "Mentor", v.Role)
	assert.Equal(t, "Red Cross", v.Institution)
	assert.Equal(t, "Health", v.Cause)
	assert.Equal(t, "Lisbon", v.Location)

	encoded, err := json.Marshal(v)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(encoded, &fields))
	assert.Equal(t, "Red Cross", fields["institution"])
	assert.NotContains(t, fields, "organization")
}

func TestNormalizeSkills(t *testing.T) {
	p, _ := normalize(t, `{"skills":[
		"Python",
		{"name":"Go","proficiency":85},
		{"name":"Rust","proficiency":140},
		{"name":"COBOL","proficiency":-10},
		{"skill_name":"SQL","proficiency":"70%"},
		{"name":"Bash","proficiency":"expert"},
		{"name":"   "},
		"",
		42,
		"Python"
	]}`)

	assert.Equal(t, []models.CandidateSkillData{
		{SkillName: "Python", SkillSource: models.SkillSourceCVExtraction, Proficiency: 50},
		{SkillName: "Go", SkillSource: models.SkillSourceCVExtraction, Proficiency: 85},
		{SkillName: "Rust", SkillSource: models.SkillSourceCVExtraction, Proficiency: 100},
		{SkillName: "COBOL", SkillSource: models.SkillSourceCVExtraction, Proficiency: 0},
		{SkillName: "SQL", SkillSource: models.SkillSourceCVExtraction, Proficiency: 70},
		{SkillName: "Bash", SkillSource: models.SkillSourceCVExtraction, Proficiency: 50},
		{SkillName: "Python", SkillSource: models.SkillSourceCVExtraction, Proficiency: 50},
	}, p.CandidateSkills)
	assert.Equal(t, []string{"Python", "Go", "Rust", "COBOL", "SQL", "Bash", "Python"}, p.Skills)
}

func TestNormalizeProficiencySaturates(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"huge number", `1e20`, 100},
		{"overflowing number", `1e400`, 100},
		{"huge string", `"1e30"`, 100},
		{"overflowing string", `"1e400"`, 100},
		{"huge negative", `-1e20`, 0},
		{"rounds half up", `49.5`, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := normalize(t, `{"skills":[{"name":"Go","proficiency":`+tt.value+`}]}`)
			require.Len(t, p.CandidateSkills, 1)
			assert.Equal(t, tt.want, p.CandidateSkills[0].Proficiency)
		})
	}
}

func TestNormalizeOutOfRangeYearsIgnored(t *testing.T) {
	for _, value := range []string{`1e20`, `1e400`, `"9e99"`} {
		p, _ := normalize(t, `{"basic_info":{"years_of_experience":`+value+`}}`)
		assert.Nil(t, p.YearsOfExperience, value)
	}
}

func TestNormalizeSkillsFlatteningOrder(t *testing.T) {
	p, _ := normalize(t, `{"skills":[{"name":"Python"},{"name":"Go"}]}`)
	assert.Equal(t, []string{"Python", "Go"}, p.Skills)
}

func TestNormalizeWorkExperience(t *testing.T) {
	p, _ := normalize(t, `{"work_experiences":[
		{"title":"Engineer","company":"Acme","start_date":"2019","end_date":"2021-06","is_current":false},
		{"position":"Lead","employer":"Globex","start_date":"2021-07-01","end_date":"2023-01-01","is_current":true},
		{"title":"Advisor","company":"Initech","start_date":"2023-02-01","end_date":"Present"},
		{"company":"NoTitle"}
	]}`)

	require.Len(t, p.WorkExperience, 4)

	assert.Equal(t, "2019-01-01", p.WorkExperience[0].StartDate)
	assert.Equal(t, "2021-06-01", p.WorkExperience[0].EndDate)
	assert.False(t, p.WorkExperience[0].IsCurrent)

	assert.Equal(t, "Lead", p.WorkExperience[1].Title)
	assert.Equal(t, "Globex", p.WorkExperience[1].Company)
	assert.True(t, p.WorkExperience[1].IsCurrent)
	assert.Empty(t, p.WorkExperience[1].EndDate, "current roles have no end date")

	assert.True(t, p.WorkExperience[2].IsCurrent)
	assert.Empty(t, p.WorkExperience[2].EndDate)

	assert.Equal(t, "", p.WorkExperience[3].Title, "missing required strings default to empty")
}

func TestNormalizeVolunteeringCurrentClearsEndDate(t *testing.T) {
	p, _ := normalize(t, `{"volunteering":[{"role":"Mentor","organization":"Red Cross","end_date":"2020-01-01","is_current":"true"}]}`)
	require.Len(t, p.Volunteering, 1)
	assert.True(t, p.Volunteering[0].IsCurrent)
	assert.Empty(t, p.Volunteering[0].EndDate)
}

func TestNormalizeAwardDateDefaultsToToday(t *testing.T) {
	p, _ := normalize(t, `{"awards":[{"title":"Hackathon winner","issuer":"ACM"},{"title":"MVP","date":"2022-11-01"}]}`)

	require.Len(t, p.Awards, 2)
	assert.Equal(t, "2024-03-15", p.Awards[0].Date)
	assert.Equal(t, "2022-11-01", p.Awards[1].Date)
}

func TestNormalizeProjectsAndAccomplishments(t *testing.T) {
	p, _ := normalize(t, `{
		"projects":[{"name":"jobportal","description":"Job board","technologies":"Go, Redis ,"},{"title":"cli","technologies":["Go",null,"Cobra"]},{"title":"bare"}],
		"accomplishments":[{"title":"Cut latency","description":"Reduced p99 by 40%"},{"title":"No description"}]
	}`)

	require.Len(t, p.Projects, 3)
	assert.Equal(t, "jobportal", p.Projects[0].Title)
	assert.Equal(t, []string{"Go", "Redis"}, p.Projects[0].Technologies)
	assert.Equal(t, []string{"Go", "Cobra"}, p.Projects[1].Technologies)
	assert.NotNil(t, p.Projects[2].Technologies)

	require.Len(t, p.Accomplishments, 2)
	assert.Equal(t, "Reduced p99 by 40%", p.Accomplishments[0].Description)
	assert.Equal(t, "", p.Accomplishments[1].Description)
	assert.Nil(t, p.Accomplishments[0].WorkExperienceIndex)
}

func TestPackageNormalize(t *testing.T) {
	p := Normalize(parse(t, `{"basic_info":{"first_name":"Ana","last_name":"Li"}}`))
	assert.Equal(t, "Ana", p.FirstName)
	assertListsPresent(t, p)
}
