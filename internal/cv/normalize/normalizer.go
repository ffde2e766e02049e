// Package normalize maps loosely-typed extracted CV data onto the unified
// profile. Normalization is total: missing, null or wrongly-typed source values
// fall back to defaults and never produce an error.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"jobportal-cv/internal/cv/recovery"
	"jobportal-cv/pkg/models"
)

const dateLayout = "2006-01-02"

var (
	yearOnly   = regexp.MustCompile(`^\d{4}$`)
	yearMonth  = regexp.MustCompile(`^\d{4}-\d{2}$`)
	ongoingEnd = regexp.MustCompile(`(?i)^(present|current|now|ongoing|today)$`)
)

// Report records what normalization had to discard or ignore
type Report struct {
	IgnoredSections     []string `json:"ignored_sections"`
	SkippedEntries      int      `json:"skipped_entries"`
	DroppedCertificates int      `json:"dropped_certificates"`
	DroppedSkills       int      `json:"dropped_skills"`
}

// Warnings renders the report as human-readable lines
func (r Report) Warnings() []string {
	warnings := []string{}
	for _, section := range r.IgnoredSections {
		warnings = append(warnings, fmt.Sprintf("section %q was not a list and was ignored", section))
	}
	if r.SkippedEntries > 0 {
		warnings = append(warnings, fmt.Sprintf("%d list entries were not objects and were skipped", r.SkippedEntries))
	}
	if r.DroppedCertificates > 0 {
		warnings = append(warnings, fmt.Sprintf("%d certificates without name or issuing authority were dropped", r.DroppedCertificates))
	}
	if r.DroppedSkills > 0 {
		warnings = append(warnings, fmt.Sprintf("%d skills without a name were dropped", r.DroppedSkills))
	}
	return warnings
}

// Normalizer converts ExtractedData into UnifiedProfileData
type Normalizer struct {
	now func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClock overrides the clock used for defaulted award dates
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// New creates a Normalizer
func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps data with a default Normalizer
func Normalize(data recovery.ExtractedData) *models.UnifiedProfileData {
	profile, _ := New().Normalize(data)
	return profile
}

// Normalize maps data onto a new profile. Every list of the result is non-nil.
func (n *Normalizer) Normalize(data recovery.ExtractedData) (*models.UnifiedProfileData, Report) {
	report := Report{IgnoredSections: []string{}}
	profile := models.NewUnifiedProfileData()

	n.mapBasicInfo(data.Get("basic_info"), profile)

	for _, item := range n.objects(data, "work_experiences", &report) {
		profile.WorkExperience = append(profile.WorkExperience, n.mapWorkExperience(item))
	}
	for _, item := range n.objects(data, "educations", &report) {
		profile.Education = append(profile.Education, n.mapEducation(item))
	}

	seen := make(map[models.CertificateData]bool)
	for _, source := range certificateSources {
		for _, item := range n.objects(data, source, &report) {
			cert := n.mapCertificate(item)
			if cert.Name == "" || cert.IssuingAuthority == "" {
				report.DroppedCertificates++
				continue
			}
			if seen[cert] {
				continue
			}
			seen[cert] = true
			profile.Certificates = append(profile.Certificates, cert)
		}
	}

	for _, item := range n.objects(data, "projects", &report) {
		profile.Projects = append(profile.Projects, n.mapProject(item))
	}
	for _, item := range n.objects(data, "awards", &report) {
		profile.Awards = append(profile.Awards, n.mapAward(item))
	}
	for _, item := range n.objects(data, "volunteering", &report) {
		profile.Volunteering = append(profile.Volunteering, n.mapVolunteering(item))
	}

	// skills accept both plain strings and objects
	for _, item := range n.list(data, "skills", &report) {
		skill, ok := n.mapSkill(item)
		if !ok {
			report.DroppedSkills++
			continue
		}
		profile.CandidateSkills = append(profile.CandidateSkills, skill)
	}

	for _, item := range n.objects(data, "accomplishments", &report) {
		profile.Accomplishments = append(profile.Accomplishments, n.mapAccomplishment(item))
	}

	profile.DeriveSkills()
	profile.EnsureLists()
	return profile, report
}

func (n *Normalizer) mapBasicInfo(info gjson.Result, p *models.UnifiedProfileData) {
	if !info.IsObject() {
		return
	}
	p.FirstName = stringField(info, basicInfoFields["first_name"])
	p.LastName = stringField(info, basicInfoFields["last_name"])
	p.Title = stringField(info, basicInfoFields["title"])
	p.Bio = stringField(info, basicInfoFields["bio"])
	p.About = stringField(info, basicInfoFields["about"])
	p.Location = stringField(info, basicInfoFields["location"])
	p.Email = stringField(info, basicInfoFields["email"])
	p.Phone = stringField(info, basicInfoFields["phone"])
	p.Website = stringField(info, basicInfoFields["website"])
	p.LinkedInURL = stringField(info, basicInfoFields["linkedin_url"])
	p.GitHubURL = stringField(info, basicInfoFields["github_url"])
	p.PortfolioURL = stringField(info, basicInfoFields["portfolio_url"])
	p.ExperienceLevel = strings.ToLower(stringField(info, basicInfoFields["experience_level"]))
	p.CurrentPosition = stringField(info, basicInfoFields["current_position"])
	p.Industry = stringField(info, basicInfoFields["industry"])

	if years, ok := intField(info, basicInfoFields["years_of_experience"]); ok && years >= 0 {
		p.YearsOfExperience = &years
	}
}

func (n *Normalizer) mapWorkExperience(item gjson.Result) models.WorkExperienceData {
	w := models.WorkExperienceData{
		Title:          stringField(item, workExperienceFields["title"]),
		Company:        stringField(item, workExperienceFields["company"]),
		Location:       stringField(item, workExperienceFields["location"]),
		EmploymentType: stringField(item, workExperienceFields["employment_type"]),
		StartDate:      dateField(item, workExperienceFields["start_date"]),
		IsCurrent:      boolField(item, workExperienceFields["is_current"]),
		Description:    stringField(item, workExperienceFields["description"]),
	}
	w.EndDate, w.IsCurrent = endDate(item, workExperienceFields["end_date"], w.IsCurrent)
	return w
}

func (n *Normalizer) mapEducation(item gjson.Result) models.EducationData {
	return models.EducationData{
		DegreeDiploma:    stringField(item, educationFields["degree_diploma"]),
		UniversitySchool: stringField(item, educationFields["university_school"]),
		FieldOfStudy:     stringField(item, educationFields["field_of_study"]),
		StartDate:        dateField(item, educationFields["start_date"]),
		EndDate:          dateField(item, educationFields["end_date"]),
		Grade:            stringField(item, educationFields["grade"]),
		Description:      stringField(item, educationFields["description"]),
	}
}

func (n *Normalizer) mapCertificate(item gjson.Result) models.CertificateData {
	return models.CertificateData{
		Name:             stringField(item, certificateFields["name"]),
		IssuingAuthority: stringField(item, certificateFields["issuing_authority"]),
		IssueDate:        dateField(item, certificateFields["issue_date"]),
		ExpiryDate:       dateField(item, certificateFields["expiry_date"]),
		CredentialID:     stringField(item, certificateFields["credential_id"]),
		CredentialURL:    stringField(item, certificateFields["credential_url"]),
	}
}

func (n *Normalizer) mapProject(item gjson.Result) models.ProjectData {
	return models.ProjectData{
		Title:        stringField(item, projectFields["title"]),
		Description:  stringField(item, projectFields["description"]),
		Role:         stringField(item, projectFields["role"]),
		StartDate:    dateField(item, projectFields["start_date"]),
		EndDate:      dateField(item, projectFields["end_date"]),
		ProjectURL:   stringField(item, projectFields["project_url"]),
		Technologies: stringList(item, projectFields["technologies"]),
	}
}

func (n *Normalizer) mapAward(item gjson.Result) models.AwardData {
	a := models.AwardData{
		Title:       stringField(item, awardFields["title"]),
		Issuer:      stringField(item, awardFields["issuer"]),
		Date:        dateField(item, awardFields["date"]),
		Description: stringField(item, awardFields["description"]),
	}
	if a.Date == "" {
		a.Date = n.now().Format(dateLayout)
	}
	return a
}

func (n *Normalizer) mapVolunteering(item gjson.Result) models.VolunteeringData {
	v := models.VolunteeringData{
		Role:        stringField(item, volunteeringFields["role"]),
		Institution: stringField(item, volunteeringFields["institution"]),
		Cause:       stringField(item, volunteeringFields["cause"]),
		Location:    stringField(item, volunteeringFields["location"]),
		StartDate:   dateField(item, volunteeringFields["start_date"]),
		IsCurrent:   boolField(item, volunteeringFields["is_current"]),
		Description: stringField(item, volunteeringFields["description"]),
	}
	v.EndDate, v.IsCurrent = endDate(item, volunteeringFields["end_date"], v.IsCurrent)
	return v
}

func (n *Normalizer) mapSkill(item gjson.Result) (models.CandidateSkillData, bool) {
	skill := models.CandidateSkillData{
		SkillSource: models.SkillSourceCVExtraction,
		Proficiency: models.DefaultSkillProficiency,
	}

	switch {
	case item.Type == gjson.String:
		skill.SkillName = strings.TrimSpace(item.String())
	case item.IsObject():
		skill.SkillName = stringField(item, skillFields["name"])
		if p, ok := numberField(item, skillFields["proficiency"]); ok {
			skill.Proficiency = clampProficiency(p)
		}
	}

	return skill, skill.SkillName != ""
}

func (n *Normalizer) mapAccomplishment(item gjson.Result) models.AccomplishmentData {
	return models.AccomplishmentData{
		Title:       stringField(item, accomplishmentFields["title"]),
		Description: stringField(item, accomplishmentFields["description"]),
		Date:        dateField(item, accomplishmentFields["date"]),
	}
}

// list returns the elements of a top-level section. Anything that is not an
// array counts as absent.
func (n *Normalizer) list(data recovery.ExtractedData, key string, report *Report) []gjson.Result {
	section := data.Get(key)
	if !section.Exists() || section.Type == gjson.Null {
		return nil
	}
	if !section.IsArray() {
		report.IgnoredSections = append(report.IgnoredSections, key)
		return nil
	}
	return section.Array()
}

// objects is list restricted to object elements
func (n *Normalizer) objects(data recovery.ExtractedData, key string, report *Report) []gjson.Result {
	var out []gjson.Result
	for _, item := range n.list(data, key, report) {
		if !item.IsObject() {
			report.SkippedEntries++
			continue
		}
		out = append(out, item)
	}
	return out
}

// lookup returns the first alias present with a non-null value
func lookup(obj gjson.Result, keys []string) (gjson.Result, bool) {
	for _, key := range keys {
		v := obj.Get(key)
		if v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func stringField(obj gjson.Result, keys []string) string {
	v, ok := lookup(obj, keys)
	if !ok {
		return ""
	}
	switch v.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(v.String())
	case gjson.True, gjson.False:
		return v.String()
	default:
		return ""
	}
}

func dateField(obj gjson.Result, keys []string) string {
	return normalizeDate(stringField(obj, keys))
}

// normalizeDate completes partial dates to YYYY-MM-DD
func normalizeDate(s string) string {
	switch {
	case yearOnly.MatchString(s):
		return s + "-01-01"
	case yearMonth.MatchString(s):
		return s + "-01"
	default:
		return s
	}
}

// endDate resolves an end date together with the current flag. An end date
// spelled like "Present" marks the entry current; current entries never keep
// an end date.
func endDate(obj gjson.Result, keys []string, isCurrent bool) (string, bool) {
	end := stringField(obj, keys)
	if ongoingEnd.MatchString(end) {
		isCurrent = true
	}
	if isCurrent {
		return "", true
	}
	return normalizeDate(end), false
}

func boolField(obj gjson.Result, keys []string) bool {
	v, ok := lookup(obj, keys)
	if !ok {
		return false
	}
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		b, err := strconv.ParseBool(strings.TrimSpace(v.String()))
		return err == nil && b
	case gjson.Number:
		return v.Float() != 0
	default:
		return false
	}
}

func numberField(obj gjson.Result, keys []string) (float64, bool) {
	v, ok := lookup(obj, keys)
	if !ok {
		return 0, false
	}
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v.String()), "%"), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func intField(obj gjson.Result, keys []string) (int, bool) {
	f, ok := numberField(obj, keys)
	if !ok {
		return 0, false
	}
	if math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// clampProficiency bounds p to 0..100 before converting, so overflowing
// values saturate instead of wrapping
func clampProficiency(p float64) int {
	return int(math.Round(math.Max(0, math.Min(100, p))))
}

// stringList accepts an array of strings or a comma separated string
func stringList(obj gjson.Result, keys []string) []string {
	out := []string{}
	v, ok := lookup(obj, keys)
	if !ok {
		return out
	}

	var parts []string
	switch {
	case v.IsArray():
		for _, el := range v.Array() {
			if el.Type == gjson.String || el.Type == gjson.Number {
				parts = append(parts, el.String())
			}
		}
	case v.Type == gjson.String:
		parts = strings.Split(v.String(), ",")
	}

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
