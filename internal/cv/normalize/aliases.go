package normalize

// Source keys accepted for each target field, in priority order. The first
// key present with a non-null value wins.
var (
	basicInfoFields = map[string][]string{
		"first_name":          {"first_name", "firstName", "given_name"},
		"last_name":           {"last_name", "lastName", "family_name", "surname"},
		"title":               {"title", "headline"},
		"bio":                 {"bio", "summary"},
		"about":               {"about", "profile"},
		"location":            {"location", "city"},
		"email":               {"email"},
		"phone":               {"phone", "phone_number"},
		"website":             {"website", "personal_website"},
		"linkedin_url":        {"linkedin_url", "linkedin"},
		"github_url":          {"github_url", "github"},
		"portfolio_url":       {"portfolio_url", "portfolio"},
		"years_of_experience": {"years_of_experience", "experience_years"},
		"experience_level":    {"experience_level", "seniority"},
		"current_position":    {"current_position", "current_title"},
		"industry":            {"industry"},
	}

	workExperienceFields = map[string][]string{
		"title":           {"title", "position", "job_title"},
		"company":         {"company", "employer", "company_name"},
		"location":        {"location"},
		"employment_type": {"employment_type", "type"},
		"start_date":      {"start_date", "from"},
		"end_date":        {"end_date", "to"},
		"is_current":      {"is_current", "current"},
		"description":     {"description", "summary"},
	}

	educationFields = map[string][]string{
		"degree_diploma":    {"degree_diploma", "degree", "diploma"},
		"university_school": {"university_school", "institution", "school", "university"},
		"field_of_study":    {"field_of_study", "major"},
		"start_date":        {"start_date"},
		"end_date":          {"end_date", "graduation_date"},
		"grade":             {"grade", "gpa"},
		"description":       {"description"},
	}

	certificateFields = map[string][]string{
		"name":              {"name", "title"},
		"issuing_authority": {"issuing_authority", "issuer", "organization"},
		"issue_date":        {"issue_date", "date"},
		"expiry_date":       {"expiry_date", "expiration_date"},
		"credential_id":     {"credential_id"},
		"credential_url":    {"credential_url", "url"},
	}

	projectFields = map[string][]string{
		"title":        {"title", "name"},
		"description":  {"description"},
		"role":         {"role"},
		"start_date":   {"start_date"},
		"end_date":     {"end_date"},
		"project_url":  {"project_url", "url", "link"},
		"technologies": {"technologies", "tech_stack", "tools"},
	}

	awardFields = map[string][]string{
		"title":       {"title", "name"},
		"issuer":      {"issuer", "organization", "awarded_by"},
		"date":        {"date", "issue_date"},
		"description": {"description"},
	}

	volunteeringFields = map[string][]string{
		"role":        {"role", "title", "position"},
		"institution": {"institution", "organization"},
		"cause":       {"cause"},
		"location":    {"location"},
		"start_date":  {"start_date"},
		"end_date":    {"end_date"},
		"is_current":  {"is_current", "current"},
		"description": {"description"},
	}

	skillFields = map[string][]string{
		"name":        {"name", "skill_name", "skill"},
		"proficiency": {"proficiency", "level"},
	}

	accomplishmentFields = map[string][]string{
		"title":       {"title", "name"},
		"description": {"description", "details"},
		"date":        {"date"},
	}

	// certificateSources are merged in this order
	certificateSources = []string{"certificates", "certifications"}
)
