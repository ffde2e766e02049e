// Package prompt holds the fixed extraction instruction sent with every CV and
// the JSON Schema describing the shape it asks for.
package prompt

// PromptVersion identifies the extraction contract. Bump it whenever the
// instruction or schema changes.
const PromptVersion = "cv-extract/v3"

const extractionPrompt = `You are a resume parser. Read the attached CV document and extract the candidate's information.

Return ONLY a single JSON object with exactly this structure:

{
  "basic_info": {
    "first_name": "string",
    "last_name": "string",
    "title": "string or null - professional headline",
    "bio": "string or null - short summary written by the candidate",
    "about": "string or null - longer personal statement",
    "location": "string or null - city, country",
    "email": "string or null",
    "phone": "string or null",
    "website": "string or null",
    "linkedin_url": "string or null",
    "github_url": "string or null",
    "portfolio_url": "string or null",
    "years_of_experience": "integer or null",
    "experience_level": "string or null - one of entry, junior, mid, senior, lead, executive",
    "current_position": "string or null",
    "industry": "string or null"
  },
  "work_experiences": [
    {
      "title": "string",
      "company": "string",
      "location": "string or null",
      "employment_type": "string or null - full_time, part_time, contract, internship, freelance",
      "start_date": "YYYY-MM-DD",
      "end_date": "YYYY-MM-DD or null",
      "is_current": "boolean",
      "description": "string or null"
    }
  ],
  "educations": [
    {
      "degree_diploma": "string",
      "university_school": "string",
      "field_of_study": "string or null",
      "start_date": "YYYY-MM-DD or null",
      "end_date": "YYYY-MM-DD or null",
      "grade": "string or null",
      "description": "string or null"
    }
  ],
  "certifications": [
    {
      "name": "string",
      "issuing_authority": "string",
      "issue_date": "YYYY-MM-DD or null",
      "expiry_date": "YYYY-MM-DD or null",
      "credential_id": "string or null",
      "credential_url": "string or null"
    }
  ],
  "projects": [
    {
      "title": "string",
      "description": "string",
      "role": "string or null",
      "start_date": "YYYY-MM-DD or null",
      "end_date": "YYYY-MM-DD or null",
      "project_url": "string or null",
      "technologies": ["string"]
    }
  ],
  "skills": [
    { "name": "string", "proficiency": "integer 0-100 or null" }
  ],
  "awards": [
    {
      "title": "string",
      "issuer": "string or null",
      "date": "YYYY-MM-DD or null",
      "description": "string or null"
    }
  ],
  "volunteering": [
    {
      "role": "string",
      "organization": "string",
      "cause": "string or null",
      "location": "string or null",
      "start_date": "YYYY-MM-DD or null",
      "end_date": "YYYY-MM-DD or null",
      "is_current": "boolean",
      "description": "string or null"
    }
  ],
  "accomplishments": [
    {
      "title": "string",
      "description": "string",
      "date": "YYYY-MM-DD or null"
    }
  ]
}

IMPORTANT RULES:
1. Return ONLY the JSON object. No prose, no explanation, no markdown code fences.
2. Format every date as YYYY-MM-DD. If only a year is known use January 1st of that year (e.g. 2019 becomes 2019-01-01). If only a month and year are known use the first day of that month.
3. Use null for any optional field that is not present in the CV. Never invent values.
4. Use an empty array [] for any section that has no entries.
5. When a position or volunteering role is ongoing set is_current to true and end_date to null.
6. Only estimate a skill proficiency when the CV gives a clear signal (years of use, stated level); otherwise use null.
7. Split the candidate's full name into first_name and last_name.
8. Keep descriptions in the original language of the CV.`

// ExtractionPrompt returns the static extraction instruction
func ExtractionPrompt() string {
	return extractionPrompt
}
