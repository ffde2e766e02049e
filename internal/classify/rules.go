package classify

// DefaultIndustryRules are the built-in industry keywords
var DefaultIndustryRules = []Rule{
	{Label: "Technology", Keywords: []string{
		"software", "developer", "engineer", "programmer", "devops", "backend", "frontend",
		"full stack", "fullstack", "cloud", "data scientist", "machine learning", "sre",
	}},
	{Label: "Finance", Keywords: []string{
		"bank", "banking", "finance", "financial", "accountant", "accounting", "audit",
		"investment", "analyst", "insurance", "fintech",
	}},
	{Label: "Healthcare", Keywords: []string{
		"nurse", "nursing", "hospital", "clinic", "clinical", "medical", "physician",
		"pharmacy", "pharmaceutical", "health", "healthcare",
	}},
	{Label: "Education", Keywords: []string{
		"teacher", "teaching", "professor", "lecturer", "tutor", "school", "university", "education",
	}},
	{Label: "Marketing", Keywords: []string{
		"marketing", "seo", "brand", "branding", "content", "social media", "campaign", "copywriter",
	}},
	{Label: "Sales", Keywords: []string{
		"sales", "account executive", "business development", "retail", "customer success",
	}},
	{Label: "Design", Keywords: []string{
		"designer", "design", "ux", "ui", "graphic", "illustrator", "product design",
	}},
	{Label: "Engineering", Keywords: []string{
		"mechanical", "civil", "electrical", "manufacturing", "construction", "industrial",
	}},
	{Label: "Hospitality", Keywords: []string{
		"hotel", "restaurant", "chef", "cook", "hospitality", "tourism", "barista",
	}},
	{Label: "Logistics", Keywords: []string{
		"logistics", "supply chain", "warehouse", "transport", "procurement", "shipping",
	}},
}

// DefaultSkillRules are the built-in skill categories
var DefaultSkillRules = []Rule{
	{Label: "programming_languages", Keywords: []string{
		"go", "golang", "python", "java", "javascript", "typescript", "c", "c++", "c#",
		"rust", "ruby", "php", "kotlin", "swift", "scala", "r", "dart", "elixir", "haskell",
	}},
	{Label: "frameworks", Keywords: []string{
		"react", "angular", "vue", "svelte", "django", "flask", "fastapi", "spring", "rails",
		"express", "next.js", "nestjs", "laravel", ".net", "gin", "echo", "flutter",
	}},
	{Label: "databases", Keywords: []string{
		"sql", "postgresql", "postgres", "mysql", "mongodb", "redis", "sqlite", "oracle",
		"elasticsearch", "cassandra", "dynamodb",
	}},
	{Label: "cloud_devops", Keywords: []string{
		"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "ansible", "jenkins",
		"ci/cd", "linux", "git", "github actions",
	}},
	{Label: "design", Keywords: []string{
		"figma", "photoshop", "illustrator", "sketch", "indesign", "after effects",
	}},
	{Label: "soft_skills", Keywords: []string{
		"leadership", "communication", "teamwork", "problem solving", "management",
		"negotiation", "mentoring", "public speaking",
	}},
	{Label: "languages", Keywords: []string{
		"english", "spanish", "french", "german", "portuguese", "italian", "arabic",
		"mandarin", "chinese", "japanese", "hindi", "russian",
	}},
}
