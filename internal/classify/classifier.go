// Package classify provides heuristic industry and skill-category detection for
// profiles. Callers depend on the Classifier interface so the keyword
// heuristic can be replaced.
package classify

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"jobportal-cv/pkg/models"
)

// OtherCategory collects skills no category matched
const OtherCategory = "other"

// Classifier derives categories from profile content
type Classifier interface {
	// ClassifyIndustry returns the most likely industry or "" when nothing matched
	ClassifyIndustry(profile *models.UnifiedProfileData) string

	// CategorizeSkills groups skill names by category, preserving input order within a group
	CategorizeSkills(skills []string) map[string][]string
}

// Rule maps a label to the keywords that vote for it
type Rule struct {
	Label    string
	Keywords []string
}

// KeywordClassifier matches accent- and case-folded keywords
type KeywordClassifier struct {
	industries []compiledRule
	skills     []Rule
	skillIndex map[string]string
}

type compiledRule struct {
	label   string
	pattern *regexp.Regexp
}

// NewKeywordClassifier builds a classifier from rule tables. Earlier rules win ties.
func NewKeywordClassifier(industryRules, skillRules []Rule) *KeywordClassifier {
	kc := &KeywordClassifier{
		skills:     skillRules,
		skillIndex: make(map[string]string),
	}

	for _, rule := range industryRules {
		quoted := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			quoted = append(quoted, regexp.QuoteMeta(Fold(kw)))
		}
		kc.industries = append(kc.industries, compiledRule{
			label:   rule.Label,
			pattern: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}

	for _, rule := range skillRules {
		for _, kw := range rule.Keywords {
			key := Fold(kw)
			if _, exists := kc.skillIndex[key]; !exists {
				kc.skillIndex[key] = rule.Label
			}
		}
	}

	return kc
}

// NewDefaultClassifier returns a KeywordClassifier with the built-in tables
func NewDefaultClassifier() *KeywordClassifier {
	return NewKeywordClassifier(DefaultIndustryRules, DefaultSkillRules)
}

// Fold lowercases s and strips diacritics so "Café" and "cafe" compare equal
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ClassifyIndustry scores every industry by keyword hits in the headline,
// current position and work history
func (kc *KeywordClassifier) ClassifyIndustry(profile *models.UnifiedProfileData) string {
	if profile == nil {
		return ""
	}

	parts := []string{profile.Title, profile.CurrentPosition, profile.Bio}
	for _, w := range profile.WorkExperience {
		parts = append(parts, w.Title, w.Company, w.Description)
	}
	text := Fold(strings.Join(parts, " "))
	if text == "" {
		return ""
	}

	best, bestScore := "", 0
	for _, rule := range kc.industries {
		score := len(rule.pattern.FindAllStringIndex(text, -1))
		if score > bestScore {
			best, bestScore = rule.label, score
		}
	}
	return best
}

// CategorizeSkills assigns each skill by exact folded match, then by its
// first matching word
func (kc *KeywordClassifier) CategorizeSkills(skills []string) map[string][]string {
	out := make(map[string][]string)
	for _, skill := range skills {
		if strings.TrimSpace(skill) == "" {
			continue
		}
		label := kc.skillCategory(skill)
		out[label] = append(out[label], skill)
	}
	return out
}

func (kc *KeywordClassifier) skillCategory(skill string) string {
	folded := Fold(skill)
	if label, ok := kc.skillIndex[folded]; ok {
		return label
	}
	for _, token := range strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '/' || r == ',' || r == '(' || r == ')'
	}) {
		if label, ok := kc.skillIndex[token]; ok {
			return label
		}
	}
	return OtherCategory
}

// Categories returns the labels the classifier can produce, sorted
func (kc *KeywordClassifier) Categories() []string {
	labels := []string{OtherCategory}
	for _, rule := range kc.skills {
		labels = append(labels, rule.Label)
	}
	sort.Strings(labels)
	return labels
}
