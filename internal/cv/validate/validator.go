// Package validate checks a unified profile against its required-field rules
// and reports every violation as a human-readable message.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"jobportal-cv/pkg/models"
)

// namespace looks like UnifiedProfileData.work_experience[0].title
var namespacePattern = regexp.MustCompile(`^[^.]+\.([a-z_]+)(?:\[(\d+)\])?(?:\.([a-z_]+))?$`)

var sectionLabels = map[string]string{
	"work_experience": "Work experience",
	"education":       "Education",
	"volunteering":    "Volunteering",
	"accomplishments": "Accomplishment",
}

var fieldLabels = map[string]string{
	"first_name":        "First name",
	"last_name":         "Last name",
	"title":             "title",
	"company":           "company",
	"start_date":        "start date",
	"degree_diploma":    "degree/diploma",
	"university_school": "university/school",
	"role":              "role",
	"institution":       "institution",
	"description":       "description",
}

// ProfileValidator validates UnifiedProfileData. It is safe for concurrent use.
type ProfileValidator struct {
	v *validator.Validate
}

// New creates a ProfileValidator
func New() *ProfileValidator {
	v := validator.New()
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &ProfileValidator{v: v}
}

var (
	defaultOnce      sync.Once
	defaultValidator *ProfileValidator
)

// Validate checks p with a shared ProfileValidator
func Validate(p *models.UnifiedProfileData) models.ValidationResult {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator.Validate(p)
}

// Validate accumulates one message per missing required field across the
// whole profile. p is not modified.
func (pv *ProfileValidator) Validate(p *models.UnifiedProfileData) models.ValidationResult {
	if p == nil {
		return models.ValidationResult{IsValid: false, Errors: []string{"Profile is required"}}
	}

	messages := []string{}
	err := pv.v.Struct(p)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			messages = append(messages, err.Error())
		}
		for _, fe := range fieldErrs {
			messages = append(messages, message(fe))
		}
	}

	return models.ValidationResult{IsValid: len(messages) == 0, Errors: messages}
}

func message(fe validator.FieldError) string {
	m := namespacePattern.FindStringSubmatch(fe.Namespace())
	if m == nil {
		return fmt.Sprintf("%s is invalid", fe.Field())
	}

	section, index, field := m[1], m[2], m[3]
	if index == "" {
		return fmt.Sprintf("%s is required", label(section))
	}

	i, _ := strconv.Atoi(index)
	return fmt.Sprintf("%s #%d: %s is required", sectionLabel(section), i+1, label(field))
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return strings.ReplaceAll(field, "_", " ")
}

func sectionLabel(section string) string {
	if l, ok := sectionLabels[section]; ok {
		return l
	}
	return label(section)
}
