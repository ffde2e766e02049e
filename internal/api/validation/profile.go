package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"jobportal-cv/internal/form"
)

// CandidateIDPattern accepts opaque ids issued by the identity service
var CandidateIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// FormSessionIDPattern matches ids generated for form sessions
var FormSessionIDPattern = regexp.MustCompile(`^frm_[0-9a-f-]{36}$`)

// ProcessIDPattern matches ids generated for background extractions
var ProcessIDPattern = regexp.MustCompile(`^cvx_[0-9a-f-]{36}$`)

// ValidateCandidateID validates that the candidate id is a safe token
func ValidateCandidateID(fl validator.FieldLevel) bool {
	return CandidateIDPattern.MatchString(fl.Field().String())
}

// ValidateFormStep validates that the value names a known form step
func ValidateFormStep(fl validator.FieldLevel) bool {
	_, err := form.ParseStep(fl.Field().String())
	return err == nil
}

// RegisterProfileValidators registers all request validators
func RegisterProfileValidators(v *validator.Validate) {
	v.RegisterValidation("candidate_id", ValidateCandidateID)
	v.RegisterValidation("form_step", ValidateFormStep)
}

// New returns a validator with the request validators registered
func New() *validator.Validate {
	v := validator.New()
	RegisterProfileValidators(v)
	return v
}
