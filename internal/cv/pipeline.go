// Package cv runs an uploaded CV through extraction, recovery, normalization
// and validation.
package cv

import (
	"context"
	"errors"
	"time"

	"jobportal-cv/internal/classify"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/cv/normalize"
	"jobportal-cv/internal/cv/prompt"
	"jobportal-cv/internal/cv/recovery"
	"jobportal-cv/internal/cv/validate"
	"jobportal-cv/internal/llm"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
)

// UserMessage is shown to the candidate whenever a terminal stage fails
const UserMessage = "Failed to process CV. Please try again or fill the form manually."

// Extractor performs the single outbound model call
type Extractor interface {
	ExtractCV(ctx context.Context, req llm.ExtractionRequest) (string, error)
	GetProviderName() string
}

// ExtractionServiceError wraps a failed model call
type ExtractionServiceError struct {
	Err error
}

func (e *ExtractionServiceError) Error() string {
	return "CV processing failed: " + e.Err.Error()
}

func (e *ExtractionServiceError) Unwrap() error {
	return e.Err
}

// Stage names reported in logs and failure responses
const (
	StageEncoding   = "encoding"
	StageExtraction = "extraction"
	StageParsing    = "parsing"
)

// FailedStage returns the pipeline stage an error came from, or "" if unknown
func FailedStage(err error) string {
	var encErr *document.EncodingError
	var extErr *ExtractionServiceError
	var parseErr *recovery.ParseError
	switch {
	case errors.As(err, &encErr):
		return StageEncoding
	case errors.As(err, &extErr):
		return StageExtraction
	case errors.As(err, &parseErr):
		return StageParsing
	default:
		return ""
	}
}

// Result is the outcome of one successful run. Validation problems are
// reported alongside the profile, never instead of it.
type Result struct {
	Profile         *models.UnifiedProfileData
	Validation      models.ValidationResult
	Warnings        []string
	SkillCategories map[string][]string
	PromptVersion   string
	Provider        string
	ProcessingTime  time.Duration
}

// Pipeline is stateless across runs and safe for concurrent use
type Pipeline struct {
	extractor  Extractor
	normalizer *normalize.Normalizer
	validator  *validate.ProfileValidator
	classifier classify.Classifier
	logger     logging.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) {
		p.normalizer = n
	}
}

// WithClassifier enables industry and skill-category enrichment
func WithClassifier(c classify.Classifier) Option {
	return func(p *Pipeline) {
		p.classifier = c
	}
}

// WithLogger replaces the global logger
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// NewPipeline creates a pipeline around extractor
func NewPipeline(extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		normalizer: normalize.New(),
		validator:  validate.New(),
		logger:     logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts a profile from doc. Extraction and recovery failures are
// terminal and returned as errors; nothing is retried.
func (p *Pipeline) Process(ctx context.Context, doc *document.EncodedDocument) (*Result, error) {
	startTime := time.Now()
	logger := p.logger.WithContext(ctx)

	if doc == nil {
		return nil, &document.EncodingError{Err: document.ErrEmptyDocument}
	}

	raw, err := p.extractor.ExtractCV(ctx, llm.ExtractionRequest{
		Document: doc,
		Prompt:   prompt.ExtractionPrompt(),
	})
	if err != nil {
		logger.Error("CV extraction call failed", map[string]interface{}{
			"file_name": doc.Filename,
			"provider":  p.extractor.GetProviderName(),
			"error":     err.Error(),
		})
		return nil, &ExtractionServiceError{Err: err}
	}

	result, err := p.fromText(raw)
	if err != nil {
		logger.Error("CV extraction response could not be parsed", map[string]interface{}{
			"file_name": doc.Filename,
			"provider":  p.extractor.GetProviderName(),
			"error":     err.Error(),
		})
		return nil, err
	}

	result.Provider = p.extractor.GetProviderName()
	result.ProcessingTime = time.Since(startTime)

	logger.Info("CV extraction completed", map[string]interface{}{
		"file_name":        doc.Filename,
		"provider":         result.Provider,
		"is_valid":         result.Validation.IsValid,
		"validation_count": len(result.Validation.Errors),
		"warning_count":    len(result.Warnings),
		"work_experiences": len(result.Profile.WorkExperience),
		"skills":           len(result.Profile.Skills),
		"processing_time":  result.ProcessingTime.String(),
	})

	return result, nil
}

// NormalizeText runs recovery, normalization and validation on text that
// already holds model output, without calling the model
func (p *Pipeline) NormalizeText(text string) (*Result, error) {
	startTime := time.Now()
	result, err := p.fromText(text)
	if err != nil {
		return nil, err
	}
	result.Provider = "none"
	result.ProcessingTime = time.Since(startTime)
	return result, nil
}

// Validate checks an edited profile
func (p *Pipeline) Validate(profile *models.UnifiedProfileData) models.ValidationResult {
	return p.validator.Validate(profile)
}

func (p *Pipeline) fromText(text string) (*Result, error) {
	data, err := recovery.Parse(text)
	if err != nil {
		return nil, err
	}

	warnings := []string{}
	for _, diag := range prompt.CheckConformance(data.Raw()) {
		warnings = append(warnings, "schema: "+diag)
	}

	profile, report := p.normalizer.Normalize(data)
	warnings = append(warnings, report.Warnings()...)

	result := &Result{
		Profile:       profile,
		Warnings:      warnings,
		PromptVersion: prompt.PromptVersion,
	}

	if p.classifier != nil {
		if profile.Industry == "" {
			profile.Industry = p.classifier.ClassifyIndustry(profile)
		}
		result.SkillCategories = p.classifier.CategorizeSkills(profile.Skills)
	}

	result.Validation = p.validator.Validate(profile)
	return result, nil
}
