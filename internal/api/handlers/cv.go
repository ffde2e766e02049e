package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/background"
	"jobportal-cv/internal/cv"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

// UploadField is the multipart field carrying the CV
const UploadField = "file"

// Stable error codes for terminal pipeline failures
const (
	CodeEncodingFailed   = "ENCODING_FAILED"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeParseFailed      = "PARSE_FAILED"
	CodeProcessingFailed = "PROCESSING_FAILED"
)

// CVPipeline is the part of cv.Pipeline the handlers use
type CVPipeline interface {
	Process(ctx context.Context, doc *document.EncodedDocument) (*cv.Result, error)
	NormalizeText(text string) (*cv.Result, error)
	Validate(profile *models.UnifiedProfileData) models.ValidationResult
}

// Archiver stores an uploaded CV and returns its URL
type Archiver interface {
	UploadCV(ownerID, filename, contentType string, data []byte) (string, error)
}

// readUpload reads the multipart file through the guard and encodes it
func readUpload(c echo.Context, guard *document.Guard) (*document.EncodedDocument, error) {
	fileHeader, err := c.FormFile(UploadField)
	if err != nil {
		return nil, utils.NewBadRequestError("A CV file is required in the \"" + UploadField + "\" field")
	}
	if fileHeader.Size > guard.MaxSizeBytes() {
		return nil, document.ErrTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, &document.EncodingError{Err: err}
	}
	defer file.Close()

	raw, err := guard.ReadLimited(file)
	if err != nil {
		return nil, err
	}

	admission, err := guard.Check(raw)
	if err != nil {
		return nil, err
	}

	return document.EncodeBytes(raw, fileHeader.Filename, admission.MIMEType), nil
}

// uploadError maps admission failures to HTTP errors
func uploadError(err error) *utils.CustomError {
	var custom *utils.CustomError
	var encErr *document.EncodingError
	switch {
	case errors.As(err, &custom):
		return custom
	case errors.Is(err, document.ErrTooLarge):
		return utils.NewPayloadTooLargeError(err.Error())
	case errors.Is(err, document.ErrUnsupportedType):
		return utils.NewUnsupportedMediaError(err.Error())
	case errors.Is(err, document.ErrEmptyDocument), errors.Is(err, document.ErrTooManyPages):
		return utils.NewValidationError(err.Error())
	case errors.As(err, &encErr):
		return utils.NewBadRequestError("The uploaded file could not be read")
	default:
		return utils.NewBadRequestError(err.Error())
	}
}

// respondError writes a CustomError as an ErrorResponse
func respondError(c echo.Context, err *utils.CustomError) error {
	return c.JSON(err.Code, models.ErrorResponse{
		Error:     err.Message,
		Message:   err.Error(),
		RequestID: middleware.RequestID(c),
		Timestamp: time.Now(),
	})
}

// pipelineFailureCode returns the stable code for a failed stage
func pipelineFailureCode(err error) string {
	switch cv.FailedStage(err) {
	case cv.StageEncoding:
		return CodeEncodingFailed
	case cv.StageExtraction:
		return CodeExtractionFailed
	case cv.StageParsing:
		return CodeParseFailed
	default:
		return CodeProcessingFailed
	}
}

// respondPipelineError reports a terminal failure with the candidate-facing
// message; the cause goes to the log and the detail field
func respondPipelineError(c echo.Context, err error) error {
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	return c.JSON(status, models.CVFailureResponse{
		Status:    "failure",
		Error:     pipelineFailureCode(err),
		Message:   cv.UserMessage,
		Detail:    err.Error(),
		RequestID: middleware.RequestID(c),
		Timestamp: time.Now(),
	})
}

// archiveCV stores the upload when an archiver is configured. Failures are
// logged and reported as a warning; extraction still succeeds.
func archiveCV(archiver Archiver, ownerID string, doc *document.EncodedDocument, logger logging.Logger) (*models.CVDocument, error) {
	if archiver == nil {
		return nil, nil
	}

	url, err := archiver.UploadCV(ownerID, doc.Filename, doc.MIMEType, doc.Raw)
	if err != nil {
		logger.Warn("CV archive failed", map[string]interface{}{
			"file_name": doc.Filename,
			"error":     err.Error(),
		})
		return nil, err
	}

	return &models.CVDocument{
		FileName:   doc.Filename,
		FileURL:    url,
		MIMEType:   doc.MIMEType,
		SizeBytes:  doc.Size,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// ExtractCVHandler handles POST /api/v1/cv/extract synchronously
func ExtractCVHandler(pipeline CVPipeline, guard *document.Guard, archiver Archiver) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		doc, err := readUpload(c, guard)
		if err != nil {
			logger.Warn("CV upload rejected", map[string]interface{}{
				"error": err.Error(),
			})
			return respondError(c, uploadError(err))
		}

		logger.Info("Processing CV extraction request", map[string]interface{}{
			"file_name":  doc.Filename,
			"size_bytes": doc.Size,
		})

		result, err := pipeline.Process(c.Request().Context(), doc)
		if err != nil {
			logger.Error("CV extraction failed", map[string]interface{}{
				"stage": cv.FailedStage(err),
				"error": err.Error(),
			})
			return respondPipelineError(c, err)
		}

		warnings := result.Warnings
		if archived, err := archiveCV(archiver, middleware.CandidateID(c), doc, logger); err != nil {
			warnings = append(warnings, "cv archive failed: "+err.Error())
		} else if archived != nil {
			result.Profile.CVDocuments = append(result.Profile.CVDocuments, *archived)
		}

		return c.JSON(http.StatusOK, models.CVExtractionResponse{
			Status:          "success",
			Profile:         result.Profile,
			Validation:      result.Validation,
			Warnings:        warnings,
			SkillCategories: result.SkillCategories,
			PromptVersion:   result.PromptVersion,
			Provider:        result.Provider,
			ProcessingTime:  result.ProcessingTime,
			RequestID:       requestID,
		})
	}
}

// ExtractCVAsyncHandler handles POST /api/v1/cv/extract/async
func ExtractCVAsyncHandler(taskManager background.TaskManager, guard *document.Guard, archiver Archiver) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		doc, err := readUpload(c, guard)
		if err != nil {
			logger.Warn("CV upload rejected", map[string]interface{}{
				"error": err.Error(),
			})
			return respondError(c, uploadError(err))
		}

		processID := utils.GenerateExtractionProcessID()
		candidateID := middleware.CandidateID(c)

		job := background.ExtractionJob{
			Document:    doc,
			CandidateID: candidateID,
			Finalize: func(ctx context.Context, result *cv.Result, data *background.ExtractionTaskData) error {
				archived, err := archiveCV(archiver, candidateID, doc, logger)
				if err != nil {
					data.Warnings = append(data.Warnings, "cv archive failed: "+err.Error())
					return nil
				}
				if archived != nil {
					data.Profile.CVDocuments = append(data.Profile.CVDocuments, *archived)
					data.DocumentURL = archived.FileURL
				}
				return nil
			},
		}

		if err := taskManager.SubmitExtractionTask(c.Request().Context(), processID, job); err != nil {
			logger.Error("Failed to submit background extraction task", map[string]interface{}{
				"process_id": processID,
				"error":      err.Error(),
			})
			status := http.StatusInternalServerError
			if errors.Is(err, background.ErrQueueFull) || errors.Is(err, background.ErrNotRunning) {
				status = http.StatusServiceUnavailable
			}
			return c.JSON(status, models.CreateAsyncErrorResponse(
				"task_submission_failed",
				"Failed to submit CV extraction task: "+err.Error(),
				processID,
			))
		}

		logger.Info("CV extraction task submitted for background processing", map[string]interface{}{
			"process_id": processID,
			"file_name":  doc.Filename,
		})

		return c.JSON(http.StatusAccepted, models.CreateAsyncExtractionResponse(processID))
	}
}
