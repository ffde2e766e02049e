package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/api/validation"
	"jobportal-cv/internal/cv"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/form"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

var requestValidator = validation.New()

// formError maps form state errors to HTTP errors
func formError(err error) *utils.CustomError {
	switch {
	case errors.Is(err, form.ErrSessionNotFound):
		return utils.NewNotFoundError("Form session not found")
	case errors.Is(err, form.ErrVersionConflict):
		return &utils.CustomError{Code: http.StatusConflict, Message: "Version conflict", Detail: err.Error()}
	case errors.Is(err, form.ErrAlreadySubmitted):
		return utils.NewConflictError("Form session was already submitted")
	case errors.Is(err, form.ErrSubmitInProgress):
		return utils.NewConflictError("Form session is being submitted")
	case errors.Is(err, form.ErrUnknownStep):
		return utils.NewNotFoundError("Unknown form step")
	case errors.Is(err, form.ErrInvalidPayload):
		return utils.NewValidationError(err.Error())
	default:
		return utils.NewInternalServerError(err.Error())
	}
}

// bindAndValidate binds the body into req and runs the request validators
func bindAndValidate(c echo.Context, req interface{}) *utils.CustomError {
	if err := c.Bind(req); err != nil {
		return utils.NewBadRequestError("Invalid request body")
	}
	if err := requestValidator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return utils.NewValidationError(fieldErrs[0].Field() + " is invalid")
		}
		return utils.NewValidationError(err.Error())
	}
	return nil
}

// loadOwnedSession returns the session if the caller may act on it. Sessions
// owned by another candidate are reported as missing.
func loadOwnedSession(c echo.Context, svc *form.Service) (*form.Session, *utils.CustomError) {
	session, err := svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, formError(err)
	}
	if caller := middleware.CandidateID(c); caller != "" && session.CandidateID != caller {
		return nil, formError(form.ErrSessionNotFound)
	}
	return session, nil
}

// CreateFormHandler handles POST /api/v1/forms
func CreateFormHandler(svc *form.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.CreateFormSessionRequest
		if cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, cerr)
		}

		candidateID := req.CandidateID
		if caller := middleware.CandidateID(c); caller != "" {
			candidateID = caller
		}

		session, err := svc.Create(c.Request().Context(), candidateID, req.Profile)
		if err != nil {
			return respondError(c, formError(err))
		}
		return c.JSON(http.StatusCreated, session)
	}
}

// GetFormHandler handles GET /api/v1/forms/:id
func GetFormHandler(svc *form.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, cerr := loadOwnedSession(c, svc)
		if cerr != nil {
			return respondError(c, cerr)
		}
		return c.JSON(http.StatusOK, session)
	}
}

// UpdateFormStepHandler handles PUT /api/v1/forms/:id/steps/:step
func UpdateFormStepHandler(svc *form.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		step, err := form.ParseStep(c.Param("step"))
		if err != nil {
			return respondError(c, formError(err))
		}

		var req models.FormStepRequest
		if cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, cerr)
		}

		if _, cerr := loadOwnedSession(c, svc); cerr != nil {
			return respondError(c, cerr)
		}

		session, err := svc.UpdateStep(c.Request().Context(), c.Param("id"), step, req.ExpectedVersion, req.Data)
		if err != nil {
			return respondError(c, formError(err))
		}
		return c.JSON(http.StatusOK, session)
	}
}

// UploadFormCVHandler handles POST /api/v1/forms/:id/cv. The session is only
// touched when extraction succeeds.
func UploadFormCVHandler(svc *form.Service, pipeline CVPipeline, guard *document.Guard, archiver Archiver) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.GetGlobalLogger()

		current, cerr := loadOwnedSession(c, svc)
		if cerr != nil {
			return respondError(c, cerr)
		}
		if err := current.Editable(); err != nil {
			return respondError(c, formError(err))
		}

		doc, err := readUpload(c, guard)
		if err != nil {
			return respondError(c, uploadError(err))
		}

		result, err := pipeline.Process(c.Request().Context(), doc)
		if err != nil {
			logger.Error("Form CV extraction failed", map[string]interface{}{
				"request_id": requestID,
				"session_id": current.ID,
				"stage":      cv.FailedStage(err),
				"error":      err.Error(),
			})
			return respondPipelineError(c, err)
		}

		warnings := append([]string{}, result.Warnings...)
		if archived, err := archiveCV(archiver, current.CandidateID, doc, logger); err != nil {
			warnings = append(warnings, "cv archive failed: "+err.Error())
		} else if archived != nil {
			result.Profile.CVDocuments = append(result.Profile.CVDocuments, *archived)
		}

		session, err := svc.ApplyExtraction(c.Request().Context(), current.ID, result.Profile, form.ExtractionInfo{
			FileName:      doc.Filename,
			Provider:      result.Provider,
			PromptVersion: result.PromptVersion,
			Warnings:      warnings,
		})
		if err != nil {
			return respondError(c, formError(err))
		}
		return c.JSON(http.StatusOK, session)
	}
}

// SubmitFormHandler handles POST /api/v1/forms/:id/submit
func SubmitFormHandler(svc *form.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.SubmitFormRequest
		if cerr := bindAndValidate(c, &req); cerr != nil {
			return respondError(c, cerr)
		}

		if _, cerr := loadOwnedSession(c, svc); cerr != nil {
			return respondError(c, cerr)
		}

		session, err := svc.Submit(c.Request().Context(), c.Param("id"), req.ExpectedVersion)
		if errors.Is(err, form.ErrProfileInvalid) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error":      "profile_invalid",
				"message":    "Please fix the highlighted fields before submitting",
				"validation": session.Validation,
				"request_id": middleware.RequestID(c),
				"timestamp":  time.Now(),
			})
		}
		if err != nil {
			if errors.Is(err, form.ErrSessionNotFound) || errors.Is(err, form.ErrVersionConflict) ||
				errors.Is(err, form.ErrAlreadySubmitted) || errors.Is(err, form.ErrSubmitInProgress) {
				return respondError(c, formError(err))
			}
			return respondError(c, &utils.CustomError{Code: http.StatusBadGateway, Message: "Profile submission failed", Detail: err.Error()})
		}
		return c.JSON(http.StatusOK, session)
	}
}

// DeleteFormHandler handles DELETE /api/v1/forms/:id
func DeleteFormHandler(svc *form.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, cerr := loadOwnedSession(c, svc); cerr != nil {
			return respondError(c, cerr)
		}
		if err := svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
			return respondError(c, formError(err))
		}
		return c.NoContent(http.StatusNoContent)
	}
}
