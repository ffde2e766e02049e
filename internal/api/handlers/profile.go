package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/cv/recovery"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

// ValidateProfileHandler handles POST /api/v1/profile/validate
func ValidateProfileHandler(pipeline CVPipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		var profile models.UnifiedProfileData
		if err := c.Bind(&profile); err != nil {
			return respondError(c, utils.NewBadRequestError("Invalid profile body: "+err.Error()))
		}

		return c.JSON(http.StatusOK, models.ProfileValidationResponse{
			Validation: pipeline.Validate(&profile),
			RequestID:  middleware.RequestID(c),
		})
	}
}

// NormalizeProfileHandler handles POST /api/v1/profile/normalize. The body is
// either {"raw_text": "..."}, {"extracted": {...}} or a bare extracted object.
func NormalizeProfileHandler(pipeline CVPipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.GetGlobalLogger()

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return respondError(c, utils.NewBadRequestError("Failed to read request body"))
		}

		text := normalizeInput(body)
		if text == "" {
			return respondError(c, utils.NewValidationError("raw_text or extracted is required"))
		}

		result, err := pipeline.NormalizeText(text)
		if err != nil {
			logger.Warn("Profile normalization failed", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			var parseErr *recovery.ParseError
			if errors.As(err, &parseErr) {
				return c.JSON(http.StatusUnprocessableEntity, models.CVFailureResponse{
					Status:    "failure",
					Error:     CodeParseFailed,
					Message:   parseErr.Reason,
					Detail:    parseErr.Error(),
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
			return respondError(c, utils.NewInternalServerError(err.Error()))
		}

		return c.JSON(http.StatusOK, models.ProfileNormalizationResponse{
			Profile:    result.Profile,
			Validation: result.Validation,
			Warnings:   result.Warnings,
			RequestID:  requestID,
		})
	}
}

// normalizeInput picks the text to recover from a normalize request body
func normalizeInput(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var req models.NormalizeRequest
	if err := json.Unmarshal(trimmed, &req); err == nil {
		if req.RawText != "" {
			return req.RawText
		}
		if len(bytes.TrimSpace(req.Extracted)) > 0 {
			return string(req.Extracted)
		}
	}

	return string(trimmed)
}
