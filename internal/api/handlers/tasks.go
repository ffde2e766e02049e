package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"jobportal-cv/internal/api/validation"
	"jobportal-cv/internal/background"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

// TaskStatusHandler handles GET /api/v1/tasks/:processId
func TaskStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		processID := c.Param("processId")
		if !validation.ProcessIDPattern.MatchString(processID) {
			return respondError(c, utils.NewValidationError("processId is malformed"))
		}

		result, err := taskManager.GetTaskResult(c.Request().Context(), processID)
		if err != nil {
			if errors.Is(err, background.ErrTaskNotFound) {
				return respondError(c, utils.NewNotFoundError("Task not found"))
			}
			return respondError(c, utils.NewInternalServerError(err.Error()))
		}

		response := models.AsyncTaskStatusResponse{
			ProcessID:      result.ProcessID,
			Status:         models.AsyncStatus(result.Status),
			Data:           result.Data,
			Error:          result.Error,
			Message:        result.Message,
			CreatedAt:      result.CreatedAt,
			CompletedAt:    result.CompletedAt,
			ProcessingTime: result.ProcessingTime,
			Metadata:       result.Metadata,
		}
		return c.JSON(http.StatusOK, response)
	}
}
