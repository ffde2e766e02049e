package background

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"jobportal-cv/internal/callback"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/utils"
)

// CompletionNotifier delivers finished tasks to an external webhook
type CompletionNotifier interface {
	NotifyTaskCompletion(ctx context.Context, payload *callback.TaskCompletion) error
}

// TaskCompletionLogger handles structured logging for task completion
type TaskCompletionLogger struct {
	logger          logging.Logger
	out             io.Writer
	notifier        CompletionNotifier
	callbackTimeout time.Duration
}

// NewTaskCompletionLogger creates a new task completion logger
func NewTaskCompletionLogger() *TaskCompletionLogger {
	return &TaskCompletionLogger{
		logger:          logging.GetGlobalLogger(),
		out:             os.Stdout,
		callbackTimeout: 30 * time.Second,
	}
}

// NewTaskCompletionLoggerWithCallback creates a task completion logger that
// also notifies the webhook
func NewTaskCompletionLoggerWithCallback(notifier CompletionNotifier) *TaskCompletionLogger {
	l := NewTaskCompletionLogger()
	l.notifier = notifier
	return l
}

// TaskCompletionLog represents the structured log entry for task completion
type TaskCompletionLog struct {
	ProcessID      string                 `json:"processId"`
	Status         string                 `json:"status"`
	Data           interface{}            `json:"data,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	Operation      string                 `json:"operation"`
	ProcessingTime string                 `json:"processing_time"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// LogTaskCompletion writes the completion record as one JSON line and sends
// the webhook when one is configured. A failed webhook is logged, not returned.
func (l *TaskCompletionLogger) LogTaskCompletion(result *TaskResult) error {
	entry := CreateTaskCompletionLog(result)

	jsonData, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("Failed to marshal task completion log", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to marshal task completion log: %w", err)
	}

	if _, err := l.out.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write task completion log: %w", err)
	}

	l.logger.Info("Background task completed", map[string]interface{}{
		"process_id":      result.ProcessID,
		"status":          result.Status,
		"operation":       result.Type,
		"processing_time": entry.ProcessingTime,
	})

	if l.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), l.callbackTimeout)
		defer cancel()

		payload := &callback.TaskCompletion{
			ProcessID:      entry.ProcessID,
			Status:         entry.Status,
			Operation:      entry.Operation,
			Data:           entry.Data,
			Error:          entry.Error,
			Timestamp:      entry.Timestamp,
			ProcessingTime: entry.ProcessingTime,
			Metadata:       entry.Metadata,
		}
		if err := l.notifier.NotifyTaskCompletion(ctx, payload); err != nil {
			l.logger.Error("Failed to send task callback", map[string]interface{}{
				"process_id": result.ProcessID,
				"error":      err.Error(),
			})
		}
	}

	return nil
}

// LogTaskStart logs when a task starts processing
func (l *TaskCompletionLogger) LogTaskStart(processID string, taskType TaskType) {
	l.logger.Info("Background task started", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     TaskStatusProcessing,
	})
}

// LogTaskAccepted logs when a task is accepted for processing
func (l *TaskCompletionLogger) LogTaskAccepted(processID string, taskType TaskType) {
	l.logger.Info("Background task accepted", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     TaskStatusAccepted,
	})
}

// LogTaskError logs task errors during processing
func (l *TaskCompletionLogger) LogTaskError(processID string, taskType TaskType, err error) {
	l.logger.Error("Background task failed", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     TaskStatusFailure,
		"error":      err.Error(),
	})
}

// LogTaskSuccess logs successful task completion
func (l *TaskCompletionLogger) LogTaskSuccess(processID string, taskType TaskType, processingTime time.Duration) {
	l.logger.Info("Background task completed successfully", map[string]interface{}{
		"process_id":      processID,
		"operation":       taskType,
		"status":          TaskStatusSuccess,
		"processing_time": processingTime,
	})
}

// CreateTaskCompletionLog creates a TaskCompletionLog from a TaskResult
func CreateTaskCompletionLog(result *TaskResult) *TaskCompletionLog {
	processingTime := "0s"
	if result.ProcessingTime != nil {
		processingTime = utils.FormatDuration(*result.ProcessingTime)
	}

	return &TaskCompletionLog{
		ProcessID:      result.ProcessID,
		Status:         string(result.Status),
		Data:           result.Data,
		Error:          result.Error,
		Timestamp:      time.Now(),
		Operation:      string(result.Type),
		ProcessingTime: processingTime,
		Metadata:       result.Metadata,
	}
}
