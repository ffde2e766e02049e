package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobportal-cv/internal/config"
	"jobportal-cv/internal/cv"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/logging"
)

// Task manager configuration constants
const (
	// Default configuration values
	DefaultMaxWorkers   = 10
	DefaultMaxQueueSize = 100

	// Minimum configuration values to prevent misconfiguration
	MinWorkers   = 1
	MinQueueSize = 1

	// Maximum configuration values for safety
	MaxWorkers   = 1000
	MaxQueueSize = 10000
)

// Processor runs one CV through the extraction pipeline
type Processor interface {
	Process(ctx context.Context, doc *document.EncodedDocument) (*cv.Result, error)
}

// FinalizeFunc runs after a successful extraction and may enrich the task
// data. An error fails the task.
type FinalizeFunc func(ctx context.Context, result *cv.Result, data *ExtractionTaskData) error

// ExtractionJob is one queued CV extraction
type ExtractionJob struct {
	Document    *document.EncodedDocument
	CandidateID string
	SessionID   string
	Finalize    FinalizeFunc
}

// TaskManager defines the interface for managing background tasks
type TaskManager interface {
	// Start starts the task manager
	Start(ctx context.Context) error

	// Stop stops the task manager gracefully
	Stop(ctx context.Context) error

	// SubmitExtractionTask queues a CV extraction for background processing
	SubmitExtractionTask(ctx context.Context, processID string, job ExtractionJob) error

	// GetTaskResult retrieves the result of a task by process ID
	GetTaskResult(ctx context.Context, processID string) (*TaskResult, error)

	// GetTaskStatus retrieves the status of a task by process ID
	GetTaskStatus(ctx context.Context, processID string) (TaskStatus, error)

	// ListTasks lists all active tasks (for monitoring)
	ListTasks(ctx context.Context) ([]*TaskResult, error)

	// IsHealthy checks if the task manager is healthy
	IsHealthy() bool
}

// ManagerOption customizes a TaskManagerImpl
type ManagerOption func(*TaskManagerImpl)

// WithStore replaces the in-memory task store
func WithStore(store TaskStore) ManagerOption {
	return func(tm *TaskManagerImpl) {
		tm.store = store
	}
}

// WithCompletionLogger replaces the completion logger, e.g. to add a webhook
func WithCompletionLogger(l *TaskCompletionLogger) ManagerOption {
	return func(tm *TaskManagerImpl) {
		tm.logger = l
	}
}

// TaskManagerImpl implements the TaskManager interface
type TaskManagerImpl struct {
	config          *config.Config
	processor       Processor
	store           TaskStore
	logger          *TaskCompletionLogger
	appLogger       logging.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	running         bool
	taskChan        chan *TaskExecution
	maxWorkers      int
	maxQueueSize    int
	taskTimeout     time.Duration
	cleanupInterval time.Duration
	maxTaskAge      time.Duration
}

// TaskExecution represents a task execution context
type TaskExecution struct {
	ProcessID   string
	Type        TaskType
	Context     context.Context
	Cancel      context.CancelFunc
	ExecuteFunc func(context.Context) (interface{}, error)
}

// validateTaskManagerConfig validates and returns safe configuration values
func validateTaskManagerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.Workers.PoolSize
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers < MinWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) is below minimum (%d)", maxWorkers, MinWorkers)
	} else if maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) exceeds maximum (%d)", maxWorkers, MaxWorkers)
	}

	maxQueueSize = cfg.Workers.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize < MinQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) is below minimum (%d)", maxQueueSize, MinQueueSize)
	} else if maxQueueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) exceeds maximum (%d)", maxQueueSize, MaxQueueSize)
	}

	return maxWorkers, maxQueueSize, nil
}

// NewTaskManager creates a new task manager
func NewTaskManager(cfg *config.Config, processor Processor, opts ...ManagerOption) *TaskManagerImpl {
	logger := logging.GetGlobalLogger()

	maxWorkers, maxQueueSize, err := validateTaskManagerConfig(cfg)
	if err != nil {
		logger.Warn("Task manager configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	logger.Info("Task manager configuration initialized", map[string]interface{}{
		"max_workers":    maxWorkers,
		"max_queue_size": maxQueueSize,
		"using_defaults": err != nil,
	})

	tm := &TaskManagerImpl{
		config:          cfg,
		processor:       processor,
		store:           NewInMemoryTaskStore(),
		logger:          NewTaskCompletionLogger(),
		appLogger:       logger,
		maxWorkers:      maxWorkers,
		maxQueueSize:    maxQueueSize,
		taskChan:        make(chan *TaskExecution, maxQueueSize),
		taskTimeout:     positiveOr(cfg.BackgroundTasks.TaskTimeout, 5*time.Minute),
		cleanupInterval: positiveOr(cfg.BackgroundTasks.CleanupInterval, time.Hour),
		maxTaskAge:      positiveOr(cfg.BackgroundTasks.MaxTaskAge, 24*time.Hour),
	}

	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Start starts the task manager
func (tm *TaskManagerImpl) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.running = true

	for i := 0; i < tm.maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker(i)
	}

	tm.wg.Add(1)
	go tm.cleanupRoutine()

	tm.appLogger.Info("Task manager started", map[string]interface{}{
		"max_workers": tm.maxWorkers,
	})
	return nil
}

// Stop stops the task manager gracefully
func (tm *TaskManagerImpl) Stop(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if !tm.running {
		return nil
	}

	tm.appLogger.Info("Stopping task manager...", map[string]interface{}{})

	tm.cancel()
	close(tm.taskChan)

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.appLogger.Info("Task manager stopped gracefully", map[string]interface{}{})
	case <-ctx.Done():
		tm.appLogger.Warn("Task manager shutdown timed out", map[string]interface{}{})
	}

	// Workers exit on cancel; whatever is still queued never runs
	abandoned := 0
	for task := range tm.taskChan {
		tm.failQueuedTask(task)
		abandoned++
	}
	if abandoned > 0 {
		tm.appLogger.Warn("Queued tasks failed at shutdown", map[string]interface{}{
			"count": abandoned,
		})
	}

	tm.running = false
	return nil
}

// failQueuedTask records a task that was accepted but never picked up
func (tm *TaskManagerImpl) failQueuedTask(task *TaskExecution) {
	task.Cancel()

	result, err := tm.store.Get(context.Background(), task.ProcessID)
	if err != nil {
		return
	}

	completedAt := time.Now()
	result.Status = TaskStatusFailure
	result.Error = ErrShutdown.Error()
	result.Message = cv.UserMessage
	result.CompletedAt = &completedAt

	if err := tm.store.Update(context.Background(), result); err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      err.Error(),
		})
	}

	tm.logger.LogTaskError(task.ProcessID, task.Type, ErrShutdown)
	if err := tm.logger.LogTaskCompletion(result); err != nil {
		tm.appLogger.Error("Failed to log task completion", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      err.Error(),
		})
	}
}

// SubmitExtractionTask queues a CV extraction for background processing
func (tm *TaskManagerImpl) SubmitExtractionTask(ctx context.Context, processID string, job ExtractionJob) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.running || tm.ctx.Err() != nil {
		return ErrNotRunning
	}
	if job.Document == nil {
		return fmt.Errorf("extraction task requires a document")
	}
	if _, err := tm.store.Get(ctx, processID); err == nil {
		return ErrAlreadyExists
	}

	metadata := map[string]interface{}{
		"file_name":  job.Document.Filename,
		"size_bytes": job.Document.Size,
	}
	if job.CandidateID != "" {
		metadata["candidate_id"] = job.CandidateID
	}
	if job.SessionID != "" {
		metadata["session_id"] = job.SessionID
	}

	result := &TaskResult{
		ProcessID: processID,
		Type:      TaskTypeExtraction,
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	if err := tm.store.Store(ctx, result); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}

	tm.logger.LogTaskAccepted(processID, TaskTypeExtraction)

	taskCtx, cancelFunc := context.WithTimeout(tm.ctx, tm.taskTimeout)
	execution := &TaskExecution{
		ProcessID: processID,
		Type:      TaskTypeExtraction,
		Context:   taskCtx,
		Cancel:    cancelFunc,
		ExecuteFunc: func(execCtx context.Context) (interface{}, error) {
			return tm.executeExtractionTask(execCtx, job)
		},
	}

	select {
	case tm.taskChan <- execution:
		return nil
	case <-ctx.Done():
		cancelFunc()
		_ = tm.store.Delete(context.Background(), processID)
		return ctx.Err()
	default:
		cancelFunc()
		_ = tm.store.Delete(context.Background(), processID)
		return ErrQueueFull
	}
}

// GetTaskResult retrieves the result of a task by process ID
func (tm *TaskManagerImpl) GetTaskResult(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

// GetTaskStatus retrieves the status of a task by process ID
func (tm *TaskManagerImpl) GetTaskStatus(ctx context.Context, processID string) (TaskStatus, error) {
	result, err := tm.store.Get(ctx, processID)
	if err != nil {
		return "", err
	}
	return result.Status, nil
}

// ListTasks lists all active tasks (for monitoring)
func (tm *TaskManagerImpl) ListTasks(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

// IsHealthy checks if the task manager is healthy
func (tm *TaskManagerImpl) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx.Err() == nil
}

// worker processes tasks from the task channel
func (tm *TaskManagerImpl) worker(workerID int) {
	defer tm.wg.Done()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case task, ok := <-tm.taskChan:
			if !ok {
				return
			}
			tm.processTask(workerID, task)
		}
	}
}

// processTask processes a single task
func (tm *TaskManagerImpl) processTask(workerID int, task *TaskExecution) {
	defer task.Cancel()
	startTime := time.Now()

	if err := tm.updateTaskStatus(task.ProcessID, TaskStatusProcessing); err != nil {
		tm.appLogger.Error("Failed to update task status to processing", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      err.Error(),
		})
	}

	tm.logger.LogTaskStart(task.ProcessID, task.Type)

	data, err := task.ExecuteFunc(task.Context)
	processingTime := time.Since(startTime)
	completedAt := time.Now()

	result, getErr := tm.store.Get(context.Background(), task.ProcessID)
	if getErr != nil {
		tm.appLogger.Error("Failed to retrieve existing task result", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      getErr.Error(),
		})
		result = &TaskResult{
			ProcessID: task.ProcessID,
			Type:      task.Type,
			CreatedAt: startTime,
		}
	}
	result.ProcessingTime = &processingTime
	result.CompletedAt = &completedAt

	if err != nil {
		result.Status = TaskStatusFailure
		result.Error = err.Error()
		result.Message = cv.UserMessage
		if stage := cv.FailedStage(err); stage != "" {
			if result.Metadata == nil {
				result.Metadata = map[string]interface{}{}
			}
			result.Metadata["failed_stage"] = stage
		}
		tm.appLogger.Error("Task execution failed", map[string]interface{}{
			"worker_id":       workerID,
			"process_id":      task.ProcessID,
			"task_type":       task.Type,
			"processing_time": processingTime,
			"error":           err.Error(),
		})
		tm.logger.LogTaskError(task.ProcessID, task.Type, err)
	} else {
		result.Status = TaskStatusSuccess
		result.Data = data
		tm.logger.LogTaskSuccess(task.ProcessID, task.Type, processingTime)
	}

	if getErr != nil {
		err = tm.store.Store(context.Background(), result)
	} else {
		err = tm.store.Update(context.Background(), result)
	}
	if err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      err.Error(),
		})
	}

	if err := tm.logger.LogTaskCompletion(result); err != nil {
		tm.appLogger.Error("Failed to log task completion", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      err.Error(),
		})
	}
}

// updateTaskStatus updates the status of a task
func (tm *TaskManagerImpl) updateTaskStatus(processID string, status TaskStatus) error {
	result, err := tm.store.Get(context.Background(), processID)
	if err != nil {
		return err
	}

	result.Status = status
	return tm.store.Update(context.Background(), result)
}

// cleanupRoutine periodically cleans up old task results
func (tm *TaskManagerImpl) cleanupRoutine() {
	defer tm.wg.Done()

	ticker := time.NewTicker(tm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			if err := tm.store.Cleanup(context.Background(), tm.maxTaskAge); err != nil {
				tm.appLogger.Error("Failed to cleanup old task results", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// executeExtractionTask runs the pipeline and the job's finalizer
func (tm *TaskManagerImpl) executeExtractionTask(ctx context.Context, job ExtractionJob) (interface{}, error) {
	res, err := tm.processor.Process(ctx, job.Document)
	if err != nil {
		return nil, err
	}

	data := &ExtractionTaskData{
		Profile:         res.Profile,
		Validation:      res.Validation,
		Warnings:        res.Warnings,
		SkillCategories: res.SkillCategories,
		PromptVersion:   res.PromptVersion,
		Provider:        res.Provider,
		SessionID:       job.SessionID,
	}

	if job.Finalize != nil {
		if err := job.Finalize(ctx, res, data); err != nil {
			return nil, err
		}
	}

	return data, nil
}
