package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobportal-cv/internal/api/handlers"
	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/api/routes"
	"jobportal-cv/internal/background"
	"jobportal-cv/internal/callback"
	"jobportal-cv/internal/classify"
	"jobportal-cv/internal/config"
	"jobportal-cv/internal/cv"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/cv/validate"
	"jobportal-cv/internal/form"
	"jobportal-cv/internal/llm"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/utils"

	"github.com/labstack/echo/v4"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting CV extraction service", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	})

	// Initialize LLM manager
	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(); err != nil {
		logger.Fatal("Failed to start LLM manager", map[string]interface{}{"error": err.Error()})
	}

	pipeline := cv.NewPipeline(llmManager, cv.WithClassifier(classify.NewDefaultClassifier()))
	guard := document.NewGuard(document.GuardConfig{
		MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		MaxPages:     cfg.Upload.MaxPages,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	checks := handlers.HealthChecks{
		"llm": llmManager.CheckHealth,
	}

	// Outbound profile API and task webhook
	callbackClient := callback.NewClient(cfg)
	var submitter form.Submitter
	if callbackClient.ProfileAPIConfigured() {
		submitter = callbackClient
	} else {
		logger.Warn("Profile API is not configured, submitted profiles will only be logged")
	}

	completionLogger := background.NewTaskCompletionLogger()
	if callbackClient.CallbacksEnabled() {
		completionLogger = background.NewTaskCompletionLoggerWithCallback(callbackClient)
	}

	// Initialize background task manager
	taskManager := background.NewTaskManager(cfg, pipeline, background.WithCompletionLogger(completionLogger))
	if err := taskManager.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start task manager", map[string]interface{}{"error": err.Error()})
	}
	checks["tasks"] = func(context.Context) error {
		if !taskManager.IsHealthy() {
			return errors.New("task manager is not running")
		}
		return nil
	}

	// Form session store
	var store form.Store
	var redisClient *utils.RedisClient
	stopSweep := make(chan struct{})
	switch cfg.Form.Store {
	case "redis":
		redisClient = utils.NewRedisClient(cfg)
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
		err := redisClient.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		store = form.NewRedisStore(redisClient, cfg.Form.SessionTTL)
		checks["redis"] = redisClient.IsHealthy
	default:
		memoryStore := form.NewMemoryStore()
		store = memoryStore
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if removed := memoryStore.Sweep(); removed > 0 {
						logger.Debug("Expired form sessions removed", map[string]interface{}{"count": removed})
					}
				case <-stopSweep:
					return
				}
			}
		}()
	}
	forms := form.NewService(store, validate.New(), submitter, cfg.Form.SessionTTL)

	// Optional CV archive
	var archiver handlers.Archiver
	if cfg.Upload.ArchiveCV {
		if !cfg.SpacesConfigured() {
			logger.Warn("CV archiving requested but Spaces is not configured")
		} else {
			spaces, err := utils.NewSpacesClient(cfg)
			if err != nil {
				logger.Fatal("Failed to create Spaces client", map[string]interface{}{"error": err.Error()})
			}
			archiver = spaces
			checks["spaces"] = func(context.Context) error {
				if !spaces.IsHealthy() {
					return errors.New("bucket is not reachable")
				}
				return nil
			}
		}
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		rateLimiter.StartCleanup(5 * time.Minute)
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Pipeline:    pipeline,
		Guard:       guard,
		TaskManager: taskManager,
		Forms:       forms,
		Archiver:    archiver,
		RateLimiter: rateLimiter,
		Checks:      checks,
	})

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Stop accepting requests before draining background work
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		if err := taskManager.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
		}

		if rateLimiter != nil {
			rateLimiter.Stop()
		}
		close(stopSweep)

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error("Error closing Redis client", map[string]interface{}{"error": err.Error()})
			}
		}

		if err := llmManager.Stop(); err != nil {
			logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}
	<-shutdownDone
}
