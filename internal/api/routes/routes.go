package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobportal-cv/internal/api/handlers"
	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/background"
	"jobportal-cv/internal/config"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/form"
)

// multipartOverhead is allowed on top of the file size limit for upload routes
const multipartOverhead int64 = 1024 * 1024

// Dependencies are the services the API is built on. Archiver and
// RateLimiter may be nil.
type Dependencies struct {
	Pipeline    handlers.CVPipeline
	Guard       *document.Guard
	TaskManager background.TaskManager
	Forms       *form.Service
	Archiver    handlers.Archiver
	RateLimiter *middleware.RateLimiter
	Checks      handlers.HealthChecks
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestValidation(middleware.DefaultMaxBodyBytes))
	e.Use(middleware.CORSConfig())
	// synchronous extraction waits on the model, so it gets the LLM timeout plus slack
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.LLM.Timeout+30*time.Second))

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Checks))
		health.GET("/live", handlers.LivenessHandler)
	}

	e.GET("/status", handlers.StatusHandler(deps.Checks))

	uploadLimit := echomiddleware.BodyLimit(fmt.Sprintf("%dK", (deps.Guard.MaxSizeBytes()+multipartOverhead)/1024))
	extractionGuards := []echo.MiddlewareFunc{uploadLimit}
	if deps.RateLimiter != nil {
		extractionGuards = append(extractionGuards, deps.RateLimiter.Middleware())
	}

	v1 := e.Group("/api/v1", middleware.JWTAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
	{
		cv := v1.Group("/cv")
		{
			cv.POST("/extract", handlers.ExtractCVHandler(deps.Pipeline, deps.Guard, deps.Archiver), extractionGuards...)
			cv.POST("/extract/async", handlers.ExtractCVAsyncHandler(deps.TaskManager, deps.Guard, deps.Archiver), extractionGuards...)
		}

		v1.GET("/tasks/:processId", handlers.TaskStatusHandler(deps.TaskManager))

		profile := v1.Group("/profile")
		{
			profile.POST("/validate", handlers.ValidateProfileHandler(deps.Pipeline))
			profile.POST("/normalize", handlers.NormalizeProfileHandler(deps.Pipeline))
		}

		forms := v1.Group("/forms")
		{
			forms.POST("", handlers.CreateFormHandler(deps.Forms))
			forms.GET("/:id", handlers.GetFormHandler(deps.Forms))
			forms.DELETE("/:id", handlers.DeleteFormHandler(deps.Forms))
			forms.POST("/:id/cv", handlers.UploadFormCVHandler(deps.Forms, deps.Pipeline, deps.Guard, deps.Archiver), extractionGuards...)
			forms.PUT("/:id/steps/:step", handlers.UpdateFormStepHandler(deps.Forms))
			forms.POST("/:id/submit", handlers.SubmitFormHandler(deps.Forms))
		}
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "jobportal-cv",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
