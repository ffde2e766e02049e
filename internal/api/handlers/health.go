package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"jobportal-cv/internal/api/middleware"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"

	"github.com/labstack/echo/v4"
)

// Version is reported by the health endpoints
var Version = "1.0.0"

var startTime = time.Now()

// HealthCheck reports an error when a dependency is unavailable
type HealthCheck func(ctx context.Context) error

// HealthChecks names the dependencies probed by readiness
type HealthChecks map[string]HealthCheck

// run probes every dependency and reports whether all passed
func (hc HealthChecks) run(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(hc))
	for name := range hc {
		names = append(names, name)
	}
	sort.Strings(names)

	results := map[string]string{"api": "ok"}
	healthy := true
	for _, name := range names {
		if err := hc[name](ctx); err != nil {
			results[name] = "unavailable: " + err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}
	return results, healthy
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	logging.GetGlobalLogger().Debug("Health check requested", map[string]interface{}{
		"request_id": middleware.RequestID(c),
	})

	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	})
}

// ReadinessHandler reports ready only when every dependency passes
func ReadinessHandler(checks HealthChecks) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		results, healthy := checks.run(ctx)

		status, code := "ready", http.StatusOK
		if !healthy {
			status, code = "not_ready", http.StatusServiceUnavailable
			logging.GetGlobalLogger().Warn("Readiness check failed", map[string]interface{}{
				"request_id": middleware.RequestID(c),
				"checks":     results,
			})
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    results,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// StatusHandler reports every dependency without failing the request
func StatusHandler(checks HealthChecks) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		results, healthy := checks.run(ctx)
		status := "operational"
		if !healthy {
			status = "degraded"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    results,
		})
	}
}
