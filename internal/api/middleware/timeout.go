package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig returns timeout middleware configuration
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      timeout,
		ErrorMessage: "request timed out",
	})
}

// SelectiveTimeoutConfig applies the long timeout to synchronous extraction
// routes, which wait on the model, and the default timeout everywhere else
func SelectiveTimeoutConfig(defaultTimeout, extractionTimeout time.Duration) echo.MiddlewareFunc {
	short := TimeoutConfig(defaultTimeout)
	long := TimeoutConfig(extractionTimeout)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		shortNext := short(next)
		longNext := long(next)
		return func(c echo.Context) error {
			if isExtractionRoute(c.Path()) {
				return longNext(c)
			}
			return shortNext(c)
		}
	}
}

func isExtractionRoute(path string) bool {
	return path == "/api/v1/cv/extract" || (strings.HasPrefix(path, "/api/v1/forms/") && strings.HasSuffix(path, "/cv"))
}
