package middleware

import (
	"net/http"
	"strings"
	"time"

	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"

	"github.com/labstack/echo/v4"
)

// RequestIDKey is the echo context key holding the request id
const RequestIDKey = "request_id"

// DefaultMaxBodyBytes bounds JSON request bodies
const DefaultMaxBodyBytes int64 = 1024 * 1024

// RequestValidation assigns a request id and rejects bodies larger than
// maxBody. Multipart uploads are bounded by the upload guard instead.
func RequestValidation(maxBody int64) echo.MiddlewareFunc {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" || len(requestID) > 128 {
				requestID = utils.GenerateRequestID()
			}
			c.Set(RequestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			method := c.Request().Method
			multipart := strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
			if (method == http.MethodPost || method == http.MethodPut) && !multipart {
				if c.Request().ContentLength > maxBody {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error:     "request_too_large",
						Message:   "Request body too large",
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
			}

			return next(c)
		}
	}
}

// RequestID returns the id assigned by RequestValidation, generating one if
// the middleware did not run
func RequestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok && id != "" {
		return id
	}
	id := utils.GenerateRequestID()
	c.Set(RequestIDKey, id)
	return id
}
