package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"jobportal-cv/pkg/models"
)

// CandidateIDKey is the echo context key holding the authenticated subject
const CandidateIDKey = "candidate_id"

// Claims are the token claims accepted by the guard
type Claims struct {
	jwt.RegisteredClaims
}

// JWTAuth validates an HS256 bearer token and stores its subject under
// CandidateIDKey. An empty secret disables the guard.
func JWTAuth(secret, expectedIssuer string) echo.MiddlewareFunc {
	secretBytes := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}

		return func(c echo.Context) error {
			tokenStr := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if tokenStr == "" {
				return unauthorized(c, "missing bearer token")
			}

			token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
				return secretBytes, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
			if err != nil || !token.Valid {
				return unauthorized(c, "invalid or expired token")
			}

			claims, ok := token.Claims.(*Claims)
			if !ok {
				return unauthorized(c, "invalid token claims")
			}
			if expectedIssuer != "" && claims.Issuer != expectedIssuer {
				return unauthorized(c, "invalid token issuer")
			}

			c.Set(CandidateIDKey, claims.Subject)
			return next(c)
		}
	}
}

// CandidateID returns the authenticated subject, or "" without a guard
func CandidateID(c echo.Context) string {
	id, _ := c.Get(CandidateIDKey).(string)
	return id
}

// SignToken issues an HS256 token for subject. It is used by tests and
// tooling; production tokens come from the identity service.
func SignToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:     "unauthorized",
		Message:   message,
		RequestID: RequestID(c),
		Timestamp: time.Now(),
	})
}
