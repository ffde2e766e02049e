package utils

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello..."},
		{"zero limit", "hello", 0, ""},
		{"does not split runes", "héllo", 2, "h..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxLen))
		})
	}
}

func TestGeneratedIDsArePrefixedAndUnique(t *testing.T) {
	a := GenerateExtractionProcessID()
	b := GenerateExtractionProcessID()

	assert.True(t, strings.HasPrefix(a, "cvx_"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(GenerateFormSessionID(), "frm_"))
	assert.Len(t, GenerateRequestID(), 36)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "1.50s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestCustomErrors(t *testing.T) {
	err := NewValidationError("candidate_id is invalid")
	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.Equal(t, "Validation failed: candidate_id is invalid", err.Error())

	assert.Equal(t, http.StatusRequestEntityTooLarge, NewPayloadTooLargeError("x").Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, NewUnsupportedMediaError("x").Code)
	assert.Equal(t, "Not found", NewNotFoundError("Not found").Error())
}
