package utils

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateExtractionProcessID generates a process ID for background CV extraction
func GenerateExtractionProcessID() string {
	return "cvx_" + uuid.New().String()
}

// GenerateFormSessionID generates an ID for a profile form session
func GenerateFormSessionID() string {
	return "frm_" + uuid.New().String()
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// Truncate shortens s to at most maxLen bytes without splitting a rune and
// appends "..." when anything was cut
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
