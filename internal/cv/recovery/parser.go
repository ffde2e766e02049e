// Package recovery pulls a single JSON object out of free-form model output.
package recovery

import (
	"strings"

	"github.com/tidwall/gjson"

	"jobportal-cv/pkg/utils"
)

// Failure reasons reported by Parse
const (
	ReasonNoJSON      = "no valid JSON found in response"
	ReasonInvalidJSON = "failed to parse extracted data as JSON"
)

// PreviewLength bounds the raw text carried by a ParseError
const PreviewLength = 200

var fenceMarkers = []string{"```json", "```JSON", "```"}

// ParseError is returned when no usable JSON object could be recovered
type ParseError struct {
	Reason  string
	Preview string
}

func (e *ParseError) Error() string {
	if e.Preview == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Preview
}

// ExtractedData is the loosely-typed document produced by the model. Nothing
// about its shape is guaranteed; every lookup may come back empty.
type ExtractedData struct {
	root gjson.Result
}

// Root returns the parsed document
func (d ExtractedData) Root() gjson.Result {
	return d.root
}

// Get looks up a gjson path in the document
func (d ExtractedData) Get(path string) gjson.Result {
	return d.root.Get(path)
}

// Raw returns the recovered JSON text
func (d ExtractedData) Raw() string {
	return d.root.Raw
}

// Parse strips markdown fences, keeps the span from the first '{' to the last
// '}' and parses it. Malformed JSON inside that span is not repaired.
func Parse(text string) (ExtractedData, error) {
	cleaned := text
	for _, marker := range fenceMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return ExtractedData{}, &ParseError{Reason: ReasonNoJSON}
	}

	candidate := cleaned[start : end+1]
	if !gjson.Valid(candidate) {
		return ExtractedData{}, &ParseError{
			Reason:  ReasonInvalidJSON,
			Preview: utils.Truncate(strings.TrimSpace(text), PreviewLength),
		}
	}

	return ExtractedData{root: gjson.Parse(candidate)}, nil
}
