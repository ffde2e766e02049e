// Package types holds values shared by the llm package and its providers.
package types

import "jobportal-cv/internal/cv/document"

// ExtractionRequest is a single extraction call: one document, one instruction
type ExtractionRequest struct {
	Document *document.EncodedDocument
	Prompt   string
}
