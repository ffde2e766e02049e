package llm

import (
	"context"

	"jobportal-cv/internal/llm/types"
)

// ExtractionRequest is a single extraction call: one document, one instruction
type ExtractionRequest = types.ExtractionRequest

// LLMProvider defines the interface for generative models able to read a CV
type LLMProvider interface {
	// ExtractCV sends the document and instruction and returns the model's raw text output
	ExtractCV(ctx context.Context, req ExtractionRequest) (string, error)

	// IsHealthy checks if the LLM provider is configured and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string
}
