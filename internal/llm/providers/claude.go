package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"jobportal-cv/internal/config"
	"jobportal-cv/internal/cv/document"
	"jobportal-cv/internal/llm/types"
	"jobportal-cv/internal/logging"
)

// ClaudeProvider extracts CV data with Anthropic's Claude, sending the PDF as
// a base64 document block
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance. SDK retries are
// disabled; a failed call is terminal for the upload.
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.LLM.Timeout))
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// ExtractCV sends the document and prompt in a single user message and
// returns the concatenated text of the reply
func (cp *ClaudeProvider) ExtractCV(ctx context.Context, req types.ExtractionRequest) (string, error) {
	if req.Document == nil {
		return "", fmt.Errorf("no document to extract from")
	}
	if req.Document.MIMEType != document.MIMETypePDF {
		return "", fmt.Errorf("claude provider only accepts %s documents, got %s", document.MIMETypePDF, req.Document.MIMEType)
	}

	startTime := time.Now()
	cp.logger.Info("Starting CV extraction with Claude", map[string]interface{}{
		"file_name":  req.Document.Filename,
		"size_bytes": req.Document.Size,
		"model":      cp.config.LLM.Model,
		"provider":   "claude",
	})

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.config.LLM.Model),
		MaxTokens:   int64(cp.config.LLM.MaxTokens),
		Temperature: anthropic.Float(float64(cp.config.LLM.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: req.Document.Data}),
				{OfText: &anthropic.TextBlockParam{Text: req.Prompt}},
			},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no text content in Claude response")
	}

	if string(response.StopReason) == "max_tokens" {
		cp.logger.Warn("Claude response hit the output token limit", map[string]interface{}{
			"file_name":  req.Document.Filename,
			"max_tokens": cp.config.LLM.MaxTokens,
		})
	}

	cp.logger.Info("CV extraction with Claude completed", map[string]interface{}{
		"file_name":       req.Document.Filename,
		"response_length": text.Len(),
		"processing_time": time.Since(startTime).String(),
		"provider":        "claude",
	})

	return text.String(), nil
}

// IsHealthy only checks configuration; a probe request would be billed
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}
	return nil
}

// GetProviderName returns the name of the LLM provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}
