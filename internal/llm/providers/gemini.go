package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"jobportal-cv/internal/config"
	"jobportal-cv/internal/llm/types"
	"jobportal-cv/internal/logging"
)

// GeminiProvider extracts CV data with Google Gemini, sending the document as
// an inline blob
type GeminiProvider struct {
	config *config.Config
	logger logging.Logger
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.Config) *GeminiProvider {
	return &GeminiProvider{
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

func (gp *GeminiProvider) clientOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithAPIKey(gp.config.LLM.APIKey)}
	if gp.config.LLM.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(gp.config.LLM.BaseURL))
	}
	return opts
}

// ExtractCV sends the document and prompt and returns the text parts of the first candidate
func (gp *GeminiProvider) ExtractCV(ctx context.Context, req types.ExtractionRequest) (string, error) {
	if req.Document == nil {
		return "", fmt.Errorf("no document to extract from")
	}

	if gp.config.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gp.config.LLM.Timeout)
		defer cancel()
	}

	raw := req.Document.Raw
	if len(raw) == 0 {
		decoded, err := req.Document.Decode()
		if err != nil {
			return "", err
		}
		raw = decoded
	}

	startTime := time.Now()
	gp.logger.Info("Starting CV extraction with Gemini", map[string]interface{}{
		"file_name":  req.Document.Filename,
		"size_bytes": req.Document.Size,
		"model":      gp.config.LLM.Model,
		"provider":   "gemini",
	})

	client, err := genai.NewClient(ctx, gp.clientOptions()...)
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(gp.config.LLM.Model)
	model.SetTemperature(gp.config.LLM.Temperature)
	model.SetMaxOutputTokens(int32(gp.config.LLM.MaxTokens))
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Blob{
			MIMEType: req.Document.MIMEType,
			Data:     raw,
		},
		genai.Text(req.Prompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in Gemini response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("no text content in Gemini response (finish reason: %v)", resp.Candidates[0].FinishReason)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		gp.logger.Warn("Gemini response hit the output token limit", map[string]interface{}{
			"file_name":  req.Document.Filename,
			"max_tokens": gp.config.LLM.MaxTokens,
		})
	}

	gp.logger.Info("CV extraction with Gemini completed", map[string]interface{}{
		"file_name":       req.Document.Filename,
		"response_length": text.Len(),
		"processing_time": time.Since(startTime).String(),
		"provider":        "gemini",
	})

	return text.String(), nil
}

// IsHealthy only checks configuration
func (gp *GeminiProvider) IsHealthy(ctx context.Context) error {
	if gp.config.LLM.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured - set LLM_API_KEY environment variable")
	}
	if gp.config.LLM.Model == "" {
		return fmt.Errorf("Gemini model not configured - set LLM_MODEL environment variable")
	}
	return nil
}

// GetProviderName returns the name of the LLM provider
func (gp *GeminiProvider) GetProviderName() string {
	return "gemini"
}
