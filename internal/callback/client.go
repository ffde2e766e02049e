package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobportal-cv/internal/config"
	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
	"jobportal-cv/pkg/utils"
)

// ErrNotConfigured is returned when the target endpoint has no URL
var ErrNotConfigured = errors.New("callback endpoint is not configured")

// Client delivers finished profiles and task results over HTTP
type Client struct {
	httpClient      *http.Client
	profileURL      string
	profileToken    string
	profileTimeout  time.Duration
	callbackURL     string
	callbackTimeout time.Duration
	callbackEnabled bool
	logger          logging.Logger
}

// ProfileSubmission is the body posted to the profile-creation endpoint
type ProfileSubmission struct {
	CandidateID string                     `json:"candidate_id"`
	Profile     *models.UnifiedProfileData `json:"profile"`
	SubmittedAt time.Time                  `json:"submitted_at"`
}

// TaskCompletion is the body posted to the task-completion webhook
type TaskCompletion struct {
	ProcessID      string                 `json:"process_id"`
	Status         string                 `json:"status"`
	Operation      string                 `json:"operation"`
	Data           interface{}            `json:"data"`
	Error          string                 `json:"error,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	ProcessingTime string                 `json:"processing_time"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// NewClient creates a callback client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:      &http.Client{},
		profileURL:      cfg.ProfileAPI.URL,
		profileToken:    cfg.ProfileAPI.Token,
		profileTimeout:  withDefault(cfg.ProfileAPI.Timeout),
		callbackURL:     cfg.Callback.URL,
		callbackTimeout: withDefault(cfg.Callback.Timeout),
		callbackEnabled: cfg.Callback.Enabled && cfg.Callback.URL != "",
		logger:          logging.GetGlobalLogger(),
	}
}

func withDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ProfileAPIConfigured reports whether SubmitProfile has somewhere to post
func (c *Client) ProfileAPIConfigured() bool {
	return c.profileURL != ""
}

// CallbacksEnabled reports whether task completions are delivered
func (c *Client) CallbacksEnabled() bool {
	return c.callbackEnabled
}

// SubmitProfile posts a validated profile to the profile-creation endpoint
func (c *Client) SubmitProfile(ctx context.Context, candidateID string, profile *models.UnifiedProfileData) error {
	if c.profileURL == "" {
		return ErrNotConfigured
	}

	body := ProfileSubmission{
		CandidateID: candidateID,
		Profile:     profile,
		SubmittedAt: time.Now().UTC(),
	}

	c.logger.Info("Submitting candidate profile", map[string]interface{}{
		"candidate_id": candidateID,
		"url":          c.profileURL,
	})

	if err := c.post(ctx, c.profileURL, c.profileToken, c.profileTimeout, body); err != nil {
		c.logger.Error("Failed to submit candidate profile", map[string]interface{}{
			"candidate_id": candidateID,
			"error":        err.Error(),
		})
		return fmt.Errorf("failed to submit profile: %w", err)
	}

	c.logger.Info("Candidate profile submitted successfully", map[string]interface{}{
		"candidate_id": candidateID,
	})
	return nil
}

// NotifyTaskCompletion posts a finished background task to the webhook. It is
// a no-op when callbacks are disabled.
func (c *Client) NotifyTaskCompletion(ctx context.Context, payload *TaskCompletion) error {
	if !c.callbackEnabled {
		return nil
	}

	c.logger.Info("Sending task completion callback", map[string]interface{}{
		"process_id": payload.ProcessID,
		"status":     payload.Status,
		"operation":  payload.Operation,
	})

	if err := c.post(ctx, c.callbackURL, "", c.callbackTimeout, payload); err != nil {
		c.logger.Error("Failed to send task completion callback", map[string]interface{}{
			"process_id": payload.ProcessID,
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to send callback: %w", err)
	}

	c.logger.Info("Task completion callback sent successfully", map[string]interface{}{
		"process_id": payload.ProcessID,
	})
	return nil
}

func (c *Client) post(ctx context.Context, url, token string, timeout time.Duration, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, utils.Truncate(strings.TrimSpace(string(snippet)), 200))
	}
	return nil
}
