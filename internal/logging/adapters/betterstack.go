package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"jobportal-cv/internal/logging/types"
)

// BetterstackAdapter ships each entry to the Betterstack HTTP ingest API
type BetterstackAdapter struct {
	name       string
	config     BetterstackConfig
	httpClient *http.Client

	mu        sync.Mutex
	lastError error
	lastFail  time.Time
}

// BetterstackConfig represents configuration for the Betterstack adapter
type BetterstackConfig struct {
	SourceToken string            `yaml:"source_token"`
	Endpoint    string            `yaml:"endpoint"`
	MaxRetries  int               `yaml:"max_retries"`
	Timeout     time.Duration     `yaml:"timeout"` // per attempt
	UserAgent   string            `yaml:"user_agent"`
	Headers     map[string]string `yaml:"headers"`
}

type betterstackEntry struct {
	Timestamp time.Time              `json:"dt"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// ingestError is a non-2xx answer from the ingest API
type ingestError struct {
	status int
	body   string
}

func (e *ingestError) Error() string {
	if e.status == http.StatusUnauthorized {
		return "unauthorized: invalid source token"
	}
	return fmt.Sprintf("ingest returned %d: %s", e.status, e.body)
}

func (e *ingestError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// NewBetterstackAdapter creates a new Betterstack adapter
func NewBetterstackAdapter(name string, config BetterstackConfig) (*BetterstackAdapter, error) {
	if config.SourceToken == "" {
		return nil, fmt.Errorf("source_token is required for Betterstack adapter")
	}
	if config.Endpoint == "" {
		config.Endpoint = "https://in.logs.betterstack.com"
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "jobportal-cv/1.0"
	}

	return &BetterstackAdapter{
		name:       name,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Write sends one entry, retrying throttled and server-side failures
func (a *BetterstackAdapter) Write(entry *types.LogEntry) error {
	payload, err := json.Marshal(betterstackEntry{
		Timestamp: entry.Timestamp,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    entry.Fields,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	err = a.send(ctx, payload)

	a.mu.Lock()
	a.lastError = err
	if err != nil {
		a.lastFail = time.Now()
	}
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send log to Betterstack: %w", err)
	}
	return nil
}

func (a *BetterstackAdapter) send(ctx context.Context, payload []byte) error {
	var err error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		err = a.post(ctx, payload)
		if err == nil {
			return nil
		}
		if ie, ok := err.(*ingestError); ok && !ie.retryable() {
			return err
		}
	}
	return err
}

func (a *BetterstackAdapter) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.SourceToken)
	req.Header.Set("User-Agent", a.config.UserAgent)
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ingestError{status: resp.StatusCode, body: string(body)}
}

// Close releases idle connections
func (a *BetterstackAdapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// Health reports the last delivery failure, if the last delivery failed
func (a *BetterstackAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.lastError != nil {
		return fmt.Errorf("last delivery failed at %s: %w", a.lastFail.Format(time.RFC3339), a.lastError)
	}
	return nil
}

// Name returns the name of the adapter
func (a *BetterstackAdapter) Name() string {
	return a.name
}
