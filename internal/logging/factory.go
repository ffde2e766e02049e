package logging

import (
	"fmt"
	"strconv"
	"time"

	"jobportal-cv/internal/logging/adapters"
	"jobportal-cv/internal/logging/types"
)

// AdapterFactory creates logging adapters based on configuration
type AdapterFactory struct{}

// NewAdapterFactory creates a new adapter factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// CreateAdapter creates a logging adapter based on the provided configuration
func (f *AdapterFactory) CreateAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	opts := options(adapterConfig.Options)

	switch adapterConfig.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(adapterConfig.Name, adapters.StdoutConfig{
			Format:    opts.str("format", "json"),
			Colorized: opts.boolean("colorized", false),
		}), nil
	case "file":
		return adapters.NewFileAdapter(adapterConfig.Name, adapters.FileConfig{
			FilePath:    opts.str("file_path", ""),
			Format:      opts.str("format", "json"),
			MaxSize:     int64(opts.integer("max_size", 0)),
			MaxBackups:  opts.integer("max_backups", 10),
			CreateDirs:  opts.boolean("create_dirs", true),
			SyncOnWrite: opts.boolean("sync_on_write", false),
		})
	case "betterstack":
		return adapters.NewBetterstackAdapter(adapterConfig.Name, adapters.BetterstackConfig{
			SourceToken: opts.str("source_token", ""),
			Endpoint:    opts.str("endpoint", ""),
			MaxRetries:  opts.integer("max_retries", 3),
			Timeout:     opts.duration("timeout", 10*time.Second),
			UserAgent:   opts.str("user_agent", ""),
			Headers:     opts.stringMap("headers"),
		})
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", adapterConfig.Type)
	}
}

// options reads adapter options decoded from YAML. Values expanded from the
// environment arrive as strings and are parsed.
type options map[string]interface{}

func (o options) str(key, def string) string {
	if s, ok := o[key].(string); ok && s != "" {
		return s
	}
	return def
}

func (o options) integer(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (o options) boolean(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (o options) duration(key string, def time.Duration) time.Duration {
	switch v := o[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	}
	return def
}

func (o options) stringMap(key string) map[string]string {
	out := map[string]string{}
	raw, ok := o[key].(map[string]interface{})
	if !ok {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
