package adapters

import (
	"io"
	"os"
	"sync"

	"jobportal-cv/internal/logging/types"
)

// StdoutAdapter writes one line per entry to standard output
type StdoutAdapter struct {
	name   string
	config StdoutConfig
	out    io.Writer
	mu     sync.Mutex
}

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format    string `yaml:"format"` // json or text
	Colorized bool   `yaml:"colorized"`
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	return NewWriterAdapter(name, config, os.Stdout)
}

// NewWriterAdapter creates a stdout-style adapter over any writer
func NewWriterAdapter(name string, config StdoutConfig, out io.Writer) *StdoutAdapter {
	return &StdoutAdapter{name: name, config: config, out: out}
}

// Write writes a log entry
func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	line, err := encode(entry, a.config.Format, a.config.Colorized)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.out.Write(append(line, '\n'))
	return err
}

// Close is a no-op
func (a *StdoutAdapter) Close() error {
	return nil
}

// Health always succeeds
func (a *StdoutAdapter) Health() error {
	return nil
}

// Name returns the name of the adapter
func (a *StdoutAdapter) Name() string {
	return a.name
}
