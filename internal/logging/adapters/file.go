package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"jobportal-cv/internal/logging/types"
)

// FileAdapter appends entries to a file and rotates it by size
type FileAdapter struct {
	name   string
	config FileConfig
	file   *os.File
	size   int64
	mu     sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath    string      `yaml:"file_path"`
	Format      string      `yaml:"format"`      // json or text
	MaxSize     int64       `yaml:"max_size"`    // bytes, 0 disables rotation
	MaxBackups  int         `yaml:"max_backups"` // rotated files kept
	CreateDirs  bool        `yaml:"create_dirs"`
	FileMode    os.FileMode `yaml:"file_mode"`
	SyncOnWrite bool        `yaml:"sync_on_write"`
}

// NewFileAdapter opens (or creates) the log file
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}
	if config.FileMode == 0 {
		config.FileMode = 0644
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = 10
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	a := &FileAdapter{name: name, config: config}
	if err := a.open(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return a, nil
}

// Write appends a log entry, rotating first when the file is full
func (a *FileAdapter) Write(entry *types.LogEntry) error {
	line, err := encode(entry, a.config.Format, false)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("log file %s is closed", a.config.FilePath)
	}
	if a.config.MaxSize > 0 && a.size >= a.config.MaxSize {
		if err := a.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	n, err := a.file.Write(append(line, '\n'))
	a.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	if a.config.SyncOnWrite {
		return a.file.Sync()
	}
	return nil
}

// Close closes the file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Health reports whether the file is still open and reachable
func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return fmt.Errorf("log file is not open")
	}
	if _, err := a.file.Stat(); err != nil {
		return fmt.Errorf("log file is not accessible: %w", err)
	}
	return nil
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string {
	return a.name
}

func (a *FileAdapter) open() error {
	f, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, a.config.FileMode)
	if err != nil {
		return err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	a.file = f
	a.size = stat.Size()
	return nil
}

// rotate renames the current file to <path>.<timestamp> and prunes old backups.
// Caller holds the lock.
func (a *FileAdapter) rotate() error {
	if err := a.file.Close(); err != nil {
		return err
	}
	a.file = nil

	backup := a.config.FilePath + "." + time.Now().UTC().Format("20060102-150405.000")
	if err := os.Rename(a.config.FilePath, backup); err != nil {
		return err
	}
	a.prune()
	return a.open()
}

// prune keeps the newest MaxBackups rotated files. Backup names sort by time.
func (a *FileAdapter) prune() {
	backups, err := filepath.Glob(a.config.FilePath + ".*")
	if err != nil {
		return
	}
	if len(backups) <= a.config.MaxBackups {
		return
	}
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-a.config.MaxBackups] {
		_ = os.Remove(old)
	}
}
