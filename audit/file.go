package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/config"
)

// FileBackend appends entries as JSON lines, one file per day, rotating
// when a file outgrows the configured size.
type FileBackend struct {
	dir         string
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentDate string

	logger *zap.Logger
}

// NewFileBackend creates the JSONL file backend, creating the directory if
// needed.
func NewFileBackend(cfg config.FileAuditConfig, logger *zap.Logger) (*FileBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Directory == "" {
		cfg.Directory = "./audit_logs"
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}

	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	return &FileBackend{
		dir:         cfg.Directory,
		maxFileSize: cfg.MaxFileSize,
		logger:      logger.With(zap.String("component", "audit_file")),
	}, nil
}

// Write appends one entry as a JSON line.
func (f *FileBackend) Write(ctx context.Context, entry *Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	date := entry.Timestamp.Format("2006-01-02")
	if f.currentFile == nil || f.currentDate != date {
		if err := f.rotate(date); err != nil {
			return err
		}
	}

	if info, err := f.currentFile.Stat(); err == nil && info.Size() >= f.maxFileSize {
		if err := f.rotate(date); err != nil {
			return err
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if _, err := f.currentFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (f *FileBackend) rotate(date string) error {
	if f.currentFile != nil {
		f.currentFile.Close()
	}

	filename := filepath.Join(f.dir, fmt.Sprintf("audit_%s_%d.jsonl", date, time.Now().UnixNano()))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create audit file: %w", err)
	}

	f.currentFile = file
	f.currentDate = date
	f.logger.Info("rotated audit file", zap.String("filename", filename))
	return nil
}

// Close closes the current file.
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.currentFile != nil {
		err := f.currentFile.Close()
		f.currentFile = nil
		return err
	}
	return nil
}
