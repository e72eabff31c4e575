// Package audit provides the append-only audit trail of the bridge.
//
// Every emitted output line produces one record pairing it with its raw
// input line and a timestamp. Recording is best-effort by contract: the
// async queue drops on overflow and backend failures are logged, never
// propagated, so the primary output path cannot be blocked or failed by
// auditing.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/config"
)

// Entry is one audit record. Records are append-only and process-lifetime
// scoped; nothing in this process mutates or deletes them.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
}

// Backend is one audit storage sink.
type Backend interface {
	// Write appends an entry.
	Write(ctx context.Context, entry *Entry) error

	// Close releases the backend.
	Close() error
}

// Logger fans audit entries out to the configured backends through an async
// queue. It satisfies bridge.AuditSink.
type Logger struct {
	backends []Backend
	queue    chan *Entry
	wg       sync.WaitGroup
	logger   *zap.Logger

	closeMu sync.RWMutex
	closed  bool

	onDrop func()
}

// New builds a Logger with the backends selected in cfg. An empty backend
// list yields a Logger that drops everything, which is still a valid sink.
func New(cfg config.AuditConfig, logger *zap.Logger) (*Logger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var backends []Backend
	for _, name := range cfg.Backends {
		var (
			b   Backend
			err error
		)
		switch name {
		case "file":
			b, err = NewFileBackend(cfg.File, logger)
		case "redis":
			b = NewRedisBackend(cfg.Redis, logger)
		case "database":
			b, err = NewDatabaseBackend(cfg.Database, logger)
		}
		if err != nil {
			return nil, err
		}
		if b != nil {
			backends = append(backends, b)
		}
	}

	return NewLogger(backends, cfg.QueueSize, cfg.Workers, logger), nil
}

// NewLogger builds a Logger over explicit backends.
func NewLogger(backends []Backend, queueSize, workers int, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 2
	}

	l := &Logger{
		backends: backends,
		queue:    make(chan *Entry, queueSize),
		logger:   logger.With(zap.String("component", "audit")),
	}

	for i := 0; i < workers; i++ {
		l.wg.Add(1)
		go l.worker()
	}
	return l
}

// OnDrop registers a callback invoked when an entry is dropped. Used to feed
// the dropped-entries metric.
func (l *Logger) OnDrop(fn func()) {
	l.onDrop = fn
}

// Record enqueues one input/output pair. It never blocks: when the queue is
// full the entry is dropped with a warning.
//
// The read lock is held across the enqueue so Close cannot close the queue
// between the closed check and the send.
func (l *Logger) Record(ts time.Time, requestID, input, output string) {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed {
		return
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Timestamp: ts,
		RequestID: requestID,
		Input:     input,
		Output:    output,
	}

	select {
	case l.queue <- entry:
	default:
		l.logger.Warn("audit queue full, dropping entry", zap.String("entry_id", entry.ID))
		if l.onDrop != nil {
			l.onDrop()
		}
	}
}

func (l *Logger) worker() {
	defer l.wg.Done()

	for entry := range l.queue {
		for _, b := range l.backends {
			if err := b.Write(context.Background(), entry); err != nil {
				l.logger.Error("audit write failed",
					zap.String("entry_id", entry.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// Close drains the queue and closes all backends.
func (l *Logger) Close() error {
	l.closeMu.Lock()
	if l.closed {
		l.closeMu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.closeMu.Unlock()

	l.wg.Wait()

	var lastErr error
	for _, b := range l.backends {
		if err := b.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
