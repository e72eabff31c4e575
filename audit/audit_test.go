package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/waybridge/config"
)

// memoryBackend collects entries for assertions.
type memoryBackend struct {
	mu      sync.Mutex
	entries []*Entry
	failing bool
}

func (m *memoryBackend) Write(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return assert.AnError
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryBackend) Close() error { return nil }

func (m *memoryBackend) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestLogger_RecordAndDrain(t *testing.T) {
	mem := &memoryBackend{}
	l := NewLogger([]Backend{mem}, 16, 2, nil)

	for i := 0; i < 5; i++ {
		l.Record(time.Now(), "req", `{"tool":"execute_task"}`, `{"result":null}`)
	}
	require.NoError(t, l.Close())

	assert.Equal(t, 5, mem.len())
	for _, e := range mem.entries {
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, `{"tool":"execute_task"}`, e.Input)
	}
}

func TestLogger_RecordNeverBlocks(t *testing.T) {
	// No workers drain this queue fast enough; capacity 1 forces drops.
	blocked := make(chan struct{})
	slow := backendFunc(func(ctx context.Context, e *Entry) error {
		<-blocked
		return nil
	})

	var drops atomic.Int64
	l := NewLogger([]Backend{slow}, 1, 1, nil)
	l.OnDrop(func() { drops.Add(1) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			l.Record(time.Now(), "req", "in", "out")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a stalled backend")
	}
	assert.Greater(t, drops.Load(), int64(0))

	close(blocked)
	require.NoError(t, l.Close())
}

// backendFunc adapts a function to the Backend interface.
type backendFunc func(ctx context.Context, e *Entry) error

func (f backendFunc) Write(ctx context.Context, e *Entry) error { return f(ctx, e) }
func (f backendFunc) Close() error                              { return nil }

func TestLogger_BackendFailureIsSwallowed(t *testing.T) {
	failing := &memoryBackend{failing: true}
	ok := &memoryBackend{}
	l := NewLogger([]Backend{failing, ok}, 16, 1, nil)

	l.Record(time.Now(), "req", "in", "out")
	require.NoError(t, l.Close())

	// The healthy backend still got the entry.
	assert.Equal(t, 1, ok.len())
}

// Records racing a Close must drop cleanly, never hit the closed queue.
func TestLogger_ConcurrentRecordAndClose(t *testing.T) {
	for i := 0; i < 200; i++ {
		l := NewLogger(nil, 8, 1, nil)

		start := make(chan struct{})
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 50; j++ {
					l.Record(time.Now(), "req", "in", "out")
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, l.Close())
		}()

		close(start)
		wg.Wait()
	}
}

func TestLogger_RecordAfterClose(t *testing.T) {
	l := NewLogger(nil, 4, 1, nil)
	require.NoError(t, l.Close())

	// Must not panic on the closed queue.
	l.Record(time.Now(), "req", "in", "out")
	require.NoError(t, l.Close())
}

func TestFileBackend_JSONL(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(config.FileAuditConfig{Directory: dir}, nil)
	require.NoError(t, err)
	defer fb.Close()

	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, fb.Write(context.Background(), &Entry{
			ID:        string(rune('a' + i)),
			Timestamp: now,
			RequestID: "req-1",
			Input:     `{"tool":"execute_task"}`,
			Output:    `{"result":null}`,
		}))
	}
	require.NoError(t, fb.Close())

	files, err := filepath.Glob(filepath.Join(dir, "audit_*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		assert.Equal(t, "req-1", e.RequestID)
	}
}

func TestFileBackend_SizeRotation(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(config.FileAuditConfig{Directory: dir, MaxFileSize: 64}, nil)
	require.NoError(t, err)
	defer fb.Close()

	now := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, fb.Write(context.Background(), &Entry{
			ID:        "entry",
			Timestamp: now,
			Input:     strings.Repeat("x", 100),
			Output:    "y",
		}))
	}

	files, err := filepath.Glob(filepath.Join(dir, "audit_*.jsonl"))
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "oversized file must rotate")
}

func TestNew_UnknownBackendIgnored(t *testing.T) {
	// Validate() rejects unknown names upstream; New just skips them.
	l, err := New(config.AuditConfig{
		Backends:  []string{"smoke-signals"},
		QueueSize: 4,
		Workers:   1,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
}
