package bridge

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/types"
)

// AuditSink appends one audit record per emitted output line. Implementations
// must be best-effort and must never block; a failing sink cannot be allowed
// to stall or fail the primary output path. audit.Logger satisfies this.
type AuditSink interface {
	Record(ts time.Time, requestID, input, output string)
}

// responseEnvelope is the wire format of one output line.
type responseEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Writer serializes outcomes onto the output stream, exactly one line per
// outcome, and hands each input/output pair to the audit sink. Writes are
// serialized internally; callers provide ordering.
type Writer struct {
	mu     sync.Mutex
	out    *bufio.Writer
	audit  AuditSink
	logger *zap.Logger
}

// NewWriter creates a Writer over the output stream. The audit sink may be
// nil.
func NewWriter(w io.Writer, audit AuditSink, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		out:    bufio.NewWriter(w),
		audit:  audit,
		logger: logger.With(zap.String("component", "writer")),
	}
}

// Write emits the outcome as one output line and records the audit pair.
// A non-nil error means the output stream itself is lost, which is the one
// fatal condition of the session.
func (w *Writer) Write(requestID, rawInput string, outcome types.Outcome) error {
	line, err := encodeOutcome(outcome)
	if err != nil {
		// A result that cannot be re-marshalled still owes the caller
		// its one line.
		line = []byte(`{"error":"internal encoding error"}`)
		w.logger.Error("failed to encode outcome",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.out.Write(line); err != nil {
		return err
	}
	if err := w.out.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.out.Flush(); err != nil {
		return err
	}

	if w.audit != nil {
		w.audit.Record(time.Now(), requestID, rawInput, string(line))
	}
	return nil
}

// encodeOutcome renders the single-line envelope: {"result":...} on success,
// {"error":"..."} on failure. The backend body is embedded verbatim; it has
// already been compacted to a single line by the backend client.
func encodeOutcome(o types.Outcome) ([]byte, error) {
	if o.IsError() {
		return json.Marshal(responseEnvelope{Error: o.Err.Message})
	}
	result := o.Result
	if len(result) == 0 {
		result = json.RawMessage(`null`)
	}
	return json.Marshal(responseEnvelope{Result: result})
}
