package bridge

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/waybridge/internal/metrics"
	"github.com/BaSui01/waybridge/types"
)

// completion is one finished unit of work waiting for its turn at the
// output boundary.
type completion struct {
	requestID string
	raw       string
	outcome   types.Outcome
}

// Session drives the bridge pipeline over one input/output stream pair:
// read a line, decode it, dispatch it, emit exactly one response line.
//
// Each line is processed as an independent unit of work; up to maxInFlight
// units run concurrently, and a sequencer restores input order at the
// writer, so output lines always match input order. A malformed or failing
// line never ends the session; only loss of a stream does.
type Session struct {
	reader      *LineReader
	writer      *Writer
	dispatcher  *Dispatcher
	metrics     *metrics.Collector
	maxInFlight int
	logger      *zap.Logger
}

// NewSession wires a session over the given streams. The audit sink and
// metrics collector may be nil. maxInFlight values below 1 are clamped to 1.
func NewSession(in io.Reader, out io.Writer, dispatcher *Dispatcher, audit AuditSink, collector *metrics.Collector, maxInFlight int, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Session{
		reader:      NewLineReader(in),
		writer:      NewWriter(out, audit, logger),
		dispatcher:  dispatcher,
		metrics:     collector,
		maxInFlight: maxInFlight,
		logger:      logger.With(zap.String("component", "session")),
	}
}

// Run processes the input stream until it ends. A clean end of input returns
// nil; a broken output stream returns its error. Outstanding units of work
// are drained before returning, so every consumed line gets its output line.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		writeErr error
	)
	seq := newSequencer[completion](func(c completion) {
		if writeErr != nil {
			return
		}
		if err := s.writer.Write(c.requestID, c.raw, c.outcome); err != nil {
			// Output stream is lost: the one fatal condition. Stop
			// accepting new lines; in-flight work is abandoned.
			writeErr = err
			cancel()
		}
	})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxInFlight)

	var lineSeq uint64
	for {
		if ctx.Err() != nil {
			break
		}

		line, err := s.reader.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrLineTooLong) {
			// The line is consumed; it still owes its one output line.
			s.logger.Warn("request line too long, rejecting")
			n := lineSeq
			lineSeq++
			mu.Lock()
			seq.deliver(n, completion{outcome: types.Failure(
				types.NewError(types.ErrDecode, "request line too long"))})
			mu.Unlock()
			continue
		}
		if err != nil {
			s.logger.Warn("input stream lost", zap.Error(err))
			break
		}

		n := lineSeq
		lineSeq++

		g.Go(func() error {
			if s.metrics != nil {
				s.metrics.IncInFlight()
				defer s.metrics.DecInFlight()
			}

			c := s.process(ctx, line)

			mu.Lock()
			seq.deliver(n, c)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures become outcomes.
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		return writeErr
	}
	return nil
}

// process turns one raw line into its completion. Decode failures bypass
// dispatch entirely and go straight to the writer.
func (s *Session) process(ctx context.Context, line string) completion {
	req, decErr := DecodeRequest(line)
	if decErr != nil {
		s.logger.Debug("decode failed", zap.String("line", line), zap.Error(decErr))
		return completion{raw: line, outcome: types.Failure(decErr)}
	}

	outcome := s.dispatcher.Dispatch(ctx, req)
	return completion{requestID: req.ID, raw: line, outcome: outcome}
}
