// Package waybridge provides a top-level convenience entry point for
// embedding the bridge with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/waybridge"
//
//	b, err := waybridge.New()
//	b, err := waybridge.New(waybridge.WithBackendURL("http://127.0.0.1:5000"))
//	err = b.Serve(ctx, os.Stdin, os.Stdout)
//
// The waybridge command wires the same pieces with audit, metrics, and
// telemetry on top; this entry point covers the embedded case where a host
// process owns the streams.
package waybridge

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/backend"
	"github.com/BaSui01/waybridge/bridge"
	"github.com/BaSui01/waybridge/config"
)

// Option configures the bridge created by [New].
type Option func(*options)

type options struct {
	cfg     *config.Config
	entries []bridge.ToolEntry
	logger  *zap.Logger
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithBackendURL overrides the backend base URL.
func WithBackendURL(url string) Option {
	return func(o *options) { o.cfg.Backend.BaseURL = url }
}

// WithTools replaces the default tool table.
func WithTools(entries []bridge.ToolEntry) Option {
	return func(o *options) { o.entries = entries }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Bridge is a ready-to-serve protocol pipeline.
type Bridge struct {
	dispatcher  *bridge.Dispatcher
	maxInFlight int
	logger      *zap.Logger
}

// New builds a Bridge with the default tool table and configuration,
// adjusted by the given options.
func New(opts ...Option) (*Bridge, error) {
	o := &options{
		cfg:     config.Default(),
		entries: bridge.DefaultEntries(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	registry, err := bridge.NewRegistry(o.entries, o.logger)
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(o.cfg.Backend, o.logger)
	return &Bridge{
		dispatcher:  bridge.NewDispatcher(registry, client, nil, o.logger),
		maxInFlight: o.cfg.Bridge.MaxInFlight,
		logger:      o.logger,
	}, nil
}

// Serve runs the protocol over the given streams until the input ends.
func (b *Bridge) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return bridge.NewSession(in, out, b.dispatcher, nil, nil, b.maxInFlight, b.logger).Run(ctx)
}
