package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/internal/metrics"
	"github.com/BaSui01/waybridge/types"
)

// Forwarder relays one request to the backend service and reports the
// outcome as either a parsed body or a structured error. backend.Client
// satisfies this interface.
type Forwarder interface {
	Call(ctx context.Context, path string, args json.RawMessage) (json.RawMessage, *types.Error)
}

// Dispatcher routes a decoded request through the tool registry. It is the
// single decision point of the bridge: forward, not-implemented, or unknown.
// Retry policy does not live here; a forwarded call is attempted exactly once.
type Dispatcher struct {
	registry *Registry
	backend  Forwarder
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given registry and backend.
// The metrics collector may be nil.
func NewDispatcher(registry *Registry, backend Forwarder, collector *metrics.Collector, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry: registry,
		backend:  backend,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "dispatcher")),
	}
}

// Dispatch resolves the request's tool name and produces its Outcome.
// Unregistered names always fall through to the unknown-tool branch; they
// never silently succeed.
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.Request) types.Outcome {
	start := time.Now()

	ctx, span := otel.Tracer("waybridge/bridge").Start(ctx, "dispatch")
	span.SetAttributes(
		attribute.String("tool.name", req.Tool),
		attribute.String("request.id", req.ID),
	)
	defer span.End()

	outcome := d.dispatch(ctx, req)
	outcome.Duration = time.Since(start)

	code := "success"
	if outcome.IsError() {
		code = string(outcome.Err.Code)
		span.SetAttributes(attribute.String("error.code", code))
		d.logger.Info("request failed",
			zap.String("request_id", req.ID),
			zap.String("tool", req.Tool),
			zap.String("code", code),
			zap.Duration("duration", outcome.Duration),
		)
	} else {
		d.logger.Debug("request succeeded",
			zap.String("request_id", req.ID),
			zap.String("tool", req.Tool),
			zap.Duration("duration", outcome.Duration),
		)
	}

	if d.metrics != nil {
		d.metrics.RecordDispatch(req.Tool, code, outcome.Duration)
	}
	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, req *types.Request) types.Outcome {
	entry, ok := d.registry.Lookup(req.Tool)
	if !ok {
		return types.Failure(types.NewError(types.ErrUnknownTool,
			fmt.Sprintf("Unknown tool: %s", req.Tool)).WithTool(req.Tool))
	}

	switch entry.Action {
	case ActionNotImplemented:
		return types.Failure(types.NewError(types.ErrNotImplemented,
			fmt.Sprintf("%s not implemented", req.Tool)).WithTool(req.Tool))

	case ActionForward:
		if err := d.registry.Allow(req.Tool); err != nil {
			return types.Failure(err)
		}

		callCtx := ctx
		if entry.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, entry.Timeout)
			defer cancel()
		}

		result, callErr := d.backend.Call(callCtx, entry.Path, req.Args())
		if callErr != nil {
			if d.metrics != nil {
				d.metrics.RecordBackendFailure(string(callErr.Code))
			}
			return types.Failure(callErr.WithTool(req.Tool))
		}
		return types.Success(result)

	default:
		// NewRegistry rejects undefined actions, so this branch is
		// unreachable for a constructed registry.
		return types.Failure(types.NewError(types.ErrUnknownTool,
			fmt.Sprintf("Unknown tool: %s", req.Tool)).WithTool(req.Tool))
	}
}
