package bridge

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/waybridge/types"
)

// ToolAction selects how the dispatcher handles a registered tool.
type ToolAction string

const (
	// ActionForward relays the request to the backend service.
	ActionForward ToolAction = "forward"
	// ActionNotImplemented answers "<tool> not implemented" without any
	// network call.
	ActionNotImplemented ToolAction = "not_implemented"
)

// RateLimitConfig bounds forwarded calls for one tool.
type RateLimitConfig struct {
	MaxCalls int           // maximum calls per window
	Window   time.Duration // time window
}

// ToolEntry is one registry row: a tool name bound to a dispatch action.
type ToolEntry struct {
	Name   string
	Action ToolAction

	// Path is the backend route for forwarded tools.
	Path string

	// Timeout overrides the backend default for this tool (optional).
	Timeout time.Duration

	// RateLimit bounds forwarded calls (optional).
	RateLimit *RateLimitConfig
}

// Registry is the static tool table. It is built once at process start and
// never mutated afterwards, so lookups need no locking.
type Registry struct {
	entries  map[string]ToolEntry
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
}

// NewRegistry validates the entries and builds the registry. Every entry
// must carry a non-empty name and a defined action; forwarded entries must
// carry a path.
func NewRegistry(entries []ToolEntry, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		entries:  make(map[string]ToolEntry, len(entries)),
		limiters: make(map[string]*rate.Limiter),
		logger:   logger.With(zap.String("component", "registry")),
	}

	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("registry entry with empty tool name")
		}
		switch e.Action {
		case ActionForward:
			if e.Path == "" {
				return nil, fmt.Errorf("tool %s: forward action requires a path", e.Name)
			}
		case ActionNotImplemented:
		default:
			return nil, fmt.Errorf("tool %s: undefined action %q", e.Name, e.Action)
		}
		if _, exists := r.entries[e.Name]; exists {
			return nil, fmt.Errorf("tool %s registered twice", e.Name)
		}
		if e.RateLimit != nil {
			if e.RateLimit.MaxCalls <= 0 {
				return nil, fmt.Errorf("tool %s: rate limit requires positive max calls", e.Name)
			}
			// A zero window would mean an infinite rate, silently
			// disabling the limit the entry asked for.
			if e.RateLimit.Window <= 0 {
				return nil, fmt.Errorf("tool %s: rate limit requires a positive window", e.Name)
			}
		}

		r.entries[e.Name] = e
		if e.RateLimit != nil {
			every := e.RateLimit.Window / time.Duration(e.RateLimit.MaxCalls)
			r.limiters[e.Name] = rate.NewLimiter(rate.Every(every), e.RateLimit.MaxCalls)
		}

		r.logger.Info("tool registered",
			zap.String("name", e.Name),
			zap.String("action", string(e.Action)),
			zap.String("path", e.Path),
		)
	}

	return r, nil
}

// Lookup returns the entry for an exact, case-sensitive tool name match.
func (r *Registry) Lookup(name string) (ToolEntry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Allow consumes one rate-limit token for the tool. Tools without a limit
// always pass.
func (r *Registry) Allow(name string) *types.Error {
	limiter, ok := r.limiters[name]
	if !ok {
		return nil
	}
	if !limiter.Allow() {
		return types.NewError(types.ErrRateLimited,
			fmt.Sprintf("%s rate limit exceeded", name)).WithTool(name).WithRetryable(true)
	}
	return nil
}

// List returns all entries sorted by name.
func (r *Registry) List() []ToolEntry {
	out := make([]ToolEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
