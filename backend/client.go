// Package backend provides the HTTP client for the local automation backend.
//
// The backend owns the actual tool logic (screenshot capture, VLM analysis,
// input simulation). The bridge only speaks one contract with it: POST a
// JSON task description to a fixed route, receive a JSON body back.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/config"
	"github.com/BaSui01/waybridge/types"
)

// maxResponseBytes bounds a backend reply body.
const maxResponseBytes = 32 * 1024 * 1024

// Client issues single-attempt calls against the backend. There is no retry:
// a failed attempt surfaces immediately, since the caller is interactive and
// fast visible failure beats silent delay.
type Client struct {
	cfg    config.BackendConfig
	client *http.Client
	logger *zap.Logger
}

// HealthStatus reports backend reachability.
type HealthStatus struct {
	Healthy bool
	Latency time.Duration
}

// NewClient creates a backend client.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(zap.String("component", "backend_client")),
	}
}

// Call POSTs the argument map verbatim to the given route and returns the
// reply body, compacted to a single line so it can be embedded in a
// line-oriented envelope.
//
// Any parseable reply counts as success, regardless of HTTP status: the
// backend encodes its own failures inside the body, and interpreting them is
// the caller's job, not the bridge's. Transport failures and unparseable
// bodies are the only error cases.
func (c *Client) Call(ctx context.Context, path string, args json.RawMessage) (json.RawMessage, *types.Error) {
	endpoint := c.cfg.BaseURL + path

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(args))
	if err != nil {
		return nil, types.NewError(types.ErrBackendUnreachable,
			fmt.Sprintf("backend request invalid: %v", err)).WithCause(err)
	}
	c.buildHeaders(httpReq)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, c.transportError(path, err, time.Since(start))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(path, err, time.Since(start))
	}

	compact := &bytes.Buffer{}
	if err := json.Compact(compact, body); err != nil {
		c.logger.Warn("backend reply unparseable",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return nil, types.NewError(types.ErrBackendMalformed,
			fmt.Sprintf("backend returned unparseable body: %v", err)).WithCause(err)
	}

	c.logger.Debug("backend call completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return compact.Bytes(), nil
}

// HealthCheck probes the backend base URL. Any HTTP response means the
// backend process is reachable; only transport failure is unhealthy.
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/", nil)
	if err != nil {
		return &HealthStatus{Healthy: false}, err
	}

	resp, err := c.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return &HealthStatus{Healthy: true, Latency: latency}, nil
}

func (c *Client) buildHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// transportError maps a transport failure onto the unreachable error code
// with a message that stays distinguishable from decode and registry errors.
func (c *Client) transportError(path string, err error, elapsed time.Duration) *types.Error {
	msg := fmt.Sprintf("backend unreachable: %v", err)
	if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
		msg = fmt.Sprintf("backend request timed out after %s", c.cfg.Timeout)
	}

	c.logger.Warn("backend call failed",
		zap.String("path", path),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	return types.NewError(types.ErrBackendUnreachable, msg).WithCause(err).WithRetryable(true)
}

func isClientTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
