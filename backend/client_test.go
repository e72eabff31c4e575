package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/waybridge/config"
	"github.com/BaSui01/waybridge/types"
)

func newTestClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(config.BackendConfig{
		BaseURL: baseURL,
		Timeout: timeout,
	}, nil)
}

func TestCall_EchoRoundTrip(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok", "detail": {"a": 1, "b": "x"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 5*time.Second)
	result, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{"task":"open firefox"}`))
	require.Nil(t, callErr)

	assert.Equal(t, "/execute", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"task":"open firefox"}`, string(gotBody))
	// The pretty-printed reply is compacted so it fits one output line.
	assert.Equal(t, `{"status":"ok","detail":{"a":1,"b":"x"}}`, string(result))
}

func TestCall_Non2xxParseableBodyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "backend exploded"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 5*time.Second)
	result, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{}`))

	// The backend reports its own failures inside the body; the bridge
	// relays them rather than second-guessing the status code.
	require.Nil(t, callErr)
	assert.Equal(t, `{"error":"backend exploded"}`, string(result))
}

func TestCall_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := newTestClient(srv.URL, 2*time.Second)
	result, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{}`))

	require.NotNil(t, callErr)
	assert.Nil(t, result)
	assert.Equal(t, types.ErrBackendUnreachable, callErr.Code)
	assert.Contains(t, callErr.Message, "backend unreachable")
	assert.True(t, callErr.Retryable)
}

func TestCall_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>Internal Server Error</html>`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 5*time.Second)
	result, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{}`))

	require.NotNil(t, callErr)
	assert.Nil(t, result)
	assert.Equal(t, types.ErrBackendMalformed, callErr.Code)
	assert.Contains(t, callErr.Message, "unparseable")
}

func TestCall_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 50*time.Millisecond)
	_, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{}`))

	require.NotNil(t, callErr)
	assert.Equal(t, types.ErrBackendUnreachable, callErr.Code)
	assert.Contains(t, callErr.Message, "timed out")
}

func TestCall_APIKeyHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second, APIKey: "sk-test"}, nil)
	_, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{}`))
	require.Nil(t, callErr)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestCall_TrailingSlashBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL+"/", time.Second)
	_, callErr := c.Call(context.Background(), "/execute", json.RawMessage(`{}`))
	require.Nil(t, callErr)
	assert.Equal(t, "/execute", gotPath)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Even a 404 proves the process is alive.
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	status, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Latency, time.Duration(0))
}

func TestHealthCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL, time.Second)
	status, err := c.HealthCheck(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
}
