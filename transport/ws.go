// Package transport exposes the line protocol over listeners other than
// stdio. Each accepted connection gets its own pipeline session, so the
// one-line-in, one-line-out contract holds per connection.
package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/internal/server"
)

// SessionRunner runs one protocol session over a stream pair. It returns
// when the input side ends or the output side is lost.
type SessionRunner func(ctx context.Context, in io.Reader, out io.Writer) error

// WSServer serves the line protocol over websocket connections. Text
// messages carry request lines; each response goes back as one text
// message containing the response line.
type WSServer struct {
	manager *server.Manager
	run     SessionRunner
	logger  *zap.Logger
}

// NewWSServer creates a websocket listener on addr. The runner is invoked
// once per accepted connection.
func NewWSServer(addr string, run SessionRunner, logger *zap.Logger) *WSServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "ws_transport"))

	s := &WSServer{run: run, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handle)

	cfg := server.DefaultConfig()
	cfg.Addr = addr
	// Websocket connections outlive request timeouts.
	cfg.ReadTimeout = 0
	cfg.WriteTimeout = 0
	s.manager = server.NewManager(mux, cfg, logger)
	return s
}

// Start begins accepting connections in the background.
func (s *WSServer) Start() error {
	return s.manager.Start()
}

// Shutdown stops the listener and drains open connections.
func (s *WSServer) Shutdown(ctx context.Context) error {
	return s.manager.Shutdown(ctx)
}

// Addr returns the bound listen address.
func (s *WSServer) Addr() string {
	return s.manager.Addr()
}

func (s *WSServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"waybridge"},
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	s.logger.Info("connection opened", zap.String("remote", r.RemoteAddr))

	// NetConn turns the message stream into a byte stream, so the same
	// line pipeline that serves stdio serves websocket clients.
	nc := websocket.NetConn(r.Context(), conn, websocket.MessageText)

	if err := s.run(r.Context(), nc, nc); err != nil {
		s.logger.Warn("session ended with error",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err))
		conn.Close(websocket.StatusInternalError, "session failed")
		return
	}

	s.logger.Info("connection closed", zap.String("remote", r.RemoteAddr))
	conn.Close(websocket.StatusNormalClosure, "")
}
