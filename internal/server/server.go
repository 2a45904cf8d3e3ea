// Package server exposes a Memory over WebSocket.
//
// Each connection carries a sequence of JSON requests, each answered by one
// response with the same id. Operations run against a single shared Memory,
// so every client sees every other client's seeds.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. "localhost:8585".
	Addr string

	// SnapshotPath is written on save requests, every SaveInterval and on
	// shutdown. Empty disables persistence.
	SnapshotPath string

	// TickInterval runs Tick periodically. 0 disables.
	TickInterval time.Duration

	// SaveInterval saves the snapshot periodically. 0 disables.
	SaveInterval time.Duration
}

// Server serves one Memory to many WebSocket clients.
type Server struct {
	mem      *resonance.Memory
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	handlers map[string]Handler

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates a server for mem and registers every operation.
func New(mem *resonance.Memory, cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		mem:    mem,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local use
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		handlers: make(map[string]Handler),
		conns:    make(map[*websocket.Conn]struct{}),
	}
	s.registerAll()
	return s
}

func (s *Server) registerAll() {
	s.handlers[OpStore] = newStoreHandler(s.mem)
	s.handlers[OpRecall] = newRecallHandler(s.mem)
	s.handlers[OpBloom] = newBloomHandler(s.mem)
	s.handlers[OpTick] = newTickHandler(s.mem)
	s.handlers[OpGet] = newGetHandler(s.mem)
	s.handlers[OpForget] = newForgetHandler(s.mem)
	s.handlers[OpList] = newListHandler(s.mem)
	s.handlers[OpStats] = newStatsHandler(s.mem)
	s.handlers[OpSave] = newSaveHandler(s.mem, s.cfg.SnapshotPath)
}

// Handler returns the HTTP routes: /ws for the protocol and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Dispatch runs one request and builds its response.
func (s *Server) Dispatch(ctx context.Context, req Request) Response {
	handler, ok := s.handlers[req.Op]
	if !ok {
		handler = func(context.Context, json.RawMessage) (any, error) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOp, req.Op)
		}
	}
	handler = logRequests(s.logger, req.Op, handler)

	resp := Response{ID: req.ID}
	result, err := handler(ctx, req.Payload)
	if err != nil {
		resp.Error = errorFor(err)
		return resp
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = errorFor(fmt.Errorf("encode result: %w", err))
		return resp
	}
	resp.Result = data
	return resp
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.logger.Debug("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	s.logger.Debug("client connected", "remote", r.RemoteAddr)
	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("connection closed", "error", err, "remote", r.RemoteAddr)
			}
			return
		}

		var req Request
		var resp Response
		if err := json.Unmarshal(data, &req); err != nil {
			resp = Response{Error: errorFor(fmt.Errorf("%w: malformed request: %v", resonance.ErrInvalidArgument, err))}
		} else {
			resp = s.Dispatch(ctx, req)
		}

		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("write response failed", "error", err, "remote", r.RemoteAddr)
			return
		}
	}
}

func (s *Server) track(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
	conn.Close()
}

// closeConns drops every open connection; hijacked connections are not
// closed by http.Server.Shutdown.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, running the
// periodic tick and save loops alongside. On shutdown the snapshot is saved
// one last time.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()
	s.logger.Info("server listening", "addr", ln.Addr().String())

	var wg sync.WaitGroup
	if s.cfg.TickInterval > 0 {
		wg.Go(func() { s.every(ctx, s.cfg.TickInterval, s.tick) })
	}
	if s.cfg.SaveInterval > 0 && s.cfg.SnapshotPath != "" {
		wg.Go(func() { s.every(ctx, s.cfg.SaveInterval, s.save) })
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve: %w", err)
		}
	}
	cancel()

	s.logger.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server forced to shutdown", "error", err)
	}
	s.closeConns()
	wg.Wait()

	if s.cfg.SnapshotPath != "" {
		s.save()
	}
	s.logger.Info("server stopped")
	return runErr
}

// every calls fn on each tick of interval until ctx is done.
func (s *Server) every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (s *Server) tick() {
	if err := s.mem.Tick(); err != nil {
		s.logger.Error("periodic tick failed", "error", err)
	}
}

func (s *Server) save() {
	if err := os.MkdirAll(filepath.Dir(s.cfg.SnapshotPath), 0755); err != nil {
		s.logger.Error("create snapshot dir failed", "error", err)
		return
	}
	if err := s.mem.Save(s.cfg.SnapshotPath); err != nil {
		s.logger.Error("periodic save failed", "error", err, "path", s.cfg.SnapshotPath)
	}
}
