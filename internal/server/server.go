package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/infodancer/netchatd/internal/config"
	"github.com/infodancer/netchatd/internal/logging"
)

// Server owns the TCP listener and the admission controller (C7) that
// gates it.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler ConnectionHandler
	limiter *ConnectionLimiter

	mu       sync.Mutex
	listener *Listener
}

// Config holds configuration for creating a new Server.
type Config struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(sc Config) (*Server, error) {
	logger := sc.Logger
	if logger == nil {
		logger = logging.NewLogger(sc.Cfg.LogLevel)
	}

	return &Server{
		cfg:     sc.Cfg,
		logger:  logger,
		limiter: NewConnectionLimiter(sc.Cfg.Limits.MaxClients),
	}, nil
}

// SetHandler sets the connection handler for the listener. Must be called
// before Run.
func (s *Server) SetHandler(handler ConnectionHandler) {
	s.handler = handler
}

// Limiter returns the server's admission controller, so callers such as
// tests can inspect its occupancy.
func (s *Server) Limiter() *ConnectionLimiter {
	return s.limiter
}

// Run starts the listener and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s.handler == nil {
		return ErrNoHandler
	}

	s.mu.Lock()
	listener := NewListener(ListenerConfig{
		Address:     s.cfg.Listen,
		IdleTimeout: s.cfg.Timeouts.IdleTimeout(),
		Logger:      s.logger,
		Limiter:     s.limiter,
		Handler:     s.handler,
	})
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("starting server",
		slog.String("hostname", s.cfg.Hostname),
		slog.String("listen", s.cfg.Listen),
		slog.Int("max_clients", s.cfg.Limits.MaxClients),
	)

	err := listener.Start(ctx)

	s.logger.Info("server stopped")

	if err != nil && err != context.Canceled {
		return fmt.Errorf("listener %s: %w", listener.Address(), err)
	}
	return ctx.Err()
}

// Shutdown closes the listener, causing Run's accept loop to return.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Config returns the server's configuration.
func (s *Server) Config() *config.Config {
	return s.cfg
}
