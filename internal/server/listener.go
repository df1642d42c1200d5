package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ConnectionHandler services one accepted connection. It must return when
// the connection's read loop observes EOF, an error, or ctx is cancelled.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	Address     string
	IdleTimeout time.Duration
	Logger      *slog.Logger
	Limiter     *ConnectionLimiter
	Handler     ConnectionHandler
}

// Listener accepts TCP connections, gating each accept behind an admission
// permit (C7) before handing the connection to the configured handler.
type Listener struct {
	address     string
	idleTimeout time.Duration
	logger      *slog.Logger
	limiter     *ConnectionLimiter
	handler     ConnectionHandler

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// NewListener creates a Listener from cfg. It does not bind a socket until
// Start is called.
func NewListener(cfg ListenerConfig) *Listener {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		address:     cfg.Address,
		idleTimeout: cfg.IdleTimeout,
		logger:      logger,
		limiter:     cfg.Limiter,
		handler:     cfg.Handler,
	}
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	return l.address
}

// Start binds the listen socket and runs the accept loop until ctx is
// cancelled or Close is called. The admission permit is acquired before
// Accept, matching the admission controller's stated discipline: a
// handshake that arrives while the server is full waits for a permit
// rather than being rejected outright.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.address)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ln.Close()
	}
	l.ln = ln
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if err := l.limiter.Acquire(ctx); err != nil {
			return ctx.Err()
		}

		conn, err := ln.Accept()
		if err != nil {
			l.limiter.Release()
			if l.isClosed() || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			l.logger.Error("accept error", slog.String("error", err.Error()))
			continue
		}

		wg.Add(1)
		go func(raw net.Conn) {
			defer wg.Done()
			defer l.limiter.Release()

			connection := NewConnection(raw, ConnectionConfig{IdleTimeout: l.idleTimeout})
			defer connection.Close()

			l.handler(ctx, connection)
		}(conn)
	}
}

// Close stops the accept loop and closes the listening socket. Safe to
// call more than once and safe to call before Start.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.ln != nil {
		return l.ln.Close()
	}
	return nil
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
