package server

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// ConnectionConfig configures a Connection wrapper around an accepted
// net.Conn.
type ConnectionConfig struct {
	// IdleTimeout bounds how long the connection may sit with no bytes
	// read before ResetIdleTimeout is next called. Zero disables the
	// timeout entirely, matching the reference's indefinite reads.
	IdleTimeout time.Duration
}

// Connection wraps a net.Conn with buffered line I/O and an idle-timeout
// safety net. One Connection is owned by exactly one session; other
// goroutines reach the peer only through the session's send guard, never
// through the Connection directly.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	idleTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewConnection wraps conn, applying cfg.
func NewConnection(conn net.Conn, cfg ConnectionConfig) *Connection {
	c := &Connection{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		writer:      bufio.NewWriter(conn),
		idleTimeout: cfg.IdleTimeout,
	}
	c.ResetIdleTimeout()
	return c
}

// Reader returns the buffered reader over the connection.
func (c *Connection) Reader() *bufio.Reader {
	return c.reader
}

// Writer returns the buffered writer over the connection.
func (c *Connection) Writer() *bufio.Writer {
	return c.writer
}

// Flush flushes any buffered output to the peer.
func (c *Connection) Flush() error {
	return c.writer.Flush()
}

// RemoteAddr returns the peer's network address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ResetIdleTimeout pushes the read deadline out by the configured idle
// timeout. It is called once on construction and again after every
// successful line read. A zero IdleTimeout clears any deadline, giving
// indefinite reads.
func (c *Connection) ResetIdleTimeout() error {
	if c.idleTimeout <= 0 {
		return c.conn.SetReadDeadline(time.Time{})
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
}

// IsClosed reports whether Close has already been called.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes the underlying connection. Safe to call more than once;
// only the first call has effect. This is the cancellation primitive used
// by both a session's own teardown and the shutdown coordinator.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
