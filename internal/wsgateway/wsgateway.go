// Package wsgateway bridges a websocket text-frame transport onto the same
// server.Connection abstraction the TCP listener uses, so the chat
// protocol handler (A6) runs unmodified on either transport.
package wsgateway

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/infodancer/netchatd/internal/logging"
	"github.com/infodancer/netchatd/internal/server"
)

// Gateway upgrades HTTP requests to websockets and hands each connection to
// the same ConnectionHandler the TCP listener uses.
type Gateway struct {
	upgrader    websocket.Upgrader
	handler     server.ConnectionHandler
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewGateway creates a Gateway that serves handler over upgraded websocket
// connections.
func NewGateway(handler server.ConnectionHandler, idleTimeout time.Duration, logger *slog.Logger) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			// The chat protocol carries no browser-origin session state;
			// any origin may connect, matching the TCP listener's lack of
			// an allowlist.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handler:     handler,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Mount registers the gateway's upgrade endpoint on router at path.
func (g *Gateway) Mount(router chi.Router, path string) {
	router.Get(path, g.serveHTTP)
}

func (g *Gateway) serveHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err.Error())
		return
	}

	conn := server.NewConnection(newConn(wsConn), server.ConnectionConfig{IdleTimeout: g.idleTimeout})
	defer conn.Close()

	g.handler(logging.NewContext(r.Context(), g.logger), conn)
}

// wsNetConn adapts a *websocket.Conn to net.Conn, treating each text frame
// as one LF-free protocol line: Read appends a trailing LF to each frame it
// receives so the line-oriented bufio.Reader above it behaves identically
// to the TCP transport, and Write strips the trailing LF a line arrives
// with before sending it as one text frame.
type wsNetConn struct {
	conn    *websocket.Conn
	pending []byte
}

func newConn(conn *websocket.Conn) net.Conn {
	return &wsNetConn{conn: conn}
}

func (c *wsNetConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.pending = append(data, '\n')
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsNetConn) Write(p []byte) (int, error) {
	line := p
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, line); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsNetConn) Close() error                       { return c.conn.Close() }
func (c *wsNetConn) LocalAddr() net.Addr                { return c.conn.LocalAddr() }
func (c *wsNetConn) RemoteAddr() net.Addr               { return c.conn.RemoteAddr() }
func (c *wsNetConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *wsNetConn) SetReadDeadline(t time.Time) error  { return c.conn.SetReadDeadline(t) }

func (c *wsNetConn) SetDeadline(t time.Time) error {
	if err := c.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.conn.SetWriteDeadline(t)
}
