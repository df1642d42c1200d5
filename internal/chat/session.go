package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/infodancer/netchatd/internal/server"
)

// State is a session's position in the connection lifecycle (C6):
//
//	ACCEPTED -> AUTHENTICATING -> ACTIVE -> LEAVING -> CLOSED
//
// A rejected handshake moves straight from AUTHENTICATING to CLOSED, and a
// peer that disconnects mid-handshake goes from ACCEPTED to CLOSED.
type State int

const (
	StateAccepted State = iota
	StateAuthenticating
	StateActive
	StateLeaving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "ACCEPTED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateActive:
		return "ACTIVE"
	case StateLeaving:
		return "LEAVING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Session is one connected client's state machine and send endpoint (C6).
// It implements Sender so the broadcast fabric and offline-mailbox drain
// can deliver to it directly; every Send call is serialized through
// sendMu so concurrent broadcasts never interleave bytes on one stream.
type Session struct {
	Handle    uuid.UUID
	conn      *server.Connection
	createdAt time.Time

	mu       sync.Mutex
	state    State
	username string
	room     string

	sendMu sync.Mutex
}

// NewSession creates a Session in the ACCEPTED state around conn, with the
// registry handle assigned at Reserve time.
func NewSession(handle uuid.UUID, conn *server.Connection) *Session {
	return &Session{
		Handle:    handle,
		conn:      conn,
		createdAt: time.Now(),
		state:     StateAccepted,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session to state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Username returns the session's authenticated username, or "" before
// authentication completes.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// SetUsername records the authenticated username.
func (s *Session) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// Room returns the session's cached current room. The registry remains the
// source of truth; this cache lets the read loop format chat lines without
// a registry round trip per line.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// SetRoom updates the session's cached current room.
func (s *Session) SetRoom(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
}

// CreatedAt returns the time the session was accepted.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Send writes line, followed by a newline, to the underlying connection,
// flushing immediately. It is safe for concurrent use by any number of
// broadcaster goroutines and the session's own read loop.
func (s *Session) Send(line string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.conn.IsClosed() {
		return server.ErrConnectionClosed
	}

	if _, err := s.conn.Writer().WriteString(line); err != nil {
		return err
	}
	if err := s.conn.Writer().WriteByte('\n'); err != nil {
		return err
	}
	return s.conn.Flush()
}

// ReadLine blocks for the next newline-terminated line from the peer,
// resetting the idle-timeout deadline on success.
func (s *Session) ReadLine() (string, error) {
	line, err := s.conn.Reader().ReadString('\n')
	if err != nil {
		return "", err
	}
	_ = s.conn.ResetIdleTimeout()
	return line, nil
}

// Close closes the underlying connection and marks the session CLOSED.
func (s *Session) Close() error {
	s.SetState(StateClosed)
	return s.conn.Close()
}

// RemoteAddr returns the peer's network address, for logging.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
