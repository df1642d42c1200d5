package chat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/infodancer/netchatd/internal/logging"
	"github.com/infodancer/netchatd/internal/metrics"
	"github.com/infodancer/netchatd/internal/server"
)

// Handler creates the chat protocol handler. The components it closes over
// (credentials, registry, mailbox, recent, broadcaster) are shared across
// every connection the handler serves.
func Handler(credentials *CredentialStore, registry *Registry, mailbox *Mailbox, recent *RecentRing, broadcaster *Broadcaster, collector metrics.Collector) server.ConnectionHandler {
	return func(ctx context.Context, conn *server.Connection) {
		handleConnection(ctx, conn, credentials, registry, mailbox, recent, broadcaster, collector)
	}
}

// handleConnection drives one client through the C6 session state machine:
// handshake, ACTIVE read loop, teardown.
func handleConnection(ctx context.Context, conn *server.Connection, credentials *CredentialStore, registry *Registry, mailbox *Mailbox, recent *RecentRing, broadcaster *Broadcaster, collector metrics.Collector) {
	logger := logging.FromContext(ctx)

	collector.ConnectionOpened()
	defer collector.ConnectionClosed()

	handle, ok := registry.Reserve()
	if !ok {
		logger.Info("rejecting connection, registry full", "remote_addr", conn.RemoteAddr().String())
		collector.ConnectionRejected()
		sendRaw(conn, "[Server]: Server full. Try again later.")
		return
	}
	defer registry.Release(handle)

	session := NewSession(handle, conn)
	defer session.Close()

	username, password, err := readHandshake(session)
	if err != nil {
		if err != io.EOF {
			logger.Info("handshake failed", "error", err.Error())
		}
		return
	}

	session.SetState(StateAuthenticating)

	if username == "" || password == "" {
		logger.Info("rejecting handshake, empty credential field")
		_ = session.Send("[Server]: ERROR: Invalid credentials. Disconnecting...")
		return
	}

	result, err := credentials.Verify(username, password)
	if err != nil {
		logger.Error("credential verification error", "error", err.Error())
		_ = session.Send("[Server]: ERROR: Internal server error. Disconnecting...")
		return
	}
	collector.AuthAttempt(result == VerifyOK)

	if result == VerifyWrongPassword {
		logger.Info("rejecting handshake, wrong password", "username", username)
		_ = session.Send("ERROR: Wrong password. Disconnecting...")
		return
	}

	session.SetState(StateActive)
	session.SetUsername(username)
	session.SetRoom(defaultRoom)
	registry.Bind(handle, username, session)

	logger.Info("session authenticated", "username", username, "remote_addr", conn.RemoteAddr().String())

	drainOfflineMailbox(session, mailbox, collector)
	broadcaster.ToRoom(formatJoin(username, defaultRoom), session, defaultRoom)

	runActiveLoop(ctx, session, registry, mailbox, recent, broadcaster, collector, logger)

	session.SetState(StateLeaving)
	registry.Release(handle)
	broadcaster.ToAll(formatLeave(username, session.Room()))
}

// readHandshake reads the two LF-terminated handshake lines (username then
// password) and sanitizes both. A premature EOF is returned unchanged so
// the caller can close the connection silently, per the reference.
func readHandshake(session *Session) (username, password string, err error) {
	usernameLine, err := session.ReadLine()
	if err != nil {
		return "", "", err
	}
	passwordLine, err := session.ReadLine()
	if err != nil {
		return "", "", err
	}
	return sanitizeField(strings.TrimRight(usernameLine, "\r\n")), sanitizeField(strings.TrimRight(passwordLine, "\r\n")), nil
}

// drainOfflineMailbox writes every queued offline message to session's own
// endpoint, tagged as an offline delivery. Invoked exactly once, immediately
// after authentication, before the join announcement.
func drainOfflineMailbox(session *Session, mailbox *Mailbox, collector metrics.Collector) {
	entries := mailbox.DrainFor(session.Username())
	if len(entries) == 0 {
		return
	}
	for _, entry := range entries {
		_ = session.Send(fmt.Sprintf("[Offline Message]: From %s: %s", entry.Sender, entry.Body))
	}
	collector.MailboxDrained(len(entries))
}

// runActiveLoop is the ACTIVE-state read loop: classify each received line
// and dispatch it. It returns when the peer closes, a read error occurs
// (including the endpoint being closed by the shutdown coordinator), or ctx
// is found cancelled between lines.
func runActiveLoop(ctx context.Context, session *Session, registry *Registry, mailbox *Mailbox, recent *RecentRing, broadcaster *Broadcaster, collector metrics.Collector, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if session.conn.IsClosed() {
			return
		}

		line, err := session.ReadLine()
		if err != nil {
			return
		}

		dispatch(session, registry, mailbox, recent, broadcaster, collector, logger, line)
	}
}

// dispatch classifies one received line and carries out its effect.
func dispatch(session *Session, registry *Registry, mailbox *Mailbox, recent *RecentRing, broadcaster *Broadcaster, collector metrics.Collector, logger *slog.Logger, line string) {
	username := session.Username()

	switch cmd := Classify(line).(type) {
	case PrivateMessageCommand:
		collector.CommandProcessed("pm")
		switch broadcaster.ToUser(cmd.Body, cmd.Target, username) {
		case PMDelivered:
			_ = session.Send(fmt.Sprintf("[PM to %s]: %s", cmd.Target, cmd.Body))
		case PMQueued:
			_ = session.Send("[Server]: User offline. Message queued for delivery.")
		case PMMailboxFull:
			_ = session.Send("[Server]: User offline and mailbox full. Message dropped.")
		}

	case HelpCommand:
		collector.CommandProcessed("help")
		for _, helpLine := range helpText {
			_ = session.Send(helpLine)
		}

	case RecentCommand:
		collector.CommandProcessed("recent")
		entries := recent.Snapshot()
		if len(entries) == 0 {
			_ = session.Send("[Server]: No recent messages.")
			break
		}
		for _, entry := range entries {
			_ = session.Send(entry)
		}

	case JoinCommand:
		collector.CommandProcessed("join")
		handleJoin(session, registry, broadcaster, cmd.Room)

	case RoomCommand:
		collector.CommandProcessed("room")
		_ = session.Send("[Server]: You are in #" + session.Room())

	case RoomListCommand:
		collector.CommandProcessed("rooms")
		census := registry.RoomCensus()
		if len(census) == 0 {
			_ = session.Send("[Server]: No active rooms.")
			break
		}
		for room, count := range census {
			_ = session.Send(fmt.Sprintf("[Server]: #%s: %d user(s)", room, count))
		}

	case UserListCommand:
		collector.CommandProcessed("users")
		users := registry.ListInRoom(session.Room())
		_ = session.Send("[Server]: Users in #" + session.Room() + ": " + strings.Join(users, ", "))

	case ChatCommand:
		if cmd.Text == "" {
			return
		}
		collector.CommandProcessed("chat")
		room := session.Room()
		formatted := fmt.Sprintf("[%s] [#%s] %s: %s", time.Now().Format("15:04:05"), room, username, cmd.Text)
		broadcaster.ToRoom(formatted, session, room)
		recent.Append(formatted)
		logger.Info("chat message", "username", username, "room", room)
	}
}

// handleJoin validates and carries out a room change, announcing the
// departure and arrival to the old and new rooms respectively.
func handleJoin(session *Session, registry *Registry, broadcaster *Broadcaster, room string) {
	room = sanitizeRoomName(room)
	if room == "" {
		_ = session.Send("[Server]: ERROR: Room name required.")
		return
	}

	username := session.Username()
	oldRoom := session.Room()

	if room == oldRoom {
		_ = session.Send("[Server]: Already in #" + room)
		return
	}

	registry.SetRoom(session.Handle, room)
	session.SetRoom(room)

	broadcaster.ToRoom(formatLeave(username, oldRoom), session, oldRoom)
	broadcaster.ToRoom(formatJoin(username, room), session, room)
	_ = session.Send("[Server]: Joined #" + room)
}

// helpText is the fixed multi-line response to /help.
var helpText = []string{
	"[Server]: Available commands:",
	"[Server]:   /pm <user> <message>  - send a private message",
	"[Server]:   /join <room>          - change rooms",
	"[Server]:   /room                 - show your current room",
	"[Server]:   /rooms                - list rooms and occupant counts",
	"[Server]:   /users                - list users in your current room",
	"[Server]:   /recent               - show recently broadcast messages",
	"[Server]:   /help                 - show this text",
}

func formatJoin(username, room string) string {
	return "[Server]: " + username + " joined #" + room
}

func formatLeave(username, room string) string {
	return "[Server]: " + username + " left #" + room
}

// sendRaw writes message directly to conn, for use before a Session exists
// (the registry-full rejection path).
func sendRaw(conn *server.Connection, message string) {
	if _, err := conn.Writer().WriteString(message + "\n"); err != nil {
		return
	}
	_ = conn.Flush()
}
