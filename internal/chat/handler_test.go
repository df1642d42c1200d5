package chat_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/infodancer/netchatd/internal/chat"
	"github.com/infodancer/netchatd/internal/metrics"
	"github.com/infodancer/netchatd/internal/server"
)

// harness wires a fresh set of chat components and a Handler for use with
// net.Pipe clients, mirroring the reference's single-stack test pattern.
type harness struct {
	credentials *chat.CredentialStore
	registry    *chat.Registry
	mailbox     *chat.Mailbox
	recent      *chat.RecentRing
	broadcaster *chat.Broadcaster
	handler     server.ConnectionHandler
}

func newHarness(t *testing.T, maxClients int) *harness {
	t.Helper()

	dir := t.TempDir()
	credentials := chat.NewCredentialStore(filepath.Join(dir, "users.txt"))
	registry := chat.NewRegistry(maxClients)
	mailbox := chat.NewMailbox(10)
	recent := chat.NewRecentRing(20)
	collector := &metrics.NoopCollector{}
	broadcaster := chat.NewBroadcaster(registry, mailbox, collector)

	return &harness{
		credentials: credentials,
		registry:    registry,
		mailbox:     mailbox,
		recent:      recent,
		broadcaster: broadcaster,
		handler:     chat.Handler(credentials, registry, mailbox, recent, broadcaster, collector),
	}
}

// chatPipe is a thin client stub driving the handler over net.Pipe.
type chatPipe struct {
	conn net.Conn
	r    *bufio.Reader
}

func (h *harness) dial(t *testing.T) *chatPipe {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	go h.handler(context.Background(), server.NewConnection(serverConn, server.ConnectionConfig{}))

	return &chatPipe{conn: clientConn, r: bufio.NewReader(clientConn)}
}

func (c *chatPipe) send(line string) {
	_, _ = fmt.Fprintf(c.conn, "%s\n", line)
}

func (c *chatPipe) readLine(t *testing.T) string {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

func (c *chatPipe) login(t *testing.T, username, password string) {
	t.Helper()
	c.send(username)
	c.send(password)
}

func TestHandlerRegistrationThenChat(t *testing.T) {
	h := newHarness(t, 10)

	alice := h.dial(t)
	alice.login(t, "alice", "secret")
	// alice's own join announcement excludes her, and she is alone in the
	// room, so nothing is delivered to anyone at this point.

	bob := h.dial(t)
	bob.login(t, "bob", "hunter2")
	// bob's join announcement excludes bob; alice, still in #general,
	// receives it.
	if join := alice.readLine(t); !strings.Contains(join, "bob joined #general") {
		t.Fatalf("alice join notice = %q", join)
	}

	alice.send("hello")
	line := bob.readLine(t)
	if !strings.Contains(line, "[#general] alice: hello") {
		t.Fatalf("bob received = %q", line)
	}

	bob.send("/users")
	roster := bob.readLine(t)
	if !strings.Contains(roster, "alice") || !strings.Contains(roster, "bob") {
		t.Fatalf("roster = %q, want alice and bob", roster)
	}
}

func TestHandlerWrongPasswordDisconnects(t *testing.T) {
	h := newHarness(t, 10)

	carol := h.dial(t)
	carol.login(t, "carol", "pw1")
	// carol's own join announcement excludes her and there is no one else
	// to receive it, so there is nothing to read here.

	intruder := h.dial(t)
	intruder.login(t, "carol", "pw2")
	resp := intruder.readLine(t)
	if resp != "ERROR: Wrong password. Disconnecting..." {
		t.Fatalf("resp = %q", resp)
	}

	if _, err := intruder.r.ReadString('\n'); err == nil {
		t.Fatal("expected connection to be closed after wrong password")
	}
}

func TestHandlerRoomIsolation(t *testing.T) {
	h := newHarness(t, 10)

	alice := h.dial(t)
	alice.login(t, "alice", "x")

	bob := h.dial(t)
	bob.login(t, "bob", "y")
	if join := alice.readLine(t); !strings.Contains(join, "bob joined #general") {
		t.Fatalf("alice join notice = %q", join)
	}

	alice.send("/join games")
	if leave := bob.readLine(t); !strings.Contains(leave, "alice left #general") {
		t.Fatalf("bob leave notice = %q", leave)
	}
	if confirm := alice.readLine(t); confirm != "[Server]: Joined #games" {
		t.Fatalf("join confirm = %q", confirm)
	}

	bob.send("hi")
	// alice, now in #games, should not receive bob's #general chat line.
	done := make(chan string, 1)
	go func() {
		line, err := alice.r.ReadString('\n')
		if err != nil {
			done <- ""
			return
		}
		done <- line
	}()

	select {
	case line := <-done:
		if line != "" {
			t.Fatalf("alice unexpectedly received: %q", line)
		}
	case <-time.After(200 * time.Millisecond):
		// good: nothing arrived
	}
}

func TestHandlerOfflinePrivateMessage(t *testing.T) {
	h := newHarness(t, 10)

	alice := h.dial(t)
	alice.login(t, "alice", "x")

	alice.send("/pm dave see you later")
	confirm := alice.readLine(t)
	if confirm != "[Server]: User offline. Message queued for delivery." {
		t.Fatalf("confirm = %q", confirm)
	}

	dave := h.dial(t)
	dave.login(t, "dave", "anything")
	offline := dave.readLine(t)
	if !strings.Contains(offline, "[Offline Message]: From alice: see you later") {
		t.Fatalf("offline message = %q", offline)
	}
}

func TestHandlerServerFullRejectsConnection(t *testing.T) {
	h := newHarness(t, 1)

	first := h.dial(t)
	first.login(t, "alice", "x")

	second := h.dial(t)
	msg := second.readLine(t)
	if msg != "[Server]: Server full. Try again later." {
		t.Fatalf("msg = %q", msg)
	}
}
