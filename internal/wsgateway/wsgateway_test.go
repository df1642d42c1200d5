package wsgateway

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/infodancer/netchatd/internal/server"
)

func echoHandler(ctx context.Context, conn *server.Connection) {
	for {
		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			return
		}
		if _, err := conn.Writer().WriteString("echo: " + line); err != nil {
			return
		}
		if err := conn.Flush(); err != nil {
			return
		}
	}
}

func TestGatewayBridgesLinesOverWebsocket(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := NewGateway(echoHandler, 0, logger)

	router := chi.NewRouter()
	gateway.Mount(router, "/chat")

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(data) != "echo: hello" {
		t.Errorf("received = %q, want %q", data, "echo: hello")
	}
}
