package server

import (
	"context"
	"testing"
	"time"

	"github.com/infodancer/netchatd/internal/config"
)

func TestServerRunRequiresHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = reserveLoopbackAddr(t)

	srv, err := New(Config{Cfg: &cfg})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := srv.Run(context.Background()); err != ErrNoHandler {
		t.Errorf("Run() error = %v, want ErrNoHandler", err)
	}
}

func TestServerRunAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = reserveLoopbackAddr(t)

	srv, err := New(Config{Cfg: &cfg})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.SetHandler(func(ctx context.Context, conn *Connection) {})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	waitForListen(t, cfg.Listen)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestServerLimiterSizedFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxClients = 3

	srv, err := New(Config{Cfg: &cfg})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if srv.Limiter().Current() != 0 {
		t.Fatalf("fresh limiter Current() = %d, want 0", srv.Limiter().Current())
	}

	for i := 0; i < 3; i++ {
		if !srv.Limiter().TryAcquire() {
			t.Fatalf("TryAcquire() %d should succeed", i)
		}
	}
	if srv.Limiter().TryAcquire() {
		t.Error("TryAcquire() should fail once max_clients permits are held")
	}
}
