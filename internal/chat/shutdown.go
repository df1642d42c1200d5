package chat

import (
	"context"
	"log/slog"
	"time"
)

// Coordinator drives the shutdown protocol (C8): announce, disconnect every
// session, wait for the read loops to notice, and let the caller close the
// remaining resources (listener, credential watcher, log). Each step is
// independent; a failure in one does not prevent the others, per the
// error-handling design's best-effort shutdown policy.
type Coordinator struct {
	registry    *Registry
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewCoordinator creates a Coordinator over registry and broadcaster.
func NewCoordinator(registry *Registry, broadcaster *Broadcaster, logger *slog.Logger) *Coordinator {
	return &Coordinator{registry: registry, broadcaster: broadcaster, logger: logger}
}

// Shutdown announces the outage to every connected session, then closes
// every session's endpoint so each session's own read loop observes EOF and
// drives itself to CLOSED. It polls the registry until it drains or
// drainTimeout elapses, whichever is first; it never blocks indefinitely,
// since a session stuck mid-send would otherwise hang the whole shutdown.
func (c *Coordinator) Shutdown(drainTimeout time.Duration) {
	c.logger.Info("shutdown coordinator triggered")
	c.broadcaster.ToAll("[Server]: Server is shutting down. Goodbye!")

	c.registry.CloseAll()

	deadline := time.Now().Add(drainTimeout)
	for c.registry.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if remaining := c.registry.Len(); remaining > 0 {
		c.logger.Warn("shutdown drain timed out with sessions still registered", "remaining", remaining)
	} else {
		c.logger.Info("shutdown drain complete")
	}
}

// Run waits for ctx to be cancelled (the signal-driven trigger installed by
// the CLI entrypoint) and then runs Shutdown.
func (c *Coordinator) Run(ctx context.Context, drainTimeout time.Duration) {
	<-ctx.Done()
	c.Shutdown(drainTimeout)
}
