// Package metrics provides interfaces and implementations for collecting
// chat server metrics. This package defines the Collector interface for
// recording metrics; metrics are exposed over HTTP by the admin surface
// (internal/adminhttp), not by a dedicated listener of their own.
package metrics

// Collector defines the interface for recording chat server metrics.
type Collector interface {
	// Connection metrics
	ConnectionOpened()
	ConnectionClosed()
	ConnectionRejected()

	// Authentication metrics
	AuthAttempt(success bool)

	// Command metrics
	CommandProcessed(command string)

	// Broadcast metrics. scope is one of "room", "all", "user".
	BroadcastSent(scope string)

	// Offline mailbox metrics
	MailboxEnqueued()
	MailboxDropped()
	MailboxDrained(count int)
}
