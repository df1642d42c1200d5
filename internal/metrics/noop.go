package metrics

// NoopCollector is a no-op implementation of the Collector interface.
// All methods are empty stubs that do nothing.
type NoopCollector struct{}

// ConnectionOpened is a no-op.
func (n *NoopCollector) ConnectionOpened() {}

// ConnectionClosed is a no-op.
func (n *NoopCollector) ConnectionClosed() {}

// ConnectionRejected is a no-op.
func (n *NoopCollector) ConnectionRejected() {}

// AuthAttempt is a no-op.
func (n *NoopCollector) AuthAttempt(success bool) {}

// CommandProcessed is a no-op.
func (n *NoopCollector) CommandProcessed(command string) {}

// BroadcastSent is a no-op.
func (n *NoopCollector) BroadcastSent(scope string) {}

// MailboxEnqueued is a no-op.
func (n *NoopCollector) MailboxEnqueued() {}

// MailboxDropped is a no-op.
func (n *NoopCollector) MailboxDropped() {}

// MailboxDrained is a no-op.
func (n *NoopCollector) MailboxDrained(count int) {}
