package chat

import (
	"time"

	"github.com/infodancer/netchatd/internal/metrics"
)

// Broadcaster delivers a message to a computed recipient set (C5): a
// room, everyone, or a single user with offline fallback. It never holds
// the registry guard across a send: it snapshots the recipient set,
// releases the guard, then sends to each recipient's own guard
// individually.
type Broadcaster struct {
	registry *Registry
	mailbox  *Mailbox
	metrics  metrics.Collector
}

// NewBroadcaster creates a Broadcaster over registry and mailbox.
func NewBroadcaster(registry *Registry, mailbox *Mailbox, collector metrics.Collector) *Broadcaster {
	return &Broadcaster{registry: registry, mailbox: mailbox, metrics: collector}
}

// ToRoom sends message to every session in room except sender (when
// sender is non-nil).
func (b *Broadcaster) ToRoom(message string, sender Sender, room string) {
	targets := b.registry.Snapshot(room)
	b.metrics.BroadcastSent("room")
	for _, target := range targets {
		if sender != nil && target == sender {
			continue
		}
		_ = target.Send(message)
	}
}

// ToAll sends message to every session.
func (b *Broadcaster) ToAll(message string) {
	targets := b.registry.SnapshotAll()
	b.metrics.BroadcastSent("all")
	for _, target := range targets {
		_ = target.Send(message)
	}
}

// PMResult is the outcome of a private-message delivery attempt.
type PMResult int

const (
	// PMDelivered indicates the target was online and received the
	// message immediately.
	PMDelivered PMResult = iota
	// PMQueued indicates the target was offline and the message was
	// stored in the offline mailbox.
	PMQueued
	// PMMailboxFull indicates the target was offline and the offline
	// mailbox was already at capacity, so the message was dropped.
	PMMailboxFull
)

// ToUser delivers message to the first authenticated session bearing
// targetUsername. If none is online, the message is enqueued into the
// offline mailbox with priority 1 (private messages are urgent).
func (b *Broadcaster) ToUser(body, targetUsername, senderUsername string) PMResult {
	b.metrics.BroadcastSent("user")

	if target, ok := b.registry.LookupByUsername(targetUsername); ok {
		_ = target.Send(formatPrivateMessage(senderUsername, body))
		return PMDelivered
	}

	result := b.mailbox.Enqueue(targetUsername, body, senderUsername, 1, time.Now())
	if result == EnqueueFull {
		b.metrics.MailboxDropped()
		return PMMailboxFull
	}
	b.metrics.MailboxEnqueued()
	return PMQueued
}

func formatPrivateMessage(sender, body string) string {
	return "[PM from " + sender + "]: " + body
}
