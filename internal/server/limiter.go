package server

import "context"

// ConnectionLimiter is a counting semaphore bounding the number of
// concurrently active sessions. It backs the admission controller (C7):
// the accept loop acquires one permit per connection and releases it
// exactly once, on every exit path of the session.
type ConnectionLimiter struct {
	slots chan struct{}
}

// NewConnectionLimiter creates a limiter with the specified maximum.
func NewConnectionLimiter(max int) *ConnectionLimiter {
	l := &ConnectionLimiter{slots: make(chan struct{}, max)}
	for i := 0; i < max; i++ {
		l.slots <- struct{}{}
	}
	return l
}

// TryAcquire attempts to acquire a connection slot without blocking.
// Returns true if successful, false if at capacity.
func (l *ConnectionLimiter) TryAcquire() bool {
	select {
	case <-l.slots:
		return true
	default:
		return false
	}
}

// Acquire blocks until a permit is available or ctx is done. This is the
// admission discipline chosen for this implementation: a handshake that
// arrives when the server is full waits rather than being rejected (see
// the Admission bound design note).
func (l *ConnectionLimiter) Acquire(ctx context.Context) error {
	select {
	case <-l.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a connection slot. Safe to call even if the limiter is
// already at full capacity; the extra permit is discarded rather than
// overflowing the channel.
func (l *ConnectionLimiter) Release() {
	select {
	case l.slots <- struct{}{}:
	default:
	}
}

// Current returns the current active connection count.
func (l *ConnectionLimiter) Current() int64 {
	return int64(cap(l.slots) - len(l.slots))
}
