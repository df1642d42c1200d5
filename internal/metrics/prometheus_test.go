package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCollectorConnections(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.ConnectionRejected()

	if got := testutil.ToFloat64(c.connectionsTotal); got != 2 {
		t.Errorf("connectionsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.connectionsActive); got != 1 {
		t.Errorf("connectionsActive = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.connectionsRejected); got != 1 {
		t.Errorf("connectionsRejected = %v, want 1", got)
	}
}

func TestPrometheusCollectorAuthAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.AuthAttempt(true)
	c.AuthAttempt(false)
	c.AuthAttempt(true)

	if got := testutil.ToFloat64(c.authAttemptsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("auth success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.authAttemptsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("auth failure = %v, want 1", got)
	}
}

func TestPrometheusCollectorBroadcastSent(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.BroadcastSent("room")
	c.BroadcastSent("room")
	c.BroadcastSent("all")

	if got := testutil.ToFloat64(c.broadcastsTotal.WithLabelValues("room")); got != 2 {
		t.Errorf("broadcasts[room] = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.broadcastsTotal.WithLabelValues("all")); got != 1 {
		t.Errorf("broadcasts[all] = %v, want 1", got)
	}
}

func TestPrometheusCollectorMailbox(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.MailboxEnqueued()
	c.MailboxDropped()
	c.MailboxDrained(3)

	if got := testutil.ToFloat64(c.mailboxEnqueuedTotal); got != 1 {
		t.Errorf("mailboxEnqueuedTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mailboxDroppedTotal); got != 1 {
		t.Errorf("mailboxDroppedTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mailboxDrainedTotal); got != 3 {
		t.Errorf("mailboxDrainedTotal = %v, want 3", got)
	}
}

func TestNoopCollector(t *testing.T) {
	var c Collector = &NoopCollector{}
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.ConnectionRejected()
	c.AuthAttempt(true)
	c.CommandProcessed("join")
	c.BroadcastSent("room")
	c.MailboxEnqueued()
	c.MailboxDropped()
	c.MailboxDrained(1)
}
