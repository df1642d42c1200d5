package chat

import (
	"container/heap"
	"sync"
	"time"
)

// MailboxEntry is one undelivered private message awaiting its
// recipient's next authentication.
type MailboxEntry struct {
	Recipient string
	Body      string
	Sender    string
	EnqueuedAt time.Time
	Priority  int
}

// mailboxHeap is a max-heap on Priority with FIFO tiebreak, implemented
// via a monotonically increasing sequence number recorded at push time.
type mailboxHeap []mailboxItem

type mailboxItem struct {
	entry MailboxEntry
	seq   uint64
}

func (h mailboxHeap) Len() int { return len(h) }

func (h mailboxHeap) Less(i, j int) bool {
	if h[i].entry.Priority != h[j].entry.Priority {
		return h[i].entry.Priority > h[j].entry.Priority
	}
	return h[i].seq < h[j].seq
}

func (h mailboxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mailboxHeap) Push(x any) {
	*h = append(*h, x.(mailboxItem))
}

func (h *mailboxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EnqueueResult is the outcome of an Offline mailbox enqueue attempt.
type EnqueueResult int

const (
	// EnqueueOK indicates the entry was queued.
	EnqueueOK EnqueueResult = iota
	// EnqueueFull indicates the mailbox was at capacity and the entry
	// was dropped.
	EnqueueFull
)

// Mailbox is the global offline-message priority queue (C3), bounded by a
// fixed capacity. Entries are dequeued highest-priority-first, with FIFO
// order among entries of equal priority.
type Mailbox struct {
	mu       sync.Mutex
	capacity int
	heap     mailboxHeap
	nextSeq  uint64
}

// NewMailbox creates a mailbox with the given capacity.
func NewMailbox(capacity int) *Mailbox {
	m := &Mailbox{capacity: capacity}
	heap.Init(&m.heap)
	return m
}

// Enqueue adds an entry for recipient. Returns EnqueueFull without
// modifying the mailbox if it is already at capacity.
func (m *Mailbox) Enqueue(recipient, body, sender string, priority int, now time.Time) EnqueueResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.heap) >= m.capacity {
		return EnqueueFull
	}

	heap.Push(&m.heap, mailboxItem{
		entry: MailboxEntry{
			Recipient:  recipient,
			Body:       body,
			Sender:     sender,
			EnqueuedAt: now,
			Priority:   priority,
		},
		seq: m.nextSeq,
	})
	m.nextSeq++
	return EnqueueOK
}

// DrainFor atomically removes and returns every entry addressed to
// recipient, in priority order (highest first, FIFO among equal
// priorities). Entries for other recipients are preserved in the
// mailbox, retaining their relative order.
func (m *Mailbox) DrainFor(recipient string) []MailboxEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []mailboxItem
	var kept mailboxHeap
	for _, item := range m.heap {
		if item.entry.Recipient == recipient {
			matched = append(matched, item)
		} else {
			kept = append(kept, item)
		}
	}

	heap.Init(&kept)
	m.heap = kept

	// matched was collected in heap storage order, not priority order;
	// sort it the same way the heap would have dequeued it.
	sortMailboxItems(matched)

	entries := make([]MailboxEntry, len(matched))
	for i, item := range matched {
		entries[i] = item.entry
	}
	return entries
}

// Len returns the number of entries currently queued.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.heap)
}

func sortMailboxItems(items []mailboxItem) {
	h := mailboxHeap(items)
	heap.Init(&h)
	sorted := make([]mailboxItem, 0, len(items))
	for h.Len() > 0 {
		sorted = append(sorted, heap.Pop(&h).(mailboxItem))
	}
	copy(items, sorted)
}
