package chat

import (
	"sync"

	"github.com/google/uuid"
)

const defaultRoom = "general"

// registryEntry is the registry's view of one session: identity, room
// membership, and a reference to the send guard the broadcast fabric uses
// to reach it. It never owns the stream endpoint.
type registryEntry struct {
	handle   uuid.UUID
	username string
	room     string
	sender   Sender
}

// Sender is the narrow interface the broadcast fabric uses to deliver a
// line to one session, without needing to know anything else about it.
// *Session implements Sender.
type Sender interface {
	Send(line string) error
}

// Registry is the live set of sessions with room membership (C4), guarded
// by a single mutex. It is the single source of truth for "who is online
// and where."
type Registry struct {
	mu       sync.Mutex
	maxSlots int
	entries  map[uuid.UUID]*registryEntry
}

// NewRegistry creates a registry bounded at maxClients.
func NewRegistry(maxClients int) *Registry {
	return &Registry{
		maxSlots: maxClients,
		entries:  make(map[uuid.UUID]*registryEntry),
	}
}

// Reserve allocates a slot without a username, used at accept time to
// enforce MAX_CLIENTS before handshake completes. ok is false if the
// registry is already full.
func (r *Registry) Reserve() (handle uuid.UUID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.maxSlots {
		return uuid.UUID{}, false
	}

	handle = uuid.New()
	r.entries[handle] = &registryEntry{handle: handle}
	return handle, true
}

// Bind attaches identity to a reserved handle once authenticated.
func (r *Registry) Bind(handle uuid.UUID, username string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[handle]
	if !ok {
		return
	}
	e.username = username
	e.room = defaultRoom
	e.sender = sender
}

// SetRoom moves handle's session into room, returning the room it was
// previously in.
func (r *Registry) SetRoom(handle uuid.UUID, room string) (oldRoom string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[handle]
	if !ok {
		return ""
	}
	oldRoom = e.room
	e.room = room
	return oldRoom
}

// Room returns handle's current room.
func (r *Registry) Room(handle uuid.UUID) (room string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[handle]
	if !ok {
		return "", false
	}
	return e.room, true
}

// LookupByUsername returns the send target for the first bound session
// bearing username found while iterating the registry, if any. The
// iteration order is unspecified, so among sessions sharing a username
// which one is returned is not defined.
func (r *Registry) LookupByUsername(username string) (Sender, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.username == username && e.sender != nil {
			return e.sender, true
		}
	}
	return nil, false
}

// ListInRoom returns the usernames of every bound session currently in
// room.
func (r *Registry) ListInRoom(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []string
	for _, e := range r.entries {
		if e.room == room && e.username != "" {
			users = append(users, e.username)
		}
	}
	return users
}

// RoomCensus returns a count of bound sessions per room.
func (r *Registry) RoomCensus() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	census := make(map[string]int)
	for _, e := range r.entries {
		if e.username == "" {
			continue
		}
		census[e.room]++
	}
	return census
}

// Snapshot returns the send targets of every session currently in room,
// for the broadcast fabric to deliver to after releasing the registry
// guard. The sender itself may be excluded by the caller.
func (r *Registry) Snapshot(room string) []Sender {
	r.mu.Lock()
	defer r.mu.Unlock()

	var targets []Sender
	for _, e := range r.entries {
		if e.room == room && e.sender != nil {
			targets = append(targets, e.sender)
		}
	}
	return targets
}

// SnapshotAll returns the send targets of every bound session.
func (r *Registry) SnapshotAll() []Sender {
	r.mu.Lock()
	defer r.mu.Unlock()

	var targets []Sender
	for _, e := range r.entries {
		if e.sender != nil {
			targets = append(targets, e.sender)
		}
	}
	return targets
}

// CloseAll closes the endpoint of every bound session, for the shutdown
// coordinator (C8). Closing is the cancellation primitive: it drives each
// session's own read loop to observe EOF and tear itself down, which in
// turn calls Release. CloseAll does not remove entries itself. A sender
// that does not also implement io.Closer (such as a test fake) is skipped.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	senders := make([]Sender, 0, len(r.entries))
	for _, e := range r.entries {
		if e.sender != nil {
			senders = append(senders, e.sender)
		}
	}
	r.mu.Unlock()

	for _, sender := range senders {
		if closer, ok := sender.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}

// Release removes handle's slot.
func (r *Registry) Release(handle uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, handle)
}

// Len returns the current number of reserved slots, bound or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
