package chat

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/infodancer/chatd/internal/server"
)

// DefaultRoom is the room every session joins on authentication.
const DefaultRoom = "general"

// MaxRoomNameLen is the maximum length in bytes of a room name.
const MaxRoomNameLen = 30

// Handle identifies a registered session. Handles are opaque and allocated
// monotonically, never reused within a process lifetime.
type Handle uint64

// NoSender is the zero Handle, used by broadcasts that exclude nobody.
const NoSender Handle = 0

// member is one registry slot. A slot is reserved at accept time and bound
// to an identity after authentication.
type member struct {
	handle    Handle
	conn      *server.Connection
	username  string
	room      string
	createdAt time.Time
	bound     bool
}

// Registry is the live set of sessions and the single source of truth for
// who is online and in which room. All operations serialise on one mutex,
// which is never held across a blocking send: the broadcast fabric snapshots
// recipients under the lock and sends after releasing it.
type Registry struct {
	mu         sync.Mutex
	maxClients int
	nextHandle Handle
	members    []*member // ordered by handle, ascending
}

// NewRegistry creates a registry bounded at maxClients sessions.
func NewRegistry(maxClients int) *Registry {
	return &Registry{maxClients: maxClients}
}

// SanitizeRoomName strips control characters from name and caps it at
// MaxRoomNameLen bytes.
func SanitizeRoomName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if len(name) > MaxRoomNameLen {
		name = name[:MaxRoomNameLen]
	}
	return name
}

// Reserve allocates a slot for conn before the handshake completes, so the
// session bound is enforced up front. Returns ErrRegistryFull at capacity.
func (r *Registry) Reserve(conn *server.Connection) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) >= r.maxClients {
		return NoSender, ErrRegistryFull
	}

	r.nextHandle++
	m := &member{
		handle:    r.nextHandle,
		conn:      conn,
		room:      DefaultRoom,
		createdAt: time.Now(),
	}
	r.members = append(r.members, m)
	return m.handle, nil
}

// Bind attaches an identity to a reserved slot after authentication.
func (r *Registry) Bind(h Handle, username, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.find(h)
	if m == nil {
		return ErrUnknownHandle
	}
	m.username = username
	m.room = room
	m.bound = true
	return nil
}

// SetRoom moves the session to room and returns the previous room.
func (r *Registry) SetRoom(h Handle, room string) (old string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.find(h)
	if m == nil {
		return "", ErrUnknownHandle
	}
	old = m.room
	m.room = room
	return old, nil
}

// RoomOf returns the session's current room.
func (r *Registry) RoomOf(h Handle) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.find(h)
	if m == nil {
		return "", ErrUnknownHandle
	}
	return m.room, nil
}

// LookupByUsername returns the first authenticated session bearing username.
// Duplicate usernames are allowed; first match means lowest handle.
func (r *Registry) LookupByUsername(username string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.members {
		if m.bound && m.username == username {
			return m.handle, true
		}
	}
	return NoSender, false
}

// ListInRoom returns the usernames of authenticated sessions in room, in
// registration order.
func (r *Registry) ListInRoom(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []string
	for _, m := range r.members {
		if m.bound && m.room == room {
			users = append(users, m.username)
		}
	}
	return users
}

// RoomCensus returns a count of authenticated sessions per room.
func (r *Registry) RoomCensus() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	census := make(map[string]int)
	for _, m := range r.members {
		if m.bound {
			census[m.room]++
		}
	}
	return census
}

// RoomNames returns the active room names sorted alphabetically.
func (r *Registry) RoomNames() []string {
	census := r.RoomCensus()
	names := make([]string, 0, len(census))
	for name := range census {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Release removes the slot. Releasing an unknown handle is a no-op.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.members {
		if m.handle == h {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return
		}
	}
}

// Count returns the number of reserved slots, bound or not.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// roomRecipients snapshots the send endpoints of every authenticated session
// in room, excluding the sender when one is given.
func (r *Registry) roomRecipients(room string, sender Handle) []*server.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conns []*server.Connection
	for _, m := range r.members {
		if m.bound && m.room == room && m.handle != sender {
			conns = append(conns, m.conn)
		}
	}
	return conns
}

// allRecipients snapshots the send endpoints of every authenticated session.
func (r *Registry) allRecipients() []*server.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conns []*server.Connection
	for _, m := range r.members {
		if m.bound {
			conns = append(conns, m.conn)
		}
	}
	return conns
}

// connOf returns the send endpoint of the given session.
func (r *Registry) connOf(h Handle) *server.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m := r.find(h); m != nil {
		return m.conn
	}
	return nil
}

// find returns the member with handle h, or nil. Caller holds r.mu.
func (r *Registry) find(h Handle) *member {
	for _, m := range r.members {
		if m.handle == h {
			return m
		}
	}
	return nil
}
