// internal/app/realtime/registry.go
package realtime

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conn is a live real-time connection as the registry and router see it.
// Implementations must make Send safe for concurrent use and must fail
// (not block indefinitely) once the transport is gone.
type Conn interface {
	// ID returns the opaque connection identity.
	ID() string
	// Send serializes and delivers one frame to this connection.
	Send(f Outbound) error
	// Close tears down the underlying transport. Safe to call twice.
	Close() error
}

type connState struct {
	conn   Conn
	userID primitive.ObjectID // NilObjectID until announced
	rooms  map[primitive.ObjectID]struct{}
}

// Registry tracks live connections, indexed by project room and by user
// identity. It is the only shared mutable structure in the real-time
// core; every method is safe for concurrent use. Reads return snapshots:
// a broadcast iterating members never observes a torn membership set,
// and a connection added after the snapshot simply misses that delivery.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connState
	rooms map[primitive.ObjectID]map[string]Conn
	users map[primitive.ObjectID]map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connState),
		rooms: make(map[primitive.ObjectID]map[string]Conn),
		users: make(map[primitive.ObjectID]map[string]Conn),
	}
}

// Admit registers a newly opened connection with no room or user
// bindings. Admitting the same connection twice is a no-op.
func (r *Registry) Admit(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c.ID()]; ok {
		return
	}
	r.conns[c.ID()] = &connState{
		conn:  c,
		rooms: make(map[primitive.ObjectID]struct{}),
	}
}

// BindUser associates a connection with a user identity, making it a
// delivery target for that user's pushes. A later announce rebinds the
// connection (last write wins). No-op for retired connections.
func (r *Registry) BindUser(c Conn, userID primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.conns[c.ID()]
	if !ok {
		return
	}
	if st.userID == userID {
		return
	}
	if st.userID != primitive.NilObjectID {
		r.dropUserIndex(st.userID, c.ID())
	}
	st.userID = userID
	if r.users[userID] == nil {
		r.users[userID] = make(map[string]Conn)
	}
	r.users[userID][c.ID()] = c
}

// JoinRoom adds the connection to the project's room. Joining twice is
// a no-op. Authorization is the caller's responsibility; the registry
// only indexes. No-op for retired connections.
func (r *Registry) JoinRoom(c Conn, projectID primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.conns[c.ID()]
	if !ok {
		return
	}
	st.rooms[projectID] = struct{}{}
	if r.rooms[projectID] == nil {
		r.rooms[projectID] = make(map[string]Conn)
	}
	r.rooms[projectID][c.ID()] = c
}

// Retire removes the connection from every room and user index it
// participated in. Idempotent, and safe to call for connections that
// were never admitted. An empty room is deleted outright; rooms are
// reconstructed as connections join.
func (r *Registry) Retire(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.conns[c.ID()]
	if !ok {
		return
	}
	delete(r.conns, c.ID())

	for projectID := range st.rooms {
		if members, ok := r.rooms[projectID]; ok {
			delete(members, c.ID())
			if len(members) == 0 {
				delete(r.rooms, projectID)
			}
		}
	}
	if st.userID != primitive.NilObjectID {
		r.dropUserIndex(st.userID, c.ID())
	}
}

// MembersOf returns a snapshot of the connections currently in the
// project's room.
func (r *Registry) MembersOf(projectID primitive.ObjectID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[projectID]
	out := make([]Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// ConnectionsOf returns a snapshot of the connections bound to the
// user. Multiple connections per user (multi-tab, multi-device) are
// expected.
func (r *Registry) ConnectionsOf(userID primitive.ObjectID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[userID]
	out := make([]Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// Len returns the number of admitted connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Stale returns admitted connections for which pred reports true.
// Used by the background reaper to retire dead transports.
func (r *Registry) Stale(pred func(Conn) bool) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Conn
	for _, st := range r.conns {
		if pred(st.conn) {
			out = append(out, st.conn)
		}
	}
	return out
}

// caller must hold r.mu
func (r *Registry) dropUserIndex(userID primitive.ObjectID, connID string) {
	if conns, ok := r.users[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.users, userID)
		}
	}
}
