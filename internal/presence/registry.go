// Package presence tracks the live connections of every user and fans events
// out to them.
package presence

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/oggyb/muzz-match/internal/metrics"
)

var ErrRegistryClosed = errors.New("presence: registry closed")

// Conn is the handle returned by Connect.
type Conn struct {
	ID     uuid.UUID
	UserID uint64
	ch     Channel
}

// connSet is the per-user critical section. A closed set has been dropped
// from the registry and must not take new connections.
type connSet struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]*Conn
	closed bool
}

// Registry maps user ids to their live connections.
//
// The registry lock only guards the map itself; connect, disconnect and
// deliver for one user serialize on that user's set, so unrelated users never
// contend.
type Registry struct {
	mu     sync.RWMutex
	users  map[uint64]*connSet
	closed bool
	log    *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{users: make(map[uint64]*connSet), log: log}
}

// Connect registers ch for userID.
func (r *Registry) Connect(userID uint64, ch Channel) (*Conn, error) {
	conn := &Conn{ID: uuid.New(), UserID: userID, ch: ch}

	for {
		set, err := r.setFor(userID)
		if err != nil {
			return nil, err
		}

		set.mu.Lock()
		if set.closed {
			// lost a race with the last Disconnect; look again
			set.mu.Unlock()
			r.drop(userID, set)
			continue
		}
		set.conns[conn.ID] = conn
		set.mu.Unlock()

		metrics.ConnectionOpened()
		r.log.Debug("connection registered", "user", userID, "conn", conn.ID)
		return conn, nil
	}
}

func (r *Registry) setFor(userID uint64) (*connSet, error) {
	r.mu.RLock()
	set, ok := r.users[userID]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrRegistryClosed
	}
	if ok {
		return set, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if set, ok = r.users[userID]; !ok {
		set = &connSet{conns: make(map[uuid.UUID]*Conn)}
		r.users[userID] = set
	}
	return set, nil
}

func (r *Registry) lookup(userID uint64) *connSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[userID]
}

// Disconnect removes c and closes its channel. Unknown handles are ignored.
func (r *Registry) Disconnect(c *Conn) {
	if c == nil {
		return
	}
	set := r.lookup(c.UserID)
	if set == nil {
		return
	}

	set.mu.Lock()
	_, ok := set.conns[c.ID]
	delete(set.conns, c.ID)
	empty := r.sealIfEmpty(set)
	set.mu.Unlock()

	if !ok {
		return
	}
	r.release(c)
	if empty {
		r.drop(c.UserID, set)
	}
}

// sealIfEmpty marks an empty set closed. Caller holds set.mu.
func (r *Registry) sealIfEmpty(set *connSet) bool {
	if len(set.conns) == 0 && !set.closed {
		set.closed = true
		return true
	}
	return false
}

func (r *Registry) drop(userID uint64, set *connSet) {
	r.mu.Lock()
	if r.users[userID] == set {
		delete(r.users, userID)
	}
	r.mu.Unlock()
}

func (r *Registry) release(c *Conn) {
	if err := c.ch.Close(); err != nil {
		r.log.Warn("closing channel failed", "user", c.UserID, "conn", c.ID, "err", err)
	}
	metrics.ConnectionClosed()
	r.log.Debug("connection released", "user", c.UserID, "conn", c.ID)
}

// IsOnline is a point-in-time snapshot.
func (r *Registry) IsOnline(userID uint64) bool {
	set := r.lookup(userID)
	if set == nil {
		return false
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return !set.closed && len(set.conns) > 0
}

// Connections reports how many live connections userID holds.
func (r *Registry) Connections(userID uint64) int {
	set := r.lookup(userID)
	if set == nil {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.conns)
}

// Users reports how many users hold at least one connection.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Deliver sends ev to every connection of userID and returns how many
// accepted it. A connection that rejects the event is disconnected. A zero
// return means the user is offline and the caller owns the fallback.
func (r *Registry) Deliver(userID uint64, ev Event) int {
	set := r.lookup(userID)
	if set == nil {
		return 0
	}

	var failed []*Conn
	delivered := 0

	set.mu.Lock()
	for id, c := range set.conns {
		if err := c.ch.Send(ev); err != nil {
			r.log.Warn("dropping unresponsive connection", "user", userID, "conn", c.ID, "err", err)
			delete(set.conns, id)
			failed = append(failed, c)
			continue
		}
		delivered++
	}
	empty := len(failed) > 0 && r.sealIfEmpty(set)
	set.mu.Unlock()

	for _, c := range failed {
		r.release(c)
	}
	if empty {
		r.drop(userID, set)
	}

	metrics.RecordDelivered(ev.Type, delivered)
	return delivered
}

// Close disconnects everyone and rejects further Connect calls.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sets := r.users
	r.users = make(map[uint64]*connSet)
	r.mu.Unlock()

	for _, set := range sets {
		set.mu.Lock()
		conns := make([]*Conn, 0, len(set.conns))
		for _, c := range set.conns {
			conns = append(conns, c)
		}
		set.conns = make(map[uuid.UUID]*Conn)
		set.closed = true
		set.mu.Unlock()

		for _, c := range conns {
			r.release(c)
		}
	}
	r.log.Info("presence registry closed", "users", len(sets))
}
