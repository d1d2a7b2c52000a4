// Package bus implements the in-scope D-Bus connection subsystem:
// the reference-counted Connection wrapper, its process-wide cache,
// the incoming-message filter, introspection XML generation, signal
// subscriptions and service registrations, and request contexts.
//
// Everything in this package is only ever touched from the
// dispatcher's single owning goroutine (internal/dispatch) — the
// mutexes here guard against accidental misuse, not genuine
// contention, matching spec.md §5's "mutated only from the worker"
// rule.
package bus

import (
	"sync"

	"github.com/pkg/errors"
)

// Key identifies a distinct underlying bus connection in the
// process-wide cache: a resolved bus address. Private connections are
// never de-duplicated by Key (spec.md §3 invariant (i)/(ii)), but they
// are still tracked by identity so Shutdown can reach them too — see
// the private set below.
type Key string

// Cache is the process-wide {logical → underlying} connection cache
// described in spec.md §3/§4.2. It is owned by one dbusipc.Client
// (constructed once per Client), not a package-level global,
// so the module stays testable without process-wide state — see
// DESIGN.md.
//
// byKey holds only shared connections and is what Acquire's de-dup
// lookup searches. private holds every private connection by identity,
// purely so All (and therefore Shutdown) can force-release it too; it
// is never consulted by Acquire.
type Cache struct {
	mu      sync.Mutex
	byKey   map[Key]*Connection
	private map[*Connection]struct{}
}

func NewCache() *Cache {
	return &Cache{
		byKey:   make(map[Key]*Connection),
		private: make(map[*Connection]struct{}),
	}
}

// Acquire returns the cached Connection for key, incrementing its
// reference count, or nil if none is cached yet.
func (c *Cache) Acquire(key Key) *Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.byKey[key]
	if !ok {
		return nil
	}
	conn.refCount++
	return conn
}

// Insert adds a freshly created shared connection to the cache. conn
// must not already be private.
func (c *Cache) Insert(key Key, conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[key] = conn
}

// Erase removes conn from the cache. It is a no-op if conn (or its
// key) is not present.
func (c *Cache) Erase(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byKey, key)
}

// TrackPrivate registers a private connection so it is reachable from
// All/Shutdown even though it is never de-duplicated by key.
func (c *Cache) TrackPrivate(conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.private[conn] = struct{}{}
}

// UntrackPrivate removes a private connection once it has torn itself
// down, so All does not hand out a stale reference afterward.
func (c *Cache) UntrackPrivate(conn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.private, conn)
}

// All returns a snapshot of every cached connection, shared and
// private, for forced teardown on shutdown.
func (c *Cache) All() []*Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Connection, 0, len(c.byKey)+len(c.private))
	for _, conn := range c.byKey {
		out = append(out, conn)
	}
	for conn := range c.private {
		out = append(out, conn)
	}
	return out
}

// ErrNotFound is returned when a lookup (subscription, registration,
// pending call, cached connection) fails to find a match.
var ErrNotFound = errors.New("bus: not found")
