package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheAcquireMissReturnsNil(t *testing.T) {
	c := NewCache()
	require.Nil(t, c.Acquire(Key("session")))
}

func TestCacheInsertThenAcquireIncrementsRefCount(t *testing.T) {
	c := NewCache()
	conn := &Connection{Key: Key("session"), refCount: 1}
	c.Insert(conn.Key, conn)

	got := c.Acquire(conn.Key)
	require.Same(t, conn, got)
	require.Equal(t, 2, got.refCount)
}

func TestCacheEraseRemovesEntry(t *testing.T) {
	c := NewCache()
	conn := &Connection{Key: Key("session"), refCount: 1}
	c.Insert(conn.Key, conn)
	c.Erase(conn.Key)
	require.Nil(t, c.Acquire(conn.Key))
}

func TestCacheEraseUnknownKeyIsNoop(t *testing.T) {
	c := NewCache()
	require.NotPanics(t, func() { c.Erase(Key("nope")) })
}

func TestCacheAllReturnsSnapshot(t *testing.T) {
	c := NewCache()
	a := &Connection{Key: Key("a"), refCount: 1}
	b := &Connection{Key: Key("b"), refCount: 1}
	c.Insert(a.Key, a)
	c.Insert(b.Key, b)

	all := c.All()
	require.Len(t, all, 2)
	require.ElementsMatch(t, []*Connection{a, b}, all)
}

func TestCacheAllIncludesTrackedPrivateConnections(t *testing.T) {
	c := NewCache()
	shared := &Connection{Key: Key("session"), refCount: 1}
	private := &Connection{Key: Key("private-1"), Private: true, refCount: 1}
	c.Insert(shared.Key, shared)
	c.TrackPrivate(private)

	require.ElementsMatch(t, []*Connection{shared, private}, c.All())
}

func TestCacheAcquireNeverFindsPrivateConnections(t *testing.T) {
	c := NewCache()
	private := &Connection{Key: Key("private-1"), Private: true, refCount: 1}
	c.TrackPrivate(private)

	require.Nil(t, c.Acquire(private.Key))
}

func TestCacheUntrackPrivateRemovesItFromAll(t *testing.T) {
	c := NewCache()
	private := &Connection{Key: Key("private-1"), Private: true, refCount: 1}
	c.TrackPrivate(private)
	c.UntrackPrivate(private)

	require.Empty(t, c.All())
}

func TestCacheUntrackPrivateUnknownIsNoop(t *testing.T) {
	c := NewCache()
	require.NotPanics(t, func() { c.UntrackPrivate(&Connection{}) })
}
