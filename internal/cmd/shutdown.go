package cmd

import (
	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
)

// ShutdownCmd force-releases every cached connection while the
// dispatcher is still running, then stops it, per spec.md §4.1/§4.3.
// onDone corresponds to "post semaphore": it runs on the worker
// goroutine right after Stop is requested, and the public Shutdown
// path waits for it before joining the worker goroutine.
type ShutdownCmd struct {
	baseCmd
	cache  *bus.Cache
	onDone func()
}

func NewShutdown(cache *bus.Cache, onDone func()) *ShutdownCmd {
	return &ShutdownCmd{cache: cache, onDone: onDone}
}

func (c *ShutdownCmd) Execute(d *dispatch.Dispatcher) {
	for _, conn := range c.cache.All() {
		_ = conn.ForceRelease()
	}
	d.Stop()
	c.onDone()
}

func (c *ShutdownCmd) ExecAndDestroy() bool { return true }
