package cmd

import (
	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// NameHasOwnerCmd asks the bus daemon whether busName currently has an
// owner, per spec.md §4.3.
type NameHasOwnerCmd struct {
	baseCmd
	conn    *bus.Connection
	busName string
	onDone  func(busName string, hasOwner bool, err error)
}

func NewNameHasOwner(conn *bus.Connection, busName string, onDone func(string, bool, error)) *NameHasOwnerCmd {
	return &NameHasOwnerCmd{conn: conn, busName: busName, onDone: onDone}
}

func (c *NameHasOwnerCmd) Execute(d *dispatch.Dispatcher) {
	msg := wire.NameHasOwnerCall(c.busName)
	err := c.conn.SendAsync(msg, c.handle, defaultBusCallTimeout, func(reply *wire.Message, sendErr error) {
		if sendErr != nil {
			c.onDone(c.busName, false, sendErr)
			return
		}
		var hasOwner bool
		if e := reply.Arg(0, &hasOwner); e != nil {
			c.onDone(c.busName, false, e)
			return
		}
		c.onDone(c.busName, hasOwner, nil)
	})
	if err != nil {
		c.onDone(c.busName, false, err)
	}
}

func (c *NameHasOwnerCmd) ExecAndDestroy() bool { return false }
