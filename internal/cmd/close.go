package cmd

import (
	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
)

// CloseConnectionCmd calls Connection.DecRef on the worker, per
// spec.md §4.3.
type CloseConnectionCmd struct {
	baseCmd
	conn   *bus.Connection
	onDone func(error)
}

func NewCloseConnection(conn *bus.Connection, onDone func(error)) *CloseConnectionCmd {
	return &CloseConnectionCmd{conn: conn, onDone: onDone}
}

func (c *CloseConnectionCmd) Execute(d *dispatch.Dispatcher) {
	c.onDone(c.conn.DecRef())
}

func (c *CloseConnectionCmd) ExecAndDestroy() bool { return true }
