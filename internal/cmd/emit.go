package cmd

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// EmitCmd broadcasts a signal from a registration's own object path,
// one-shot with no reply expected, per spec.md §4.3.
type EmitCmd struct {
	baseCmd
	conn  *bus.Connection
	token uuid.UUID
	name  string
	data  string

	onDone func(error)
}

func NewEmit(conn *bus.Connection, registrationToken uuid.UUID, name, data string, onDone func(error)) *EmitCmd {
	if data == "" {
		data = "{}"
	}
	return &EmitCmd{conn: conn, token: registrationToken, name: name, data: data, onDone: onDone}
}

func (c *EmitCmd) Execute(d *dispatch.Dispatcher) {
	reg, ok := c.conn.Registration(c.token)
	if !ok {
		c.onDone(ErrNotFound)
		return
	}
	msg := wire.EmitSignal(reg.ObjectPath, c.name, c.data)
	c.onDone(c.conn.SendOneShot(msg))
}

func (c *EmitCmd) ExecAndDestroy() bool { return true }
