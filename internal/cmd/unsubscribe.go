package cmd

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// UnsubscribeCmd sends RemoveMatch for a previously established
// subscription and, on success, deletes it, per spec.md §4.3.
type UnsubscribeCmd struct {
	baseCmd
	conn   *bus.Connection
	token  uuid.UUID
	onDone func(error)
}

func NewUnsubscribe(conn *bus.Connection, token uuid.UUID, onDone func(error)) *UnsubscribeCmd {
	return &UnsubscribeCmd{conn: conn, token: token, onDone: onDone}
}

func (c *UnsubscribeCmd) Execute(d *dispatch.Dispatcher) {
	sub, ok := c.conn.Subscription(c.token)
	if !ok {
		c.onDone(ErrNotFound)
		return
	}
	msg := wire.RemoveMatchCall(sub.Rule())
	err := c.conn.SendAsync(msg, c.handle, defaultBusCallTimeout, func(reply *wire.Message, sendErr error) {
		if sendErr != nil {
			c.onDone(sendErr)
			return
		}
		c.conn.RemoveSubscription(c.token)
		c.onDone(nil)
	})
	if err != nil {
		c.onDone(err)
	}
}

func (c *UnsubscribeCmd) ExecAndDestroy() bool { return false }
