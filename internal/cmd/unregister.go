package cmd

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// UnregisterServiceCmd releases busName and deletes the registration
// regardless of the reply code (warning if it was not Released), per
// spec.md §4.3.
type UnregisterServiceCmd struct {
	baseCmd
	ctx    *Context
	conn   *bus.Connection
	token  uuid.UUID
	onDone func(error)
}

func NewUnregisterService(ctx *Context, conn *bus.Connection, token uuid.UUID, onDone func(error)) *UnregisterServiceCmd {
	return &UnregisterServiceCmd{ctx: ctx, conn: conn, token: token, onDone: onDone}
}

func (c *UnregisterServiceCmd) Execute(d *dispatch.Dispatcher) {
	reg, ok := c.conn.Registration(c.token)
	if !ok {
		c.onDone(ErrNotFound)
		return
	}
	msg := wire.ReleaseNameCall(reg.BusName)
	err := c.conn.SendAsync(msg, c.handle, defaultBusCallTimeout, func(reply *wire.Message, sendErr error) {
		c.conn.RemoveRegistration(c.token)
		if sendErr != nil {
			c.onDone(sendErr)
			return
		}
		var code uint32
		if e := reply.Arg(0, &code); e == nil && code != wire.ReleaseNameReplyReleased {
			c.ctx.Logger.Warn("cmd: ReleaseName did not report Released", "busName", reg.BusName, "code", code)
		}
		c.onDone(nil)
	})
	if err != nil {
		c.conn.RemoveRegistration(c.token)
		c.onDone(err)
	}
}

func (c *UnregisterServiceCmd) ExecAndDestroy() bool { return false }
