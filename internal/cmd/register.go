package cmd

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// RegisterServiceCmd requests ownership of busName with
// DO_NOT_QUEUE|REPLACE_EXISTING and, on PrimaryOwner/AlreadyOwner,
// installs a registration, per spec.md §4.3.
type RegisterServiceCmd struct {
	baseCmd
	conn *bus.Connection

	busName   string
	objPath   wire.ObjectPath
	onRequest func(ctx *bus.RequestContext, method, parameters string, noReplyExpected bool, token string)
	onDone    func(token uuid.UUID, err error)
}

func NewRegisterService(conn *bus.Connection, busName string, objPath wire.ObjectPath, onRequest func(*bus.RequestContext, string, string, bool, string), onDone func(uuid.UUID, error)) *RegisterServiceCmd {
	return &RegisterServiceCmd{conn: conn, busName: busName, objPath: objPath, onRequest: onRequest, onDone: onDone}
}

func (c *RegisterServiceCmd) Execute(d *dispatch.Dispatcher) {
	flags := wire.NameFlagDoNotQueue | wire.NameFlagReplaceExisting
	msg := wire.RequestNameCall(c.busName, flags)
	err := c.conn.SendAsync(msg, c.handle, defaultBusCallTimeout, func(reply *wire.Message, sendErr error) {
		if sendErr != nil {
			c.onDone(uuid.Nil, sendErr)
			return
		}
		var code uint32
		if e := reply.Arg(0, &code); e != nil {
			c.onDone(uuid.Nil, e)
			return
		}
		if code != wire.RequestNameReplyPrimaryOwner && code != wire.RequestNameReplyAlreadyOwner {
			c.conn.SendOneShot(wire.ReleaseNameCall(c.busName))
			c.onDone(uuid.Nil, ErrNameInUse)
			return
		}
		reg := bus.NewRegistration(c.busName, c.objPath, c.onRequest)
		c.conn.AddRegistration(reg)
		c.onDone(reg.Token, nil)
	})
	if err != nil {
		c.onDone(uuid.Nil, err)
	}
}

func (c *RegisterServiceCmd) ExecAndDestroy() bool { return false }
