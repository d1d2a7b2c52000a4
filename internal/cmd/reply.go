package cmd

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
)

// ReturnResultCmd sends a method_return for a previously captured
// request, via its RequestContext, per spec.md §4.3.
type ReturnResultCmd struct {
	baseCmd
	conn   *bus.Connection
	token  uuid.UUID
	result string
	onDone func(error)
}

func NewReturnResult(conn *bus.Connection, reqToken uuid.UUID, result string, onDone func(error)) *ReturnResultCmd {
	return &ReturnResultCmd{conn: conn, token: reqToken, result: result, onDone: onDone}
}

func (c *ReturnResultCmd) Execute(d *dispatch.Dispatcher) {
	ctx, ok := c.conn.RequestContext(c.token)
	if !ok {
		c.onDone(ErrNotFound)
		return
	}
	c.onDone(ctx.SendReply(c.result))
}

func (c *ReturnResultCmd) ExecAndDestroy() bool { return true }

// ReturnErrorCmd sends an error reply for a previously captured
// request. errName defaults to com.hsae.service.Error and message to
// "{}" when empty, per spec.md §4.3's default-parameter rule.
type ReturnErrorCmd struct {
	baseCmd
	conn    *bus.Connection
	token   uuid.UUID
	errName string
	message string
	onDone  func(error)
}

func NewReturnError(conn *bus.Connection, reqToken uuid.UUID, errName, message string, onDone func(error)) *ReturnErrorCmd {
	return &ReturnErrorCmd{conn: conn, token: reqToken, errName: errName, message: message, onDone: onDone}
}

func (c *ReturnErrorCmd) Execute(d *dispatch.Dispatcher) {
	ctx, ok := c.conn.RequestContext(c.token)
	if !ok {
		c.onDone(ErrNotFound)
		return
	}
	c.onDone(ctx.SendError(c.errName, c.message))
}

func (c *ReturnErrorCmd) ExecAndDestroy() bool { return true }
