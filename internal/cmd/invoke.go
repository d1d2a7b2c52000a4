package cmd

import (
	"time"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// DefaultInvokeTimeout is used when the caller passes -1 ("library
// default"), per spec.md §6.
const DefaultInvokeTimeout = 30 * time.Second

// MaxInvokeTimeout is the multi-hour ceiling very large caller-supplied
// timeouts are clamped to, per spec.md §6.
const MaxInvokeTimeout = 6 * time.Hour

// InvokeCmd builds an Invoke method call and, unless the caller asked
// for no reply, registers a pending-call notification, per spec.md
// §4.3.
type InvokeCmd struct {
	baseCmd
	conn *bus.Connection

	destination     string
	objPath         wire.ObjectPath
	method          string
	parameters      string
	noReplyExpected bool
	timeout         time.Duration

	onDone func(result string, busErrName, busErrMsg string, err error)
}

func NewInvoke(conn *bus.Connection, destination string, objPath wire.ObjectPath, method, parameters string, noReplyExpected bool, timeout time.Duration, onDone func(result, busErrName, busErrMsg string, err error)) *InvokeCmd {
	if parameters == "" {
		parameters = "{}"
	}
	return &InvokeCmd{
		conn:            conn,
		destination:     destination,
		objPath:         objPath,
		method:          method,
		parameters:      parameters,
		noReplyExpected: noReplyExpected,
		timeout:         normalizeTimeout(timeout),
		onDone:          onDone,
	}
}

func normalizeTimeout(t time.Duration) time.Duration {
	if t < 0 {
		return DefaultInvokeTimeout
	}
	if t > MaxInvokeTimeout {
		return MaxInvokeTimeout
	}
	return t
}

func (c *InvokeCmd) Execute(d *dispatch.Dispatcher) {
	msg := wire.InvokeCall(c.destination, c.objPath, c.method, c.parameters, c.noReplyExpected)

	if c.noReplyExpected {
		if err := c.conn.SendOneShot(msg); err != nil {
			c.onDone("", "", "", err)
			return
		}
		c.onDone("", "", "", nil)
		return
	}

	err := c.conn.SendAsync(msg, c.handle, c.timeout, func(reply *wire.Message, sendErr error) {
		if reply != nil && reply.Type == wire.TypeError {
			var msgText string
			_ = reply.Arg(0, &msgText)
			c.onDone("", reply.ErrorName, msgText, nil)
			return
		}
		if sendErr != nil {
			c.onDone("", "", "", sendErr)
			return
		}
		var result string
		if len(reply.Args) > 0 {
			_ = reply.Arg(0, &result)
		}
		c.onDone(result, "", "", nil)
	})
	if err != nil {
		c.onDone("", "", "", err)
	}
}

// ExecAndDestroy is false unless the caller asked for no reply, in
// which case there is nothing to defer.
func (c *InvokeCmd) ExecAndDestroy() bool {
	return c.noReplyExpected
}
