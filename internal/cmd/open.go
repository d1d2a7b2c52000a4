package cmd

import (
	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// BusType selects which constructor form OpenConnection uses, per
// spec.md §4.3's "OpenConnection / GetConnection" row: a raw address or
// one of the two well-known buses.
type BusType int

const (
	BusTypeAddress BusType = iota
	BusTypeSession
	BusTypeSystem
)

// OpenConnectionCmd creates or resolves a (possibly cached) connection
// on the dispatcher goroutine. It completes immediately
// (ExecAndDestroy=true); there is nothing to defer to a reply.
type OpenConnectionCmd struct {
	baseCmd
	ctx *Context

	busType BusType
	address string
	private bool

	onDone func(conn *bus.Connection, err error)
}

func NewOpenConnection(ctx *Context, busType BusType, address string, private bool, onDone func(*bus.Connection, error)) *OpenConnectionCmd {
	return &OpenConnectionCmd{ctx: ctx, busType: busType, address: address, private: private, onDone: onDone}
}

func (c *OpenConnectionCmd) Execute(d *dispatch.Dispatcher) {
	address := c.address
	switch c.busType {
	case BusTypeSession:
		addr, err := wire.SessionBusAddress()
		if err != nil {
			c.onDone(nil, err)
			return
		}
		address = addr
	case BusTypeSystem:
		address = wire.SystemBusAddress()
	case BusTypeAddress:
		// address already set by caller
	default:
		c.onDone(nil, errUnknownBusType)
		return
	}

	conn, err := bus.Open(d, c.ctx.Cache, address, c.private, c.ctx.MaxDispatchProcTime, c.ctx.Logger)
	c.onDone(conn, err)
}

func (c *OpenConnectionCmd) ExecAndDestroy() bool { return true }

var errUnknownBusType = errBadArgs("unknown bus type")
