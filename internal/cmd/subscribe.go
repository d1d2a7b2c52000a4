package cmd

import (
	"time"

	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// defaultBusCallTimeout bounds AddMatch/RemoveMatch/RequestName/
// ReleaseName/NameHasOwner round trips to the bus daemon; the library
// default Invoke timeouts use their own, caller-overridable value
// (internal/cmd/invoke.go), but these bus-daemon housekeeping calls
// have no caller-facing timeout knob in spec.md §6.
const defaultBusCallTimeout = 5 * time.Second

// SubscribeCmd builds a subscription and sends AddMatch; it defers
// completion until the bus daemon replies (ExecAndDestroy=false), per
// spec.md §4.3.
type SubscribeCmd struct {
	baseCmd
	conn *bus.Connection

	newSubscription func() *bus.Subscription
	onDone          func(token uuid.UUID, err error)
}

// NewSubscribeUserSignal builds the user-signal subscribe variant.
func NewSubscribeUserSignal(conn *bus.Connection, objPath wire.ObjectPath, sigName string, onSignal func(args []string), onDone func(uuid.UUID, error)) *SubscribeCmd {
	return &SubscribeCmd{
		conn: conn,
		newSubscription: func() *bus.Subscription {
			return bus.NewUserSignalSubscription(objPath, sigName, onSignal)
		},
		onDone: onDone,
	}
}

// NewSubscribeOwnerChanged builds the name-owner-changed subscribe
// variant. An empty busName matches any name.
func NewSubscribeOwnerChanged(conn *bus.Connection, busName string, onChange func(args []string), onDone func(uuid.UUID, error)) *SubscribeCmd {
	return &SubscribeCmd{
		conn: conn,
		newSubscription: func() *bus.Subscription {
			return bus.NewOwnerChangedSubscription(busName, onChange)
		},
		onDone: onDone,
	}
}

func (c *SubscribeCmd) Execute(d *dispatch.Dispatcher) {
	sub := c.newSubscription()
	msg := wire.AddMatchCall(sub.Rule())
	err := c.conn.SendAsync(msg, c.handle, defaultBusCallTimeout, func(reply *wire.Message, sendErr error) {
		if sendErr != nil {
			// Best-effort cleanup, matching spec.md §4.3's Subscribe row
			// literally even though AddMatch itself already failed.
			c.conn.SendOneShot(wire.RemoveMatchCall(sub.Rule()))
			c.onDone(uuid.Nil, sendErr)
			return
		}
		c.conn.AddSubscription(sub)
		c.onDone(sub.Token, nil)
	})
	if err != nil {
		c.onDone(uuid.Nil, err)
	}
}

func (c *SubscribeCmd) ExecAndDestroy() bool { return false }
