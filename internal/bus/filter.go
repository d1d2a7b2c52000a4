package bus

import (
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

const (
	localDisconnectPath      = wire.ObjectPath("/org/freedesktop/DBus/Local")
	localDisconnectInterface = "org.freedesktop.DBus.Local"
	localDisconnectMember    = "Disconnected"
)

// route implements the message filter policy of spec.md §4.2, invoked
// only from the dispatcher's owning goroutine once a decoded message
// has been popped off the connection's watch event.
func (c *Connection) route(msg *wire.Message) {
	switch {
	case c.isLocalDisconnect(msg):
		c.handleLocalDisconnect()
	case msg.Type == wire.TypeSignal:
		c.routeSignal(msg)
	case msg.Type == wire.TypeMethodCall && msg.Interface == wire.FacadeInterface && msg.Member == "Invoke":
		c.routeInvoke(msg)
	case msg.Type == wire.TypeMethodCall && msg.Interface == wire.IntrospectableInterface && msg.Member == "Introspect":
		c.routeIntrospect(msg)
	default:
		c.logger.Debug("bus: unhandled message", "key", string(c.Key), "type", msg.Type.String(), "interface", msg.Interface, "member", msg.Member)
	}
}

func (c *Connection) isLocalDisconnect(msg *wire.Message) bool {
	return msg.Type == wire.TypeSignal &&
		msg.Path == localDisconnectPath &&
		msg.Interface == localDisconnectInterface &&
		msg.Member == localDisconnectMember
}

func (c *Connection) handleLocalDisconnect() {
	if !c.Private {
		return
	}
	if err := c.underlying.Close(); err != nil {
		c.logger.Warn("bus: close on local disconnect failed", "key", string(c.Key), "error", err)
	}
}

// routeSignal dispatches msg to every matching subscriber, not just the
// first — there can be more than one subscriber for a given signal, per
// spec.md §4.2.
func (c *Connection) routeSignal(msg *wire.Message) {
	var handled bool
	for _, sub := range c.subscriptions {
		matched, elapsed := sub.dispatchIfMatch(msg)
		handled = handled || matched
		if matched && c.maxDispatchProcTime > 0 && elapsed > c.maxDispatchProcTime {
			c.logger.Warn("bus: signal callback exceeded dispatch budget",
				"key", string(c.Key), "elapsed", elapsed, "budget", c.maxDispatchProcTime)
		}
	}
	if !handled {
		c.logger.Debug("bus: signal matched no subscription", "key", string(c.Key), "path", string(msg.Path), "member", msg.Member)
	}
}

func (c *Connection) routeInvoke(msg *wire.Message) {
	var method, parameters string
	if err := msg.Arg(0, &method); err != nil {
		c.logger.Warn("bus: malformed Invoke call", "error", err)
		return
	}
	if len(msg.Args) > 1 {
		_ = msg.Arg(1, &parameters)
	}
	reg, ok := c.registrationAt(msg.Path)
	if !ok {
		c.logger.Debug("bus: Invoke for unregistered path", "path", string(msg.Path))
		return
	}

	noReplyExpected := msg.Flags&wire.FlagNoReplyExpected != 0
	elapsed := reg.dispatch(c, msg, method, parameters, noReplyExpected)
	if c.maxDispatchProcTime > 0 && elapsed > c.maxDispatchProcTime {
		c.logger.Warn("bus: request handler exceeded dispatch budget",
			"key", string(c.Key), "busName", reg.BusName, "elapsed", elapsed, "budget", c.maxDispatchProcTime)
	}
}

func (c *Connection) routeIntrospect(msg *wire.Message) {
	xml := c.introspectXML(msg.Path)
	reply := wire.NewMethodReturn(msg, "s", xml)
	if err := c.SendOneShot(reply); err != nil {
		c.logger.Warn("bus: failed to send introspection reply", "error", err)
	}
}
