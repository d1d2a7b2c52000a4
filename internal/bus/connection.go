package bus

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// pendingCall correlates an outgoing method call to the reply that will
// eventually arrive on the fan-in channel, per spec.md §4.3's
// "if expecting a reply register pending-call notification".
type pendingCall struct {
	handle  dispatch.Handle
	serial  uint32
	onReply func(reply *wire.Message, err error)
	timer   *dispatch.Timeout
}

// Connection wraps one underlying wire.Conn with the reference-counted
// cache/lifecycle semantics, message filter, subscriptions, service
// registrations, and pending-call registry of spec.md §3/§4.2. It is
// only ever mutated from the dispatcher's owning goroutine, reached
// through internal/cmd commands.
type Connection struct {
	Key     Key
	Private bool

	refCount int

	underlying *wire.Conn
	dispatcher *dispatch.Dispatcher
	cache      *Cache
	watch      *dispatch.Watch
	logger     *slog.Logger

	maxDispatchProcTime time.Duration

	subscriptions map[uuid.UUID]*Subscription
	registrations map[uuid.UUID]*Registration

	pendingBySerial map[uint32]*pendingCall
	pendingByHandle map[dispatch.Handle]*pendingCall

	reqContexts map[uuid.UUID]*RequestContext
}

// Open dials address (or reuses a cached shared connection for it),
// sends Hello, and installs the connection as a dispatcher watch. It
// must be called from the dispatcher's owning goroutine (an
// OpenConnection/GetConnection command's Execute), per spec.md §4.2.
func Open(
	d *dispatch.Dispatcher,
	cache *Cache,
	address string,
	private bool,
	maxDispatchProcTime time.Duration,
	logger *slog.Logger,
) (*Connection, error) {
	key := Key(address)
	if !private {
		if existing := cache.Acquire(key); existing != nil {
			return existing, nil
		}
	}

	underlying, err := wire.Dial(address)
	if err != nil {
		return nil, errors.Wrap(err, "bus: open connection")
	}

	c := &Connection{
		Key:                 key,
		Private:             private,
		refCount:            1,
		underlying:          underlying,
		dispatcher:          d,
		cache:               cache,
		logger:              logger,
		maxDispatchProcTime: maxDispatchProcTime,
		subscriptions:       make(map[uuid.UUID]*Subscription),
		registrations:       make(map[uuid.UUID]*Registration),
		pendingBySerial:     make(map[uint32]*pendingCall),
		pendingByHandle:     make(map[dispatch.Handle]*pendingCall),
		reqContexts:         make(map[uuid.UUID]*RequestContext),
	}

	c.watch = d.AddWatch(c.handleIncoming)
	underlying.StartReader(func(in wire.Incoming) {
		d.PostEvent(c.watch, in)
	})
	d.RegisterPendingHolder(c)

	// Hello establishes the unique bus name. It is sent without waiting
	// for the reply: blocking here would deadlock, since this call itself
	// runs on the dispatcher goroutine that must later deliver that very
	// reply. UniqueName populates asynchronously once it arrives.
	c.sendAsync(wire.HelloCall(), dispatch.InvalidHandle, 0, func(reply *wire.Message, err error) {
		if err != nil {
			c.logger.Warn("bus: hello failed", "key", string(c.Key), "error", err)
			return
		}
		var name string
		if len(reply.Args) > 0 {
			if s, ok := reply.Args[0].(string); ok {
				name = s
			}
		}
		c.underlying.UniqueName = name
	})

	if private {
		cache.TrackPrivate(c)
	} else {
		cache.Insert(key, c)
	}
	return c, nil
}

// IncRef increments the reference count of a shared connection that
// was resolved rather than freshly opened.
func (c *Connection) IncRef() {
	c.refCount++
}

// DecRef decrements the reference count and, at zero, tears the
// connection down per spec.md §4.2: remove match rules and owned
// names while still connected, flush the outbound queue (skipped for
// forced shutdown teardown, see ForceRelease), remove the filter
// (implicit — the watch is removed), close if private, and erase from
// the cache.
func (c *Connection) DecRef() error {
	c.refCount--
	if c.refCount > 0 {
		return nil
	}
	return c.teardown(true)
}

// ForceRelease tears the connection down unconditionally, used by the
// Shutdown command to force-release every cached connection while the
// dispatcher is still running. Per SPEC_FULL.md §9 Open Question 1,
// this skips the outbound-queue flush a normal decRef-to-zero performs.
func (c *Connection) ForceRelease() error {
	return c.teardown(false)
}

func (c *Connection) teardown(flush bool) error {
	for _, sub := range c.subscriptions {
		c.sendAsync(wire.RemoveMatchCall(sub.rule.String()), dispatch.InvalidHandle, 0, nil)
	}
	for _, reg := range c.registrations {
		c.sendAsync(wire.ReleaseNameCall(reg.BusName), dispatch.InvalidHandle, 0, nil)
	}

	if flush {
		// The normal teardown path lets already-queued sends reach the
		// wire before the socket is closed. Nothing further to do here:
		// sendAsync above already wrote synchronously.
	}

	c.dispatcher.RemoveWatch(c.watch)
	c.dispatcher.UnregisterPendingHolder(c)

	for _, p := range c.pendingBySerial {
		if p.timer != nil {
			c.dispatcher.RemoveTimeout(p.timer)
		}
	}

	if c.Private {
		c.cache.UntrackPrivate(c)
		if err := c.underlying.Close(); err != nil {
			return errors.Wrap(err, "bus: close private connection")
		}
	} else {
		c.cache.Erase(c.Key)
	}
	return nil
}

// sendAsync writes msg and, if onReply is non-nil, registers a pending
// call keyed by the assigned serial. timeout <= 0 means no reply
// timeout is armed (used for one-shot sends like RemoveMatch during
// teardown, where the caller does not care about the result).
func (c *Connection) sendAsync(msg *wire.Message, handle dispatch.Handle, timeout time.Duration, onReply func(*wire.Message, error)) error {
	serial, err := c.underlying.Send(msg)
	if err != nil {
		if onReply != nil {
			onReply(nil, err)
		}
		return err
	}
	if onReply == nil {
		return nil
	}

	p := &pendingCall{handle: handle, serial: serial, onReply: onReply}
	if timeout > 0 {
		p.timer = c.dispatcher.AddTimeout(timeout, false, func() {
			c.completePending(serial, nil, errors.New("bus: reply timed out"))
		})
	}
	c.pendingBySerial[serial] = p
	if handle != dispatch.InvalidHandle {
		c.pendingByHandle[handle] = p
	}
	return nil
}

// SendAsync is the internal/cmd-facing entry point for issuing a
// method call that expects a reply delivered to onReply.
func (c *Connection) SendAsync(msg *wire.Message, handle dispatch.Handle, timeout time.Duration, onReply func(*wire.Message, error)) error {
	return c.sendAsync(msg, handle, timeout, onReply)
}

// SendOneShot fires msg without reply correlation (Emit, best-effort
// RemoveMatch/ReleaseName cleanup).
func (c *Connection) SendOneShot(msg *wire.Message) error {
	_, err := c.underlying.Send(msg)
	return err
}

func (c *Connection) completePending(serial uint32, reply *wire.Message, err error) {
	p, ok := c.pendingBySerial[serial]
	if !ok {
		return
	}
	delete(c.pendingBySerial, serial)
	if p.handle != dispatch.InvalidHandle {
		delete(c.pendingByHandle, p.handle)
	}
	if p.timer != nil {
		c.dispatcher.RemoveTimeout(p.timer)
	}
	p.onReply(reply, err)
}

// CancelPending implements dispatch.PendingHolder: it is asked by
// Dispatcher.CancelCommand to cancel the pending call with handle h,
// if this connection owns one.
func (c *Connection) CancelPending(h dispatch.Handle) bool {
	p, ok := c.pendingByHandle[h]
	if !ok {
		return false
	}
	c.completePending(p.serial, nil, errCancelled)
	return true
}

var errCancelled = errors.New("bus: command cancelled")

// IsCancelled reports whether err is the sentinel CancelPending
// delivers, so callers can map it onto the Cancelled status.
func IsCancelled(err error) bool {
	return err == errCancelled
}

// AddSubscription registers sub once its AddMatch has been
// acknowledged by the bus daemon (Subscribe/SubscribeOwnerChanged's
// deferred completion, spec.md §4.3).
func (c *Connection) AddSubscription(sub *Subscription) {
	c.subscriptions[sub.Token] = sub
}

// RemoveSubscription deletes the subscription with the given token,
// reporting whether one was found.
func (c *Connection) RemoveSubscription(token uuid.UUID) (*Subscription, bool) {
	sub, ok := c.subscriptions[token]
	if ok {
		delete(c.subscriptions, token)
	}
	return sub, ok
}

// Subscription looks up a subscription by token without removing it.
func (c *Connection) Subscription(token uuid.UUID) (*Subscription, bool) {
	sub, ok := c.subscriptions[token]
	return sub, ok
}

// AddRegistration registers reg once its RequestName has been
// acknowledged with PrimaryOwner or AlreadyOwner.
func (c *Connection) AddRegistration(reg *Registration) {
	c.registrations[reg.Token] = reg
}

// RemoveRegistration deletes the registration with the given token.
func (c *Connection) RemoveRegistration(token uuid.UUID) (*Registration, bool) {
	reg, ok := c.registrations[token]
	if ok {
		delete(c.registrations, token)
	}
	return reg, ok
}

// Registration looks up a registration by token without removing it.
func (c *Connection) Registration(token uuid.UUID) (*Registration, bool) {
	reg, ok := c.registrations[token]
	return reg, ok
}

// RequestContext looks up a previously delivered request context by
// token, for ReturnResult/ReturnError/FreeRequestContext.
func (c *Connection) RequestContext(token uuid.UUID) (*RequestContext, bool) {
	ctx, ok := c.reqContexts[token]
	return ctx, ok
}

// handleIncoming is the dispatcher-goroutine watch handler: it
// receives one wire.Incoming per invocation (payload comes from
// Dispatcher.PostEvent) and either completes a pending call or routes
// the message through the filter.
func (c *Connection) handleIncoming(payload interface{}) {
	in, ok := payload.(wire.Incoming)
	if !ok {
		return
	}
	if in.Err != nil {
		c.logger.Warn("bus: connection read failed", "key", string(c.Key), "error", in.Err)
		return
	}
	msg := in.Msg
	if msg.Type == wire.TypeMethodReturn || msg.Type == wire.TypeError {
		if msg.ReplySerial != 0 {
			if msg.Type == wire.TypeError {
				c.completePending(msg.ReplySerial, msg, errors.Errorf("bus: %s", msg.ErrorName))
			} else {
				c.completePending(msg.ReplySerial, msg, nil)
			}
			return
		}
	}
	c.route(msg)
}
