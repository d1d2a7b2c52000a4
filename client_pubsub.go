package dbusipc

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/cmd"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// SubscribeAsync subscribes to signal sigName on objPath, asynchronously.
func (c *Client) SubscribeAsync(conn *Conn, objPath wire.ObjectPath, sigName string, onSignal func(name, data string), onDone func(token string, err *Error)) {
	sub := cmd.NewSubscribeUserSignal(conn.inner, objPath, sigName, func(args []string) {
		onSignal(firstOf(args, 0), firstOf(args, 1))
	}, func(token uuid.UUID, err error) {
		if err != nil {
			onDone("", toError(err))
			return
		}
		onDone(token.String(), nil)
	})
	if _, err := c.dispatcher.SubmitCommand(sub); err != nil {
		onDone("", toError(err))
	}
}

// Subscribe is the synchronous form of SubscribeAsync.
func (c *Client) Subscribe(conn *Conn, objPath wire.ObjectPath, sigName string, onSignal func(name, data string)) (string, *Error) {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return "", dlErr
	}
	type res struct {
		token string
		err   *Error
	}
	out := make(chan res, 1)
	c.SubscribeAsync(conn, objPath, sigName, onSignal, func(token string, err *Error) { out <- res{token, err} })
	r := <-out
	return r.token, r.err
}

// SubscribeOwnerChangedAsync subscribes to NameOwnerChanged, narrowed
// to busName if non-empty, asynchronously.
func (c *Client) SubscribeOwnerChangedAsync(conn *Conn, busName string, onChange func(name, oldOwner, newOwner string), onDone func(token string, err *Error)) {
	sub := cmd.NewSubscribeOwnerChanged(conn.inner, busName, func(args []string) {
		onChange(firstOf(args, 0), firstOf(args, 1), firstOf(args, 2))
	}, func(token uuid.UUID, err error) {
		if err != nil {
			onDone("", toError(err))
			return
		}
		onDone(token.String(), nil)
	})
	if _, err := c.dispatcher.SubmitCommand(sub); err != nil {
		onDone("", toError(err))
	}
}

// SubscribeOwnerChanged is the synchronous form of
// SubscribeOwnerChangedAsync.
func (c *Client) SubscribeOwnerChanged(conn *Conn, busName string, onChange func(name, oldOwner, newOwner string)) (string, *Error) {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return "", dlErr
	}
	type res struct {
		token string
		err   *Error
	}
	out := make(chan res, 1)
	c.SubscribeOwnerChangedAsync(conn, busName, onChange, func(token string, err *Error) { out <- res{token, err} })
	r := <-out
	return r.token, r.err
}

// UnsubscribeAsync removes a previously established subscription.
func (c *Client) UnsubscribeAsync(conn *Conn, token string, onDone func(*Error)) {
	id, perr := parseToken(token)
	if perr != nil {
		onDone(perr)
		return
	}
	unsub := cmd.NewUnsubscribe(conn.inner, id, func(err error) { onDone(toError(err)) })
	if _, err := c.dispatcher.SubmitCommand(unsub); err != nil {
		onDone(toError(err))
	}
}

// Unsubscribe is the synchronous form of UnsubscribeAsync.
func (c *Client) Unsubscribe(conn *Conn, token string) *Error {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return dlErr
	}
	result := make(chan *Error, 1)
	c.UnsubscribeAsync(conn, token, func(err *Error) { result <- err })
	return <-result
}

// RegisterServiceAsync acquires busName (DO_NOT_QUEUE|REPLACE_EXISTING)
// and installs onRequest as the handler for inbound Invoke calls at
// objPath (or its derived default if empty), asynchronously.
func (c *Client) RegisterServiceAsync(conn *Conn, busName string, objPath wire.ObjectPath, onRequest func(ctx *ReqContext, method, parameters string, noReplyExpected bool), onDone func(token string, err *Error)) {
	reg := cmd.NewRegisterService(conn.inner, busName, objPath, func(rawCtx *bus.RequestContext, method, parameters string, noReplyExpected bool, token string) {
		onRequest(&ReqContext{conn: conn, token: token}, method, parameters, noReplyExpected)
	}, func(token uuid.UUID, err error) {
		if err != nil {
			onDone("", toError(err))
			return
		}
		onDone(token.String(), nil)
	})
	if _, err := c.dispatcher.SubmitCommand(reg); err != nil {
		onDone("", toError(err))
	}
}

// RegisterService is the synchronous form of RegisterServiceAsync.
func (c *Client) RegisterService(conn *Conn, busName string, objPath wire.ObjectPath, onRequest func(ctx *ReqContext, method, parameters string, noReplyExpected bool)) (string, *Error) {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return "", dlErr
	}
	type res struct {
		token string
		err   *Error
	}
	out := make(chan res, 1)
	c.RegisterServiceAsync(conn, busName, objPath, onRequest, func(token string, err *Error) { out <- res{token, err} })
	r := <-out
	return r.token, r.err
}

// UnregisterServiceAsync releases a previously registered service.
func (c *Client) UnregisterServiceAsync(conn *Conn, token string, onDone func(*Error)) {
	id, perr := parseToken(token)
	if perr != nil {
		onDone(perr)
		return
	}
	unreg := cmd.NewUnregisterService(c.cmdCtx, conn.inner, id, func(err error) { onDone(toError(err)) })
	if _, err := c.dispatcher.SubmitCommand(unreg); err != nil {
		onDone(toError(err))
	}
}

// UnregisterService is the synchronous form of UnregisterServiceAsync.
func (c *Client) UnregisterService(conn *Conn, token string) *Error {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return dlErr
	}
	result := make(chan *Error, 1)
	c.UnregisterServiceAsync(conn, token, func(err *Error) { result <- err })
	return <-result
}

// NameHasOwnerAsync asks the bus daemon whether busName currently has
// an owner, asynchronously.
func (c *Client) NameHasOwnerAsync(conn *Conn, busName string, onDone func(hasOwner bool, err *Error)) {
	nho := cmd.NewNameHasOwner(conn.inner, busName, func(_ string, hasOwner bool, err error) {
		onDone(hasOwner, toError(err))
	})
	if _, err := c.dispatcher.SubmitCommand(nho); err != nil {
		onDone(false, toError(err))
	}
}

// NameHasOwner is the synchronous form of NameHasOwnerAsync.
func (c *Client) NameHasOwner(conn *Conn, busName string) (bool, *Error) {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return false, dlErr
	}
	type res struct {
		hasOwner bool
		err      *Error
	}
	out := make(chan res, 1)
	c.NameHasOwnerAsync(conn, busName, func(hasOwner bool, err *Error) { out <- res{hasOwner, err} })
	r := <-out
	return r.hasOwner, r.err
}

func firstOf(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}
