package dbusipc

import (
	"time"

	"github.com/sunxiaolin2016/dbusipc/internal/cmd"
	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// InvokeAsync calls method on the service owning destination at
// objPath, asynchronously. timeout < 0 means the library default;
// very large values are clamped to a multi-hour ceiling (spec.md §6).
// A nil parameters is substituted with "{}" by the command layer.
func (c *Client) InvokeAsync(conn *Conn, destination string, objPath wire.ObjectPath, method, parameters string, noReplyExpected bool, timeout time.Duration, onDone func(result string, busErr *Error)) {
	invoke := cmd.NewInvoke(conn.inner, destination, objPath, method, parameters, noReplyExpected, timeout, func(result, busErrName, busErrMsg string, err error) {
		if busErrName != "" {
			onDone("", newBusError(busErrName, busErrMsg))
			return
		}
		if err != nil {
			onDone("", toError(err))
			return
		}
		onDone(result, nil)
	})
	if _, err := c.dispatcher.SubmitCommand(invoke); err != nil {
		onDone("", toError(err))
	}
}

// Invoke is the synchronous form of InvokeAsync, returning a Response
// per spec.md §3.
func (c *Client) Invoke(conn *Conn, destination string, objPath wire.ObjectPath, method, parameters string, timeout time.Duration) *Response {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return &Response{Err: dlErr}
	}
	result := make(chan *Response, 1)
	c.InvokeAsync(conn, destination, objPath, method, parameters, false, timeout, func(res string, busErr *Error) {
		result <- &Response{Result: res, Err: busErr}
	})
	return <-result
}

// EmitAsync broadcasts signal name/data from the given registration's
// object path, asynchronously.
func (c *Client) EmitAsync(conn *Conn, registrationToken string, name, data string, onDone func(*Error)) {
	token, perr := parseToken(registrationToken)
	if perr != nil {
		onDone(perr)
		return
	}
	emit := cmd.NewEmit(conn.inner, token, name, data, func(err error) { onDone(toError(err)) })
	if _, err := c.dispatcher.SubmitCommand(emit); err != nil {
		onDone(toError(err))
	}
}

// Emit is the synchronous form of EmitAsync.
func (c *Client) Emit(conn *Conn, registrationToken string, name, data string) *Error {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return dlErr
	}
	result := make(chan *Error, 1)
	c.EmitAsync(conn, registrationToken, name, data, func(err *Error) { result <- err })
	return <-result
}
