package dbusipc

import "github.com/sunxiaolin2016/dbusipc/internal/cmd"

// ReturnResultAsync sends a successful reply for a request previously
// delivered to a RegisterService callback, asynchronously.
func (c *Client) ReturnResultAsync(ctx *ReqContext, result string, onDone func(*Error)) {
	token, perr := parseToken(ctx.token)
	if perr != nil {
		onDone(perr)
		return
	}
	ret := cmd.NewReturnResult(ctx.conn.inner, token, result, func(err error) { onDone(toError(err)) })
	if _, err := c.dispatcher.SubmitCommand(ret); err != nil {
		onDone(toError(err))
	}
}

// ReturnResult is the synchronous form of ReturnResultAsync.
func (c *Client) ReturnResult(ctx *ReqContext, result string) *Error {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return dlErr
	}
	out := make(chan *Error, 1)
	c.ReturnResultAsync(ctx, result, func(err *Error) { out <- err })
	return <-out
}

// ReturnErrorAsync sends an error reply for a request previously
// delivered to a RegisterService callback, asynchronously. errName and
// message default per spec.md §6 when empty.
func (c *Client) ReturnErrorAsync(ctx *ReqContext, errName, message string, onDone func(*Error)) {
	token, perr := parseToken(ctx.token)
	if perr != nil {
		onDone(perr)
		return
	}
	ret := cmd.NewReturnError(ctx.conn.inner, token, errName, message, func(err error) { onDone(toError(err)) })
	if _, err := c.dispatcher.SubmitCommand(ret); err != nil {
		onDone(toError(err))
	}
}

// ReturnError is the synchronous form of ReturnErrorAsync.
func (c *Client) ReturnError(ctx *ReqContext, errName, message string) *Error {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return dlErr
	}
	out := make(chan *Error, 1)
	c.ReturnErrorAsync(ctx, errName, message, func(err *Error) { out <- err })
	return <-out
}

// freeRequestContextAsync backs the public FreeReqContext. It has no
// meaningful failure mode callers need to observe (spec.md §8), but
// keeps the onDone shape for symmetry with the other command wrappers.
func (c *Client) freeRequestContextAsync(ctx *ReqContext, onDone func(*Error)) {
	token, perr := parseToken(ctx.token)
	if perr != nil {
		onDone(perr)
		return
	}
	free := cmd.NewFreeRequestContext(ctx.conn.inner, token)
	if _, err := c.dispatcher.SubmitCommand(free); err != nil {
		onDone(toError(err))
		return
	}
	onDone(nil)
}
