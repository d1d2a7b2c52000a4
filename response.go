package dbusipc

// Response is the heap-owned record spec.md §3 returns from a
// synchronous Invoke: in Go, ownership is garbage-collected rather than
// caller-freed, but FreeResponse is kept as a public no-op so callers
// written against the conceptual C-style API (§6) still compile and
// behave per spec's "freeResponse(null) is a no-op" rule.
type Response struct {
	Err    *Error
	Result string
}

// FreeResponse is a no-op: Response carries no manually-managed
// resources in this implementation. A nil Response is accepted.
func FreeResponse(r *Response) {}

// ReqContext is the public handle to a bus.RequestContext returned on
// inbound method delivery. It must be freed via FreeReqContext after
// ReturnResult or ReturnError is issued.
type ReqContext struct {
	conn  *Conn
	token string
}

// FreeReqContext submits the FreeRequestContext command. A nil context
// is a no-op, per spec.md §8.
func (c *Client) FreeReqContext(ctx *ReqContext) {
	if ctx == nil {
		return
	}
	c.freeRequestContextAsync(ctx, func(*Error) {})
}
