package bus

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// RequestContext packages one inbound method-call message so the
// eventual ReturnResult/ReturnError command can build the correctly
// correlated reply, per spec.md §4.5. It is created on inbound
// delivery and destroyed by the caller via FreeRequestContext.
type RequestContext struct {
	Token uuid.UUID

	conn *Connection
	call *wire.Message
}

func newRequestContext(conn *Connection, call *wire.Message) *RequestContext {
	return &RequestContext{Token: uuid.New(), conn: conn, call: call}
}

// SendReply builds and enqueues a method_return on the owning
// connection. A nil result is substituted with "{}", per spec.md §4.3's
// default-parameter rule applied uniformly to reply construction.
func (r *RequestContext) SendReply(result string) error {
	if result == "" {
		result = "{}"
	}
	reply := wire.NewMethodReturn(r.call, "s", result)
	return r.conn.SendOneShot(reply)
}

// SendError builds and enqueues an error reply. A nil message is
// substituted with "{}", matching SendReply.
func (r *RequestContext) SendError(errName, message string) error {
	if errName == "" {
		errName = "com.hsae.service.Error"
	}
	if message == "" {
		message = "{}"
	}
	reply := wire.NewError(r.call, errName, message)
	return r.conn.SendOneShot(reply)
}

// Free removes the context from its owning connection's registry.
// Per SPEC_FULL.md §9 Open Question 2, freeing against a stopped
// dispatcher is the caller's (FreeRequestContext command's) concern,
// not this method's — Free itself only ever runs on the dispatcher
// goroutine once the command has actually executed.
func (r *RequestContext) Free() {
	delete(r.conn.reqContexts, r.Token)
}
