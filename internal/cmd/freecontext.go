package cmd

import (
	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
)

// FreeRequestContextCmd deletes a RequestContext. It has no reply.
// Per SPEC_FULL.md §9 Open Question 2, submitting this command against
// an already-stopped dispatcher fails at SubmitCommand with
// dispatch.ErrCmdSubmission and the context is leaked rather than
// freed, matching the original's documented behavior exactly — there
// is deliberately no special-case handling of that failure here.
type FreeRequestContextCmd struct {
	baseCmd
	conn  *bus.Connection
	token uuid.UUID
}

func NewFreeRequestContext(conn *bus.Connection, token uuid.UUID) *FreeRequestContextCmd {
	return &FreeRequestContextCmd{conn: conn, token: token}
}

func (c *FreeRequestContextCmd) Execute(d *dispatch.Dispatcher) {
	if ctx, ok := c.conn.RequestContext(c.token); ok {
		ctx.Free()
	}
}

func (c *FreeRequestContextCmd) ExecAndDestroy() bool { return true }
