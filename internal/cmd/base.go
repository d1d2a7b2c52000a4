package cmd

import "github.com/sunxiaolin2016/dbusipc/internal/dispatch"

// baseCmd supplies the Handle/SetHandle half of dispatch.Command so
// each variant only implements Execute and ExecAndDestroy.
type baseCmd struct {
	handle dispatch.Handle
}

func (b *baseCmd) Handle() dispatch.Handle     { return b.handle }
func (b *baseCmd) SetHandle(h dispatch.Handle) { b.handle = h }
