package cmd

import "github.com/sunxiaolin2016/dbusipc/internal/dispatch"

// CancelCmd asks the dispatcher to cancel a previously submitted
// command, per spec.md §4.3.
type CancelCmd struct {
	baseCmd
	target dispatch.Handle
	onDone func(error)
}

func NewCancel(target dispatch.Handle, onDone func(error)) *CancelCmd {
	return &CancelCmd{target: target, onDone: onDone}
}

func (c *CancelCmd) Execute(d *dispatch.Dispatcher) {
	c.onDone(d.CancelCommand(c.target))
}

func (c *CancelCmd) ExecAndDestroy() bool { return true }
