// Package cmd implements the closed set of command variants of
// spec.md §4.3, one file per variant, each satisfying
// internal/dispatch.Command. Every command is built with its
// completion delivered via an async callback; the root dbusipc package
// layers the synchronous (semaphore-blocking, Deadlock-checked) form on
// top by submitting the same async command and blocking on a channel,
// rather than duplicating sync/async variants down here — see
// DESIGN.md.
package cmd

import (
	"log/slog"
	"time"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
)

// Context bundles the shared collaborators every command needs beyond
// the dispatcher it executes on.
type Context struct {
	Cache               *bus.Cache
	Logger              *slog.Logger
	MaxDispatchProcTime time.Duration
}
