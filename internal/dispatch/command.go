package dispatch

// Handle is a monotonically assigned, opaque command identifier. 0 is
// reserved as the "invalid" sentinel, per spec.md §3.
type Handle uint32

// InvalidHandle is the reserved sentinel value.
const InvalidHandle Handle = 0

// Command is the closed set of operations the dispatcher can execute,
// modeled as an interface satisfied by a fixed set of concrete types in
// internal/cmd rather than an open class hierarchy — spec.md §9's
// stated preference translated into Go's idiom.
//
// Cancellation of a deferred command is not a method on Command: once
// Execute has run, the dispatcher holds no further reference to the
// command value, only to the Connection it registered itself with as a
// PendingHolder. CancelCommand therefore asks every registered
// PendingHolder to steal and discard the pending call directly (see
// Connection.CancelPending), which is the same "steal the reply,
// deliver Cancelled once" contract spec.md §4.1 describes.
type Command interface {
	// Handle returns the command's assigned handle (InvalidHandle
	// before submission).
	Handle() Handle
	// SetHandle is called once by the dispatcher at submission time.
	SetHandle(Handle)
	// Execute runs the command on the dispatcher's owning goroutine.
	Execute(d *Dispatcher)
	// ExecAndDestroy reports whether the dispatcher should drop the
	// command immediately after Execute returns. Commands that defer
	// completion to a later reply notification return false and
	// re-register themselves as pending on a Connection instead.
	ExecAndDestroy() bool
}
