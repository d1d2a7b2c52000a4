package dispatch

// watchID identifies a registered watch.
type watchID uint64

// Watch bridges a connection's readability into the dispatcher's main
// loop. In the original C++ implementation this wraps a DBusWatch and
// an OS file descriptor polled with poll(2); here it wraps a
// connection's dedicated reader goroutine (see internal/wire.Conn.
// StartReader), which is the idiomatic Go equivalent of "data is ready"
// detected outside the dispatcher's owning goroutine. Grounded on
// spec.md §3 Watch and the original's DBusWatchWrapper.
type Watch struct {
	id      watchID
	enabled bool
	handler func(payload interface{})
}

// Enable/Disable toggle whether events posted for this watch are
// delivered. A disabled watch's posted events are silently dropped by
// the dispatcher loop (spec.md §4.1 step 6: re-check membership before
// invoking, since a prior handler in the same tick may have removed
// it).
func (w *Watch) Enable()  { w.enabled = true }
func (w *Watch) Disable() { w.enabled = false }
