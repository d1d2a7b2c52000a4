package dispatch

import "time"

// timeoutID identifies a registered timeout.
type timeoutID uint64

// Timeout is a one-shot or repeating timer integrated into the
// dispatcher's main loop. Grounded on spec.md §3 Timeout and the
// original's DBusTimeoutWrapper/Timeout.cpp; used by this module for
// Invoke's caller-specified reply timeout.
type Timeout struct {
	id       timeoutID
	interval time.Duration
	expiry   time.Time
	repeat   bool
	enabled  bool
	onExpire func()
}

func (t *Timeout) Enable()  { t.enabled = true }
func (t *Timeout) Disable() { t.enabled = false }

// reset pushes expiry forward by interval from now, per spec.md §4.1
// step 5: "for repeating timers reset expiry before invoking the
// handler (which may delete the timer)".
func (t *Timeout) reset(now time.Time) {
	t.expiry = now.Add(t.interval)
}
