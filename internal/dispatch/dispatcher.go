package dispatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by CancelCommand when no pending command
// matches the given handle.
var ErrNotFound = errors.New("dispatch: no pending command with that handle")

// ErrCmdSubmission is returned by SubmitCommand when the dispatcher has
// already fully stopped.
var ErrCmdSubmission = errors.New("dispatch: command queue is closed")

// PendingHolder is implemented by anything that tracks commands
// awaiting a reply (internal/bus.Connection) so Dispatcher.CancelCommand
// can ask each one, per spec.md §4.1.
type PendingHolder interface {
	CancelPending(h Handle) bool
}

const defaultPollWait = 3 * time.Second

type postedEvent struct {
	id      watchID
	payload interface{}
}

// Dispatcher is the single owning goroutine that multiplexes the
// command queue, connection watches, and timers, per spec.md §4.1. It
// is the Go realization of the original's Dispatcher/poll(2) event
// loop — see SPEC_FULL.md §4.1 for why a channel-based select replaces
// poll on a raw descriptor set.
type Dispatcher struct {
	logger *slog.Logger

	queueMu    sync.Mutex
	queue      []Command
	nextHandle Handle
	running    bool
	startOnce  sync.Once
	stopOnce   sync.Once
	stopCh     chan struct{}
	stoppedCh  chan struct{}
	wake       chan struct{}
	events     chan postedEvent

	loopGID uint64 // only written once from the loop goroutine at startup

	nextWatchID watchID
	watches     map[watchID]*Watch

	nextTimeoutID timeoutID
	timeouts      map[timeoutID]*Timeout

	pendingMu sync.Mutex
	pending   []PendingHolder

	priority Priority
}

func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:    logger,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		wake:      make(chan struct{}, 1),
		events:    make(chan postedEvent, 256),
		watches:   make(map[watchID]*Watch),
		timeouts:  make(map[timeoutID]*Timeout),
	}
}

// Start spawns the owning goroutine. It is idempotent.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.queueMu.Lock()
		d.running = true
		d.queueMu.Unlock()
		go d.run()
	})
}

// Stop requests the loop to exit after its current tick. It does not
// wait for the goroutine to exit — use Wait for that.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.queueMu.Lock()
		d.running = false
		d.queueMu.Unlock()
		close(d.stopCh)
	})
}

// Wait blocks until the owning goroutine has exited, or until timeout
// elapses (timeout <= 0 means wait forever). It reports whether the
// loop had exited.
func (d *Dispatcher) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-d.stoppedCh
		return true
	}
	select {
	case <-d.stoppedCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// IsRunning reports whether the loop is still processing ticks.
func (d *Dispatcher) IsRunning() bool {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return d.running
}

// IsCurrentThread reports whether the calling goroutine is the
// dispatcher's owning goroutine — the basis of the Deadlock check
// every synchronous public entry point must perform (spec.md §5).
func (d *Dispatcher) IsCurrentThread() bool {
	return currentGoroutineID() == d.loopGID
}

// SetPriority validates and records the requested scheduling priority.
// See internal/dispatch/priority.go for why this validates rather than
// silently clamps.
func (d *Dispatcher) SetPriority(p Priority) error {
	if err := ValidatePriority(p); err != nil {
		return err
	}
	d.priority = p
	return nil
}

// SubmitCommand assigns cmd the next non-zero handle, enqueues it, and
// wakes the loop. Per spec.md §4.1, the handle is written into the
// command before the lock is released, so a racing Cancel observes it.
func (d *Dispatcher) SubmitCommand(cmd Command) (Handle, error) {
	select {
	case <-d.stoppedCh:
		return InvalidHandle, ErrCmdSubmission
	default:
	}

	d.queueMu.Lock()
	d.nextHandle++
	if d.nextHandle == InvalidHandle {
		d.nextHandle++ // skip 0 on overflow
	}
	h := d.nextHandle
	cmd.SetHandle(h)
	d.queue = append(d.queue, cmd)
	d.queueMu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return h, nil
}

// RegisterPendingHolder adds ph to the set CancelCommand searches.
func (d *Dispatcher) RegisterPendingHolder(ph PendingHolder) {
	d.pendingMu.Lock()
	d.pending = append(d.pending, ph)
	d.pendingMu.Unlock()
}

// UnregisterPendingHolder removes ph from the set.
func (d *Dispatcher) UnregisterPendingHolder(ph PendingHolder) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	for i, p := range d.pending {
		if p == ph {
			d.pending = append(d.pending[:i], d.pending[i+1:]...)
			return
		}
	}
}

// CancelCommand asks every registered PendingHolder (Connection) to
// cancel the command with the given handle. It must only be called
// from the owning goroutine (it is itself driven by the Cancel
// command, see internal/cmd).
func (d *Dispatcher) CancelCommand(h Handle) error {
	d.pendingMu.Lock()
	holders := append([]PendingHolder(nil), d.pending...)
	d.pendingMu.Unlock()

	for _, ph := range holders {
		if ph.CancelPending(h) {
			return nil
		}
	}
	return ErrNotFound
}

// AddWatch registers handler to be invoked (on the owning goroutine)
// whenever an event is posted for the returned Watch.
func (d *Dispatcher) AddWatch(handler func(interface{})) *Watch {
	id := d.nextWatchID
	d.nextWatchID++
	w := &Watch{id: id, enabled: true, handler: handler}
	d.watches[id] = w
	return w
}

// RemoveWatch unregisters w. Events already in flight for it are
// dropped (spec.md §4.1 step 6).
func (d *Dispatcher) RemoveWatch(w *Watch) {
	delete(d.watches, w.id)
}

// PostEvent delivers payload to w asynchronously, from any goroutine
// (typically a connection's dedicated reader goroutine).
func (d *Dispatcher) PostEvent(w *Watch, payload interface{}) {
	d.events <- postedEvent{id: w.id, payload: payload}
}

// AddTimeout registers a new timer that fires onExpire (on the owning
// goroutine) after interval, repeating if repeat is set.
func (d *Dispatcher) AddTimeout(interval time.Duration, repeat bool, onExpire func()) *Timeout {
	id := d.nextTimeoutID
	d.nextTimeoutID++
	t := &Timeout{
		id:       id,
		interval: interval,
		expiry:   time.Now().Add(interval),
		repeat:   repeat,
		enabled:  true,
		onExpire: onExpire,
	}
	d.timeouts[id] = t
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return t
}

// RemoveTimeout unregisters t.
func (d *Dispatcher) RemoveTimeout(t *Timeout) {
	delete(d.timeouts, t.id)
}

func (d *Dispatcher) run() {
	d.loopGID = currentGoroutineID()
	defer close(d.stoppedCh)
	for d.IsRunning() {
		if !d.tick() {
			return
		}
	}
}

// tick runs one iteration of the five-step algorithm in spec.md §4.1,
// steps 1-2 collapsed as documented in SPEC_FULL.md §4.1 (there is no separate
// "has more buffered data" flag to drain — each reader goroutine
// delivers exactly one decoded message per read).
func (d *Dispatcher) tick() bool {
	now := time.Now()
	wait := d.computeWaitBound(now)

	timer := time.NewTimer(wait)
	var ev *postedEvent

	select {
	case <-d.stopCh:
		timer.Stop()
		return false
	case <-d.wake:
		timer.Stop()
	case got := <-d.events:
		timer.Stop()
		ev = &got
	case <-timer.C:
	}

	d.expireTimers(time.Now())
	if ev != nil {
		d.deliverEvent(*ev)
	}
	d.drainCommands()
	return true
}

func (d *Dispatcher) computeWaitBound(now time.Time) time.Duration {
	wait := defaultPollWait
	for _, t := range d.timeouts {
		if !t.enabled {
			continue
		}
		if !now.Before(t.expiry) {
			return 0
		}
		if rem := t.expiry.Sub(now); rem < wait {
			wait = rem
		}
	}
	return wait
}

func (d *Dispatcher) expireTimers(now time.Time) {
	var expired []timeoutID
	for id, t := range d.timeouts {
		if t.enabled && !now.Before(t.expiry) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		t, ok := d.timeouts[id]
		if !ok || !t.enabled {
			continue
		}
		if t.repeat {
			t.reset(now)
		} else {
			delete(d.timeouts, id)
		}
		d.safeInvoke("timeout", t.onExpire)
	}
}

func (d *Dispatcher) deliverEvent(ev postedEvent) {
	w, ok := d.watches[ev.id]
	if !ok || !w.enabled {
		return
	}
	handler := w.handler
	d.safeInvoke("watch", func() { handler(ev.payload) })
}

func (d *Dispatcher) drainCommands() {
	for {
		d.queueMu.Lock()
		if len(d.queue) == 0 {
			d.queueMu.Unlock()
			return
		}
		cmd := d.queue[0]
		d.queue = d.queue[1:]
		d.queueMu.Unlock()

		d.safeInvoke("command", func() { cmd.Execute(d) })
	}
}

// safeInvoke recovers a panic from fn so one misbehaving command or
// user callback cannot take down the dispatcher, per spec.md §4.1's
// failure model.
func (d *Dispatcher) safeInvoke(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch: recovered panic", "kind", kind, "panic", r)
		}
	}()
	fn()
}
