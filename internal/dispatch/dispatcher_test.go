package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// funcCommand adapts a plain function to the Command interface for
// tests, mirroring internal/cmd's ExecAndDestroy-true commands.
type funcCommand struct {
	baseHandle Handle
	run        func(d *Dispatcher)
}

func (c *funcCommand) Handle() Handle     { return c.baseHandle }
func (c *funcCommand) SetHandle(h Handle) { c.baseHandle = h }
func (c *funcCommand) Execute(d *Dispatcher) {
	if c.run != nil {
		c.run(d)
	}
}
func (c *funcCommand) ExecAndDestroy() bool { return true }

type fakeHolder struct {
	mu        sync.Mutex
	canceled  Handle
	cancelHit bool
}

func (f *fakeHolder) CancelPending(h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = h
	f.cancelHit = true
	return true
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	d := New(nil)
	d.Start()
	t.Cleanup(func() {
		d.Stop()
		d.Wait(2 * time.Second)
	})
	return d
}

func TestSubmitCommandRunsOnOwningGoroutine(t *testing.T) {
	d := newTestDispatcher(t)

	var sawGID uint64
	done := make(chan struct{})
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		sawGID = currentGoroutineID()
		close(done)
	}})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("command never ran")
	}
	require.Equal(t, d.loopGID, sawGID)
}

func TestIsCurrentThread(t *testing.T) {
	d := newTestDispatcher(t)
	require.False(t, d.IsCurrentThread())

	insideCh := make(chan bool, 1)
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		insideCh <- dd.IsCurrentThread()
	}})
	require.NoError(t, err)
	require.True(t, <-insideCh)
}

func TestSubmitCommandAfterStopFails(t *testing.T) {
	d := New(nil)
	d.Start()
	d.Stop()
	d.Wait(2 * time.Second)

	_, err := d.SubmitCommand(&funcCommand{})
	require.ErrorIs(t, err, ErrCmdSubmission)
}

func TestHandlesAreMonotonicAndSkipZero(t *testing.T) {
	d := newTestDispatcher(t)

	h1, err := d.SubmitCommand(&funcCommand{})
	require.NoError(t, err)
	h2, err := d.SubmitCommand(&funcCommand{})
	require.NoError(t, err)

	require.NotEqual(t, InvalidHandle, h1)
	require.NotEqual(t, InvalidHandle, h2)
	require.Less(t, uint32(h1), uint32(h2))
}

func TestCancelCommandAsksPendingHolders(t *testing.T) {
	d := newTestDispatcher(t)
	holder := &fakeHolder{}

	registered := make(chan struct{})
	h, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		dd.RegisterPendingHolder(holder)
		close(registered)
	}})
	require.NoError(t, err)
	<-registered

	cancelDone := make(chan error, 1)
	_, err = d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		cancelDone <- dd.CancelCommand(h)
	}})
	require.NoError(t, err)

	require.NoError(t, <-cancelDone)
	holder.mu.Lock()
	defer holder.mu.Unlock()
	require.True(t, holder.cancelHit)
	require.Equal(t, h, holder.canceled)
}

func TestCancelCommandNotFound(t *testing.T) {
	d := newTestDispatcher(t)

	result := make(chan error, 1)
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		result <- dd.CancelCommand(Handle(9999))
	}})
	require.NoError(t, err)
	require.ErrorIs(t, <-result, ErrNotFound)
}

func TestUnregisterPendingHolderRemovesIt(t *testing.T) {
	d := newTestDispatcher(t)
	holder := &fakeHolder{}

	done := make(chan error, 1)
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		dd.RegisterPendingHolder(holder)
		dd.UnregisterPendingHolder(holder)
		done <- dd.CancelCommand(Handle(1))
	}})
	require.NoError(t, err)
	require.ErrorIs(t, <-done, ErrNotFound)
	require.False(t, holder.cancelHit)
}

func TestWatchDeliversPostedEvent(t *testing.T) {
	d := newTestDispatcher(t)

	received := make(chan interface{}, 1)
	var w *Watch
	setup := make(chan struct{})
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		w = dd.AddWatch(func(payload interface{}) { received <- payload })
		close(setup)
	}})
	require.NoError(t, err)
	<-setup

	d.PostEvent(w, "hello")
	select {
	case got := <-received:
		require.Equal(t, "hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestRemoveWatchDropsLaterEvents(t *testing.T) {
	d := newTestDispatcher(t)

	var calls int32
	var w *Watch
	setup := make(chan struct{})
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		w = dd.AddWatch(func(interface{}) { atomic.AddInt32(&calls, 1) })
		close(setup)
	}})
	require.NoError(t, err)
	<-setup

	removed := make(chan struct{})
	_, err = d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		dd.RemoveWatch(w)
		close(removed)
	}})
	require.NoError(t, err)
	<-removed

	d.PostEvent(w, "ignored")

	// Give the loop a chance to process (and drop) the event.
	barrier := make(chan struct{})
	_, err = d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) { close(barrier) }})
	require.NoError(t, err)
	<-barrier

	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAddTimeoutFiresOnce(t *testing.T) {
	d := newTestDispatcher(t)

	fired := make(chan struct{})
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		dd.AddTimeout(10*time.Millisecond, false, func() { close(fired) })
	}})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}
}

func TestAddTimeoutRepeats(t *testing.T) {
	d := newTestDispatcher(t)

	var count int32
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		dd.AddTimeout(5*time.Millisecond, true, func() { atomic.AddInt32(&count, 1) })
	}})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemoveTimeoutStopsFiring(t *testing.T) {
	d := newTestDispatcher(t)

	var count int32
	removed := make(chan struct{})
	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		var timeout *Timeout
		timeout = dd.AddTimeout(5*time.Millisecond, true, func() {
			atomic.AddInt32(&count, 1)
		})
		time.AfterFunc(20*time.Millisecond, func() {
			d.SubmitCommand(&funcCommand{run: func(dd2 *Dispatcher) {
				dd2.RemoveTimeout(timeout)
				close(removed)
			}})
		})
	}})
	require.NoError(t, err)

	<-removed
	seen := atomic.LoadInt32(&count)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, seen, atomic.LoadInt32(&count))
}

func TestPanicInCommandDoesNotKillLoop(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) {
		panic("boom")
	}})
	require.NoError(t, err)

	done := make(chan struct{})
	_, err = d.SubmitCommand(&funcCommand{run: func(dd *Dispatcher) { close(done) }})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop appears dead after panic")
	}
	require.True(t, d.IsRunning())
}

func TestStopIsIdempotentAndWaitReturns(t *testing.T) {
	d := New(nil)
	d.Start()
	d.Stop()
	d.Stop() // must not panic or block
	require.True(t, d.Wait(2*time.Second))
	require.False(t, d.IsRunning())
}

func TestWaitTimesOutIfNotStopped(t *testing.T) {
	d := New(nil)
	d.Start()
	defer func() {
		d.Stop()
		d.Wait(2 * time.Second)
	}()

	require.False(t, d.Wait(20*time.Millisecond))
}

func TestSetPriorityRejectsInvalid(t *testing.T) {
	d := New(nil)
	err := d.SetPriority(Priority(999))
	require.Error(t, err)
}
