// Package dbusipc is a thread-safe, JSON-oriented client/server façade
// over the D-Bus message-bus protocol. It hides the asynchronous,
// non-thread-safe nature of the underlying D-Bus client behind a
// single internal dispatcher goroutine, presenting synchronous and
// asynchronous forms of every operation that are safe to call from any
// goroutine.
package dbusipc

import (
	"errors"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/sunxiaolin2016/dbusipc/internal/bus"
	"github.com/sunxiaolin2016/dbusipc/internal/cmd"
	"github.com/sunxiaolin2016/dbusipc/internal/dispatch"
)

// Client owns the dispatcher goroutine, the connection cache, and the
// parsed configuration. Most applications use the package-level
// Initialize/Shutdown singleton rather than constructing a Client
// directly with NewClient.
type Client struct {
	dispatcher *dispatch.Dispatcher
	cache      *bus.Cache
	cmdCtx     *cmd.Context
	cfg        *Config
	logger     *slog.Logger
}

// Conn is the public handle to an open bus connection.
type Conn struct {
	client *Client
	inner  *bus.Connection
}

var (
	globalMu       sync.Mutex
	global         *Client
	globalRefCount int
)

// Initialize sets up the package-level singleton Client, starting its
// dispatcher goroutine. Repeated calls are tolerated (spec.md §9's
// global-state rule): each adds a reference that a matching Shutdown
// must release.
func Initialize() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		globalRefCount++
		return nil
	}
	c, err := NewClient(nil)
	if err != nil {
		return err
	}
	global = c
	globalRefCount = 1
	return nil
}

// Shutdown releases one reference to the singleton Client, tearing it
// down once the last reference is released.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return
	}
	globalRefCount--
	if globalRefCount > 0 {
		return
	}
	global.Close()
	global = nil
}

// NewClient builds a standalone Client with its own dispatcher and
// connection cache. logger defaults to slog.Default() if nil.
func NewClient(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	d := dispatch.New(logger)
	if err := d.SetPriority(cfg.Priority()); err != nil {
		return nil, errBadArgs()
	}
	d.Start()

	c := &Client{
		dispatcher: d,
		cache:      bus.NewCache(),
		cfg:        cfg,
		logger:     logger,
	}
	c.cmdCtx = &cmd.Context{Cache: c.cache, Logger: logger, MaxDispatchProcTime: cfg.MaxDispatchProcTime()}
	return c, nil
}

// Close force-releases every cached connection and stops the
// dispatcher goroutine, waiting for it to exit.
func (c *Client) Close() {
	done := make(chan struct{})
	shutdownCmd := cmd.NewShutdown(c.cache, func() { close(done) })
	if _, err := c.dispatcher.SubmitCommand(shutdownCmd); err != nil {
		c.dispatcher.Stop()
	} else {
		<-done
	}
	c.dispatcher.Wait(0)
}

// ValidateUTF8 reports a Format error if s is not valid UTF-8, per
// spec.md §6/§7.
func ValidateUTF8(s string) *Error {
	if !utf8.ValidString(s) {
		return errFormat()
	}
	return nil
}

func toError(err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, cmd.ErrBadArgs):
		return errBadArgs()
	case errors.Is(err, cmd.ErrNotFound):
		return errNotFound()
	case errors.Is(err, cmd.ErrNotConnected):
		return errNotConnected()
	case errors.Is(err, cmd.ErrNameInUse):
		return newError(LevelError, DomainBus, CodeBadArgs)
	case errors.Is(err, dispatch.ErrNotFound):
		return errNotFound()
	case errors.Is(err, dispatch.ErrCmdSubmission):
		return errCmdSubmission()
	}
	if bus.IsCancelled(err) {
		return errCancelled()
	}
	return errConnSend(err)
}

// deadlockCheck returns a Deadlock error if called from the
// dispatcher's own goroutine, per spec.md §8's "Synchronous entry from
// the worker thread returns Deadlock without enqueuing".
func (c *Client) deadlockCheck() *Error {
	if c.dispatcher.IsCurrentThread() {
		return errDeadlock()
	}
	return nil
}

// --- OpenConnection / GetConnection -------------------------------------

// OpenConnectionAsync opens (or resolves a cached) connection to
// address asynchronously.
func (c *Client) OpenConnectionAsync(address string, private bool, onDone func(*Conn, *Error)) {
	c.openAsync(cmd.BusTypeAddress, address, private, onDone)
}

// OpenConnection is the synchronous form of OpenConnectionAsync.
func (c *Client) OpenConnection(address string, private bool) (*Conn, *Error) {
	return c.openSync(cmd.BusTypeAddress, address, private)
}

// GetConnectionAsync resolves a well-known bus (session or system)
// asynchronously.
func (c *Client) GetConnectionAsync(busType cmd.BusType, private bool, onDone func(*Conn, *Error)) {
	c.openAsync(busType, "", private, onDone)
}

// GetConnection is the synchronous form of GetConnectionAsync.
func (c *Client) GetConnection(busType cmd.BusType, private bool) (*Conn, *Error) {
	return c.openSync(busType, "", private)
}

func (c *Client) openAsync(busType cmd.BusType, address string, private bool, onDone func(*Conn, *Error)) {
	open := cmd.NewOpenConnection(c.cmdCtx, busType, address, private, func(inner *bus.Connection, err error) {
		if err != nil {
			onDone(nil, toError(err))
			return
		}
		onDone(&Conn{client: c, inner: inner}, nil)
	})
	if _, err := c.dispatcher.SubmitCommand(open); err != nil {
		onDone(nil, toError(err))
	}
}

func (c *Client) openSync(busType cmd.BusType, address string, private bool) (*Conn, *Error) {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return nil, dlErr
	}
	result := make(chan struct {
		conn *Conn
		err  *Error
	}, 1)
	c.openAsync(busType, address, private, func(conn *Conn, err *Error) {
		result <- struct {
			conn *Conn
			err  *Error
		}{conn, err}
	})
	r := <-result
	return r.conn, r.err
}

// --- CloseConnection -----------------------------------------------------

// CloseConnectionAsync releases conn asynchronously.
func (c *Client) CloseConnectionAsync(conn *Conn, onDone func(*Error)) {
	close := cmd.NewCloseConnection(conn.inner, func(err error) { onDone(toError(err)) })
	if _, err := c.dispatcher.SubmitCommand(close); err != nil {
		onDone(toError(err))
	}
}

// CloseConnection is the synchronous form of CloseConnectionAsync.
func (c *Client) CloseConnection(conn *Conn) *Error {
	if dlErr := c.deadlockCheck(); dlErr != nil {
		return dlErr
	}
	result := make(chan *Error, 1)
	c.CloseConnectionAsync(conn, func(err *Error) { result <- err })
	return <-result
}

// --- Cancel ----------------------------------------------------------------

// Cancel best-effort cancels a previously submitted handle.
func (c *Client) Cancel(handle dispatch.Handle) *Error {
	done := make(chan error, 1)
	cancelCmd := cmd.NewCancel(handle, func(err error) { done <- err })
	if _, err := c.dispatcher.SubmitCommand(cancelCmd); err != nil {
		return toError(err)
	}
	return toError(<-done)
}

// --- helpers exposed to tests/examples --------------------------------

// Dispatcher exposes the underlying dispatcher for tests that need to
// assert on IsRunning/IsCurrentThread directly.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }
