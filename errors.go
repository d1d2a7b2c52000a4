package dbusipc

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Level is the severity band packed into the top 2 bits of an Error.
type Level uint8

const (
	LevelNone Level = iota
	LevelWarn
	LevelError
	LevelFatal
)

// Domain classifies where an Error originated, packed into bits 28-29.
type Domain uint8

const (
	DomainLibrary Domain = iota
	DomainBus
	DomainPosix
	DomainPlatform
)

// Code is the closed, 28-bit failure-reason enum of spec.md §3.
type Code uint32

const (
	CodeOK Code = iota
	CodeNotSupported
	CodeNoMemory
	CodeBadArgs
	CodeInternal
	CodeBus
	CodeCmdSubmission
	CodeNotConnected
	CodeCancelled
	CodeConnSend
	CodeNotFound
	CodeDeadlock
	CodeFormat
)

// codeNames is the dotted error-name table used on the wire for bus
// errors we originate ourselves (errors relayed from the daemon carry
// its own name instead, see newBusError).
var codeNames = map[Code]string{
	CodeOK:            "com.hsae.dbusipc.Error.OK",
	CodeNotSupported:  "com.hsae.dbusipc.Error.NotSupported",
	CodeNoMemory:      "com.hsae.dbusipc.Error.NoMemory",
	CodeBadArgs:       "com.hsae.dbusipc.Error.BadArgs",
	CodeInternal:      "com.hsae.dbusipc.Error.Internal",
	CodeBus:           "com.hsae.dbusipc.Error.Bus",
	CodeCmdSubmission: "com.hsae.dbusipc.Error.CmdSubmission",
	CodeNotConnected:  "com.hsae.dbusipc.Error.NotConnected",
	CodeCancelled:     "com.hsae.dbusipc.Error.Cancelled",
	CodeConnSend:      "com.hsae.dbusipc.Error.ConnSend",
	CodeNotFound:      "com.hsae.dbusipc.Error.NotFound",
	CodeDeadlock:      "com.hsae.dbusipc.Error.Deadlock",
	CodeFormat:        "com.hsae.dbusipc.Error.Format",
}

// Error is the packed 32-bit value of spec.md §3, carrying enough to
// reconstruct level/domain/code plus, for bus errors, the daemon's own
// error name and message. cause is a debug-only wrapped low-level error
// (via github.com/pkg/errors) that never crosses the public boundary as
// anything but this packed value — the supplemental DBusErrorHolder
// equivalent called for in SPEC_FULL.md §3.
type Error struct {
	Level Level
	Domain Domain
	Code  Code

	Name    string
	Message string

	cause error
}

// Packed returns the 32-bit encoding: bits 30-31 level, bits 28-29
// domain, bits 0-27 code.
func (e *Error) Packed() uint32 {
	return uint32(e.Level)<<30 | uint32(e.Domain)<<28 | uint32(e.Code)
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	}
	return e.Name
}

// Unwrap exposes the debug-only wrapped cause, if any, to
// errors.Is/errors.As — never serialized, never returned by any
// exported function's string fields.
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(level Level, domain Domain, code Code) *Error {
	return &Error{Level: level, Domain: domain, Code: code, Name: codeNames[code]}
}

// newErrorWrapping packs cause (wrapped with pkgerrors for a stack-
// annotated chain in debug logs) into a classified Error.
func newErrorWrapping(level Level, domain Domain, code Code, cause error) *Error {
	e := newError(level, domain, code)
	e.cause = pkgerrors.Wrap(cause, e.Name)
	return e
}

// newBusError builds a Bus-domain error carrying the daemon's own
// error name and message, per spec.md §7 "Bus errors ... carries the
// daemon's error-name and message".
func newBusError(name, message string) *Error {
	return &Error{Level: LevelError, Domain: DomainBus, Code: CodeBus, Name: name, Message: message}
}

// ErrOK is the zero-value success sentinel: level none, code OK.
var ErrOK = newError(LevelNone, DomainLibrary, CodeOK)

// IsError reports whether e's level bits indicate error or fatal, per
// spec.md §6's IS_ERROR predicate. A nil Error (or ErrOK) is not an
// error.
func IsError(e *Error) bool {
	return e != nil && e.Level >= LevelError
}

func errBadArgs() *Error     { return newError(LevelError, DomainLibrary, CodeBadArgs) }
func errNotSupported() *Error { return newError(LevelError, DomainLibrary, CodeNotSupported) }
func errInternal(cause error) *Error {
	return newErrorWrapping(LevelError, DomainLibrary, CodeInternal, cause)
}
func errCmdSubmission() *Error { return newError(LevelError, DomainLibrary, CodeCmdSubmission) }
func errNotConnected() *Error  { return newError(LevelError, DomainBus, CodeNotConnected) }
func errCancelled() *Error     { return newError(LevelWarn, DomainLibrary, CodeCancelled) }
func errConnSend(cause error) *Error {
	return newErrorWrapping(LevelError, DomainBus, CodeConnSend, cause)
}
func errNotFound() *Error { return newError(LevelError, DomainLibrary, CodeNotFound) }
func errDeadlock() *Error { return newError(LevelError, DomainLibrary, CodeDeadlock) }
func errFormat() *Error   { return newError(LevelError, DomainLibrary, CodeFormat) }
