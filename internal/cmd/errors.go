package cmd

import "github.com/pkg/errors"

// Sentinel errors a command's onDone callback may deliver. The root
// dbusipc package maps these onto the packed Error encoding of
// spec.md §3 — kept here as plain errors (not the packed type) so this
// package has no dependency on the root package, which depends on it.
var (
	ErrBadArgs      = errors.New("cmd: bad arguments")
	ErrNotFound     = errors.New("cmd: not found")
	ErrNotConnected = errors.New("cmd: not connected")
	ErrNameInUse    = errors.New("cmd: bus name already owned by another process")
)

func errBadArgs(msg string) error {
	return errors.Wrap(ErrBadArgs, msg)
}
