package bus

import (
	"time"

	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// Subscription owns an immutable match rule and a callback, per
// spec.md §4.4. Two flavors exist (user-signal, name-owner-changed);
// both are built from the same struct since the only difference is
// which wire.MatchRule constructor produced the rule and how many
// positional string arguments the callback expects.
type Subscription struct {
	Token uuid.UUID
	rule  *wire.MatchRule

	// onMatch receives the signal's unpacked string arguments, already
	// substituting "" for any argument the wire decoder didn't supply
	// (our decoder never produces a Go nil for a string arg, so this is
	// automatic rather than an explicit patch-up step).
	onMatch func(args []string)
}

// NewUserSignalSubscription builds a subscription matching Emit
// signals carrying sigName as their first argument on objPath.
func NewUserSignalSubscription(objPath wire.ObjectPath, sigName string, onMatch func(args []string)) *Subscription {
	return &Subscription{
		Token:   uuid.New(),
		rule:    wire.UserSignalRule(objPath, sigName),
		onMatch: onMatch,
	}
}

// NewOwnerChangedSubscription builds a subscription matching
// NameOwnerChanged signals, optionally narrowed to one bus name.
func NewOwnerChangedSubscription(busName string, onMatch func(args []string)) *Subscription {
	return &Subscription{
		Token:   uuid.New(),
		rule:    wire.NameOwnerChangedRule(busName),
		onMatch: onMatch,
	}
}

// Rule returns the match-rule string sent to the bus daemon via
// AddMatch/RemoveMatch.
func (s *Subscription) Rule() string {
	return s.rule.String()
}

// dispatchIfMatch reports whether msg matched this subscription's rule
// and, on match, how long the user callback took to run — the caller
// (Connection.route) compares that against maxDispatchProcTime and
// logs a warning, since only the connection knows the threshold.
func (s *Subscription) dispatchIfMatch(msg *wire.Message) (matched bool, elapsed time.Duration) {
	var arg0 string
	if len(msg.Args) > 0 {
		if str, ok := msg.Args[0].(string); ok {
			arg0 = str
		}
	}
	if !s.rule.Match(msg, arg0) {
		return false, 0
	}
	if s.onMatch == nil {
		return true, 0
	}
	args := make([]string, 0, len(msg.Args))
	for _, a := range msg.Args {
		if str, ok := a.(string); ok {
			args = append(args, str)
		} else {
			args = append(args, "")
		}
	}
	start := time.Now()
	s.onMatch(args)
	return true, time.Since(start)
}
