package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

func TestUserSignalSubscriptionMatchesAndDeliversArgs(t *testing.T) {
	var got []string
	sub := NewUserSignalSubscription(wire.ObjectPath("/com/example/echo"), "Chimed", func(args []string) {
		got = args
	})
	require.Equal(t, "type='signal',path='/com/example/echo',interface='com.hsae.dbusipc',member='Emit',arg0='Chimed'", sub.Rule())

	msg := wire.NewSignal(wire.ObjectPath("/com/example/echo"), "com.hsae.dbusipc", "Emit", "ss", "Chimed", `{"n":3}`)
	matched, elapsed := sub.dispatchIfMatch(msg)
	require.True(t, matched)
	require.GreaterOrEqual(t, elapsed, time.Duration(0))
	require.Equal(t, []string{"Chimed", `{"n":3}`}, got)
}

func TestUserSignalSubscriptionIgnoresOtherSignalName(t *testing.T) {
	called := false
	sub := NewUserSignalSubscription(wire.ObjectPath("/com/example/echo"), "Chimed", func(args []string) {
		called = true
	})

	msg := wire.NewSignal(wire.ObjectPath("/com/example/echo"), "com.hsae.dbusipc", "Emit", "ss", "SomethingElse", `{}`)
	matched, _ := sub.dispatchIfMatch(msg)
	require.False(t, matched)
	require.False(t, called)
}

func TestUserSignalSubscriptionIgnoresOtherPath(t *testing.T) {
	sub := NewUserSignalSubscription(wire.ObjectPath("/com/example/echo"), "Chimed", func(args []string) {})
	msg := wire.NewSignal(wire.ObjectPath("/com/example/other"), "com.hsae.dbusipc", "Emit", "ss", "Chimed", `{}`)
	matched, _ := sub.dispatchIfMatch(msg)
	require.False(t, matched)
}

func TestOwnerChangedSubscriptionNarrowedToName(t *testing.T) {
	var got []string
	sub := NewOwnerChangedSubscription("com.example.Target", func(args []string) { got = args })
	require.Contains(t, sub.Rule(), "arg0='com.example.Target'")

	msg := &wire.Message{
		Type:      wire.TypeSignal,
		Sender:    wire.BusDaemonName,
		Path:      wire.BusDaemonPath,
		Interface: wire.BusDaemonInterface,
		Member:    "NameOwnerChanged",
		Args:      []interface{}{"com.example.Target", ":1.1", ":1.2"},
	}
	matched, _ := sub.dispatchIfMatch(msg)
	require.True(t, matched)
	require.Equal(t, []string{"com.example.Target", ":1.1", ":1.2"}, got)

	msg.Args[0] = "com.example.Other"
	matched, _ = sub.dispatchIfMatch(msg)
	require.False(t, matched)
}

func TestOwnerChangedSubscriptionUnnarrowedMatchesAnyName(t *testing.T) {
	sub := NewOwnerChangedSubscription("", func(args []string) {})
	msg := &wire.Message{
		Type:      wire.TypeSignal,
		Sender:    wire.BusDaemonName,
		Path:      wire.BusDaemonPath,
		Interface: wire.BusDaemonInterface,
		Member:    "NameOwnerChanged",
		Args:      []interface{}{"com.example.Anything", "", ":1.2"},
	}
	matched, _ := sub.dispatchIfMatch(msg)
	require.True(t, matched)
}

func TestDispatchIfMatchToleratesNilCallback(t *testing.T) {
	sub := NewUserSignalSubscription(wire.ObjectPath("/o"), "Sig", nil)
	msg := wire.NewSignal(wire.ObjectPath("/o"), "com.hsae.dbusipc", "Emit", "ss", "Sig", "{}")
	matched, elapsed := sub.dispatchIfMatch(msg)
	require.True(t, matched)
	require.Zero(t, elapsed)
}

func TestSubscriptionTokensAreUnique(t *testing.T) {
	a := NewUserSignalSubscription(wire.ObjectPath("/o"), "X", nil)
	b := NewUserSignalSubscription(wire.ObjectPath("/o"), "X", nil)
	require.NotEqual(t, a.Token, b.Token)
}
