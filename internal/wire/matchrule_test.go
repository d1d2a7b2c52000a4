package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserSignalRuleString(t *testing.T) {
	r := UserSignalRule(ObjectPath("/com/example/obj"), "Chimed")
	require.Equal(t, "type='signal',path='/com/example/obj',interface='com.hsae.dbusipc',member='Emit',arg0='Chimed'", r.String())
}

func TestNameOwnerChangedRuleEmptyMatchesAny(t *testing.T) {
	r := NameOwnerChangedRule("")
	msg := &Message{Type: TypeSignal, Sender: BusDaemonName, Path: BusDaemonPath, Interface: BusDaemonInterface, Member: "NameOwnerChanged"}
	require.True(t, r.Match(msg, "anything.at.all"))
}

func TestNameOwnerChangedRuleSpecificName(t *testing.T) {
	r := NameOwnerChangedRule("com.example.svc")
	msg := &Message{Type: TypeSignal, Sender: BusDaemonName, Path: BusDaemonPath, Interface: BusDaemonInterface, Member: "NameOwnerChanged"}
	require.True(t, r.Match(msg, "com.example.svc"))
	require.False(t, r.Match(msg, "com.example.other"))
}

func TestMatchRuleRejectsWrongType(t *testing.T) {
	r := UserSignalRule(ObjectPath("/o"), "Sig")
	msg := &Message{Type: TypeMethodCall, Path: ObjectPath("/o"), Interface: FacadeInterface, Member: "Emit"}
	require.False(t, r.Match(msg, "Sig"))
}
