package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	call := NewMethodCall("com.example.echo", ObjectPath("/com/example/echo"), FacadeInterface, "Invoke", "ss", "Echo", `{"s":"hi"}`)
	call.Serial = 7

	var buf bytes.Buffer
	_, err := call.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadMessage(&buf)
	require.NoError(t, err)

	require.Equal(t, call.Type, got.Type)
	require.Equal(t, call.Serial, got.Serial)
	require.Equal(t, call.Path, got.Path)
	require.Equal(t, call.Interface, got.Interface)
	require.Equal(t, call.Member, got.Member)
	require.Equal(t, call.Destination, got.Destination)
	require.Equal(t, call.Signature, got.Signature)
	require.Equal(t, call.Args, got.Args)
}

func TestMessageRoundTripSignalWithArgs(t *testing.T) {
	sig := NewSignal(ObjectPath("/com/example/obj"), FacadeInterface, "Emit", "ss", "Chimed", `{"n":3}`)
	sig.Serial = 1

	var buf bytes.Buffer
	_, err := sig.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, TypeSignal, got.Type)
	require.Equal(t, []interface{}{"Chimed", `{"n":3}`}, got.Args)
}

func TestMessageRoundTripStringAndUint32Body(t *testing.T) {
	call := RequestNameCall("com.example.svc", NameFlagDoNotQueue|NameFlagReplaceExisting)
	call.Serial = 2

	var buf bytes.Buffer
	_, err := call.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, "RequestName", got.Member)
	require.Equal(t, []interface{}{"com.example.svc", NameFlagDoNotQueue | NameFlagReplaceExisting}, got.Args)
}

func TestMessageReplyCorrelation(t *testing.T) {
	call := NewMethodCall("com.example.echo", ObjectPath("/o"), FacadeInterface, "Invoke", "ss", "M", "P")
	call.Serial = 42
	call.Sender = ":1.5"

	reply := NewMethodReturn(call, "s", "result")
	var buf bytes.Buffer
	reply.Serial = 100
	_, err := reply.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(42), got.ReplySerial)
	require.Equal(t, []interface{}{"result"}, got.Args)
}

func TestMessageArg(t *testing.T) {
	m := &Message{Args: []interface{}{"hi", uint32(3), true}}
	var s string
	require.NoError(t, m.Arg(0, &s))
	require.Equal(t, "hi", s)

	var u uint32
	require.NoError(t, m.Arg(1, &u))
	require.Equal(t, uint32(3), u)

	var b bool
	require.NoError(t, m.Arg(2, &b))
	require.True(t, b)

	require.Error(t, m.Arg(5, &s))
}
