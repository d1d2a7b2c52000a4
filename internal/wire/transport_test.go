package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTransportUnixPath(t *testing.T) {
	tr, err := newTransport("unix:path=/run/dbus/system_bus_socket")
	require.NoError(t, err)
	ut, ok := tr.(*unixTransport)
	require.True(t, ok)
	require.Equal(t, "/run/dbus/system_bus_socket", ut.address)
}

func TestNewTransportUnixAbstract(t *testing.T) {
	tr, err := newTransport("unix:abstract=/tmp/dbus-test")
	require.NoError(t, err)
	ut, ok := tr.(*unixTransport)
	require.True(t, ok)
	require.Equal(t, "@/tmp/dbus-test", ut.address)
}

func TestNewTransportTCP(t *testing.T) {
	tr, err := newTransport("tcp:host=127.0.0.1,port=1234")
	require.NoError(t, err)
	tt, ok := tr.(*tcpTransport)
	require.True(t, ok)
	require.Equal(t, "127.0.0.1:1234", tt.address)
	require.Equal(t, "tcp4", tt.family)
}

func TestNewTransportUnknown(t *testing.T) {
	_, err := newTransport("launchd:env=DBUS_LAUNCHD_SESSION_BUS_SOCKET")
	require.Error(t, err)
}

func TestNewTransportEmpty(t *testing.T) {
	_, err := newTransport("")
	require.Error(t, err)
}

func TestAuthExternalMechanismAndNonEmptyInitialResponse(t *testing.T) {
	ext := AuthExternal{}
	require.NotEmpty(t, ext.InitialResponse())
	require.Equal(t, []byte("EXTERNAL"), ext.Mechanism())
}
