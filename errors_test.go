package dbusipc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackedEncodesLevelDomainCode(t *testing.T) {
	e := newError(LevelError, DomainBus, CodeNotConnected)
	packed := e.Packed()

	require.Equal(t, uint32(LevelError), packed>>30)
	require.Equal(t, uint32(DomainBus), (packed>>28)&0x3)
	require.Equal(t, uint32(CodeNotConnected), packed&0x0FFFFFFF)
}

func TestIsErrorThresholds(t *testing.T) {
	require.False(t, IsError(nil))
	require.False(t, IsError(ErrOK))
	require.False(t, IsError(newError(LevelWarn, DomainLibrary, CodeCancelled)))
	require.True(t, IsError(newError(LevelError, DomainLibrary, CodeBadArgs)))
	require.True(t, IsError(newError(LevelFatal, DomainLibrary, CodeInternal)))
}

func TestErrorStringIncludesMessageWhenPresent(t *testing.T) {
	e := newBusError("com.example.Error.Broken", "it broke")
	require.Equal(t, "com.example.Error.Broken: it broke", e.Error())
}

func TestErrorStringOmitsEmptyMessage(t *testing.T) {
	e := newError(LevelError, DomainLibrary, CodeBadArgs)
	require.Equal(t, codeNames[CodeBadArgs], e.Error())
}

func TestNewBusErrorCarriesDaemonNameAndMessage(t *testing.T) {
	e := newBusError("org.freedesktop.DBus.Error.ServiceUnknown", "no such service")
	require.Equal(t, DomainBus, e.Domain)
	require.Equal(t, CodeBus, e.Code)
	require.Equal(t, "org.freedesktop.DBus.Error.ServiceUnknown", e.Name)
	require.Equal(t, "no such service", e.Message)
}

func TestErrorConstructorHelpers(t *testing.T) {
	require.Equal(t, CodeBadArgs, errBadArgs().Code)
	require.Equal(t, CodeNotFound, errNotFound().Code)
	require.Equal(t, CodeDeadlock, errDeadlock().Code)
	require.Equal(t, CodeCancelled, errCancelled().Code)
	require.Equal(t, LevelWarn, errCancelled().Level)
}

func TestErrInternalWrapsCause(t *testing.T) {
	underlying := errNotSupported()
	wrapped := errInternal(underlying)
	require.ErrorIs(t, wrapped, underlying)
}

func TestValidateUTF8(t *testing.T) {
	require.Nil(t, ValidateUTF8("hello"))
	require.NotNil(t, ValidateUTF8(string([]byte{0xff, 0xfe})))
}
