package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

func TestDefaultObjectPathTranslatesDots(t *testing.T) {
	require.Equal(t, wire.ObjectPath("/com/example/echo"), DefaultObjectPath("com.example.echo"))
}

func TestDefaultObjectPathTranslatesHyphensAndOther(t *testing.T) {
	require.Equal(t, wire.ObjectPath("/com/example/my_svc_2"), DefaultObjectPath("com.example.my-svc#2"))
}

func TestNewRegistrationDefaultsObjectPath(t *testing.T) {
	reg := NewRegistration("com.example.echo", "", func(*RequestContext, string, string, bool, string) {})
	require.Equal(t, wire.ObjectPath("/com/example/echo"), reg.ObjectPath)
	require.Equal(t, "com.example.echo", reg.BusName)
}

func TestNewRegistrationHonorsExplicitObjectPath(t *testing.T) {
	reg := NewRegistration("com.example.echo", wire.ObjectPath("/custom/path"), func(*RequestContext, string, string, bool, string) {})
	require.Equal(t, wire.ObjectPath("/custom/path"), reg.ObjectPath)
}

func TestRegistrationTokensAreUnique(t *testing.T) {
	noop := func(*RequestContext, string, string, bool, string) {}
	a := NewRegistration("com.example.a", "", noop)
	b := NewRegistration("com.example.b", "", noop)
	require.NotEqual(t, a.Token, b.Token)
}
