package bus

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

func newTestConnWithRegistrations(paths ...wire.ObjectPath) *Connection {
	c := &Connection{registrations: make(map[uuid.UUID]*Registration)}
	for _, p := range paths {
		reg := &Registration{Token: uuid.New(), ObjectPath: p}
		c.registrations[reg.Token] = reg
	}
	return c
}

func TestIntrospectXMLExactMatchCarriesFacadeInterface(t *testing.T) {
	c := newTestConnWithRegistrations(wire.ObjectPath("/com/example/echo"))
	xml := c.introspectXML(wire.ObjectPath("/com/example/echo"))

	require.Contains(t, xml, `<node name="/com/example/echo">`)
	require.Contains(t, xml, wire.FacadeInterface)
	require.Contains(t, xml, wire.IntrospectableInterface)
}

func TestIntrospectXMLNonMatchingPathIsBareNode(t *testing.T) {
	c := newTestConnWithRegistrations(wire.ObjectPath("/com/example/echo"))
	xml := c.introspectXML(wire.ObjectPath("/com/other"))

	require.Contains(t, xml, "<node>\n")
	require.NotContains(t, xml, wire.FacadeInterface)
}

func TestIntrospectXMLListsSortedDedupedChildren(t *testing.T) {
	c := newTestConnWithRegistrations(
		wire.ObjectPath("/com/example/b"),
		wire.ObjectPath("/com/example/a"),
		wire.ObjectPath("/com/example/a/nested"),
	)
	xml := c.introspectXML(wire.ObjectPath("/com/example"))

	idxA := indexOf(xml, `<node name="a"/>`)
	idxB := indexOf(xml, `<node name="b"/>`)
	require.NotEqual(t, -1, idxA)
	require.NotEqual(t, -1, idxB)
	require.Less(t, idxA, idxB)
	require.Equal(t, 1, countOccurrences(xml, `<node name="a"/>`))
}

func TestImmediateChildrenEmptyWhenNoDescendants(t *testing.T) {
	c := newTestConnWithRegistrations(wire.ObjectPath("/com/example/echo"))
	require.Empty(t, c.immediateChildren(wire.ObjectPath("/other")))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
