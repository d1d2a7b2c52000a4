package bus

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sunxiaolin2016/dbusipc/internal/wire"
)

// Registration owns an immutable (busName, objectPath) pair and the
// request callback a service installed via RegisterService, per
// spec.md §4.4.
type Registration struct {
	Token      uuid.UUID
	BusName    string
	ObjectPath wire.ObjectPath

	onRequest func(ctx *RequestContext, method, parameters string, noReplyExpected bool, token string)
}

// NewRegistration builds a registration. objPath, if empty, defaults
// to DefaultObjectPath(busName) per spec.md §3.
func NewRegistration(busName string, objPath wire.ObjectPath, onRequest func(*RequestContext, string, string, bool, string)) *Registration {
	if objPath == "" {
		objPath = DefaultObjectPath(busName)
	}
	return &Registration{
		Token:      uuid.New(),
		BusName:    busName,
		ObjectPath: objPath,
		onRequest:  onRequest,
	}
}

// DefaultObjectPath derives an object path from a well-known bus name:
// prefix "/", "."→"/", "-"→"_", every other non-alphanumeric byte→"_",
// per spec.md §3.
func DefaultObjectPath(busName string) wire.ObjectPath {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(busName); i++ {
		c := busName[i]
		switch {
		case c == '.':
			b.WriteByte('/')
		case c == '-':
			b.WriteByte('_')
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return wire.ObjectPath(b.String())
}

// dispatch packages a RequestContext referencing msg (so a later
// ReturnResult/ReturnError can build the reply), invokes onRequest, and
// reports how long it took so the caller can compare against
// maxDispatchProcTime.
func (r *Registration) dispatch(conn *Connection, msg *wire.Message, method, parameters string, noReplyExpected bool) time.Duration {
	ctx := newRequestContext(conn, msg)
	conn.reqContexts[ctx.Token] = ctx

	start := time.Now()
	r.onRequest(ctx, method, parameters, noReplyExpected, ctx.Token.String())
	return time.Since(start)
}

const facadeInterfaceBlock = `    <interface name="` + wire.FacadeInterface + `">
      <method name="Invoke">
        <arg name="method" type="s" direction="in"/>
        <arg name="parameters" type="s" direction="in"/>
        <arg name="result" type="s" direction="out"/>
      </method>
      <signal name="Emit">
        <arg name="name" type="s"/>
        <arg name="data" type="s"/>
      </signal>
    </interface>
    <interface name="` + wire.IntrospectableInterface + `">
      <method name="Introspect">
        <arg name="data" type="s" direction="out"/>
      </method>
    </interface>
`
