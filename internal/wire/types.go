// Package wire implements the low-level D-Bus message-bus wire protocol:
// address parsing and transports, the SASL authentication handshake,
// message framing, and match-rule strings. It knows nothing about
// dispatchers, commands, or subscriptions — those are the in-scope
// subsystems built on top of it in internal/bus, internal/dispatch and
// internal/cmd.
//
// Marshalling is intentionally narrow: only the fixed set of signatures
// this façade ever sends or receives (s, u, b, o, g, and the header
// field array a(yv)) is supported, per the module's non-goal of
// marshalling arbitrary D-Bus argument signatures.
package wire

// ObjectPath is a slash-delimited address within a bus name, e.g.
// "/com/example/svc/obj".
type ObjectPath string

// Signature is a D-Bus type signature string, e.g. "ss".
type Signature string

// Variant holds a header-field value. It carries no separate type
// code; the value kinds that appear in header fields are string,
// object path, signature and uint32.
type Variant struct {
	Value interface{}
}

// MessageType is the D-Bus message type byte.
type MessageType uint8

const (
	TypeInvalid MessageType = iota
	TypeMethodCall
	TypeMethodReturn
	TypeError
	TypeSignal
)

func (t MessageType) String() string {
	switch t {
	case TypeMethodCall:
		return "method_call"
	case TypeMethodReturn:
		return "method_return"
	case TypeError:
		return "error"
	case TypeSignal:
		return "signal"
	default:
		return "invalid"
	}
}

// MessageFlag is the D-Bus message flags byte.
type MessageFlag uint8

const (
	FlagNoReplyExpected MessageFlag = 1 << iota
	FlagNoAutoStart
)

// Header field type codes, per the D-Bus specification.
const (
	fieldPath        byte = 1
	fieldInterface   byte = 2
	fieldMember      byte = 3
	fieldErrorName   byte = 4
	fieldReplySerial byte = 5
	fieldDestination byte = 6
	fieldSender      byte = 7
	fieldSignature   byte = 8
)
