package wire

import (
	"net"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Well-known bus-daemon identity constants, part of the module's fixed
// wire contract.
const (
	BusDaemonName      = "org.freedesktop.DBus"
	BusDaemonPath      = ObjectPath("/org/freedesktop/DBus")
	BusDaemonInterface = "org.freedesktop.DBus"
)

// Conn is a pure transport: dial, SASL-authenticate, exchange framed
// messages. It performs no filtering, routing, or reply correlation —
// that is the job of internal/bus, so that every dispatch decision
// happens on the dispatcher's single owning goroutine rather than on
// Conn's own reader goroutine. Grounded on the teacher's dbus.go
// Connect/receiveLoop, deliberately stripped of everything past
// framing (see DESIGN.md).
type Conn struct {
	UniqueName string

	conn       net.Conn
	lastSerial uint32
}

// Dial opens a transport-level connection to address and performs the
// SASL handshake, but does not yet send Hello or start reading.
func Dial(address string) (*Conn, error) {
	trans, err := newTransport(address)
	if err != nil {
		return nil, err
	}
	netConn, err := trans.Dial()
	if err != nil {
		return nil, errors.Wrap(err, "wire: dial")
	}
	if err := authenticate(netConn, nil); err != nil {
		netConn.Close()
		return nil, err
	}
	return &Conn{conn: netConn}, nil
}

// NextSerial returns the next message serial for this connection.
// Only ever called from the dispatcher's owning goroutine.
func (c *Conn) NextSerial() uint32 {
	return atomic.AddUint32(&c.lastSerial, 1)
}

// Send marshals and writes msg, assigning it the next serial and
// returning it. It is fire-and-forget: the caller correlates replies
// itself by serial.
func (c *Conn) Send(msg *Message) (uint32, error) {
	msg.Serial = c.NextSerial()
	_, err := msg.WriteTo(c.conn)
	if err != nil {
		return msg.Serial, errors.Wrap(err, "wire: send message")
	}
	return msg.Serial, nil
}

// Close closes the underlying transport.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Incoming is one message (or terminal read error) received off the
// wire, tagged with nothing — the caller already knows which Conn it
// started the reader for.
type Incoming struct {
	Msg *Message
	Err error
}

// StartReader spawns the dedicated reader goroutine — the concrete
// realization of a libdbus "Watch" in this Go rewrite (see
// SPEC_FULL.md §4.1): it blocks on reads and calls deliver with each
// decoded message, performing no dispatch logic of its own. deliver is
// expected to be dispatch.Dispatcher.PostEvent bound to this
// connection's watch, so the actual routing runs on the dispatcher's
// owning goroutine. The goroutine exits (after one final Incoming with
// a non-nil Err) when the connection is closed or a read fails.
func (c *Conn) StartReader(deliver func(Incoming)) {
	go func() {
		for {
			msg, err := ReadMessage(c.conn)
			if err != nil {
				deliver(Incoming{Err: err})
				return
			}
			deliver(Incoming{Msg: msg})
		}
	}()
}
