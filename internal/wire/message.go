package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Message is a single D-Bus message: a method call, method return,
// error, or signal. Grounded on the teacher's message.go, reworked
// around the narrowed marshaller in marshal.go.
type Message struct {
	Type        MessageType
	Flags       MessageFlag
	Protocol    byte
	Serial      uint32
	ReplySerial uint32

	Path        ObjectPath
	Interface   string
	Member      string
	ErrorName   string
	Destination string
	Sender      string
	Signature   Signature

	Args []interface{}
}

// NewMethodCall builds a method_call message with the given signature
// and already-marshalled-friendly args (string/uint32/bool/ObjectPath).
func NewMethodCall(dest string, path ObjectPath, iface, member string, sig Signature, args ...interface{}) *Message {
	return &Message{
		Type:        TypeMethodCall,
		Protocol:    1,
		Path:        path,
		Interface:   iface,
		Member:      member,
		Destination: dest,
		Signature:   sig,
		Args:        args,
	}
}

// NewSignal builds a signal message.
func NewSignal(path ObjectPath, iface, member string, sig Signature, args ...interface{}) *Message {
	return &Message{
		Type:      TypeSignal,
		Protocol:  1,
		Path:      path,
		Interface: iface,
		Member:    member,
		Signature: sig,
		Args:      args,
	}
}

// NewMethodReturn builds a method_return reply to call.
func NewMethodReturn(call *Message, sig Signature, args ...interface{}) *Message {
	return &Message{
		Type:        TypeMethodReturn,
		Protocol:    1,
		ReplySerial: call.Serial,
		Destination: call.Sender,
		Signature:   sig,
		Args:        args,
	}
}

// NewError builds an error reply to call.
func NewError(call *Message, name, msg string) *Message {
	return &Message{
		Type:        TypeError,
		Protocol:    1,
		ReplySerial: call.Serial,
		Destination: call.Sender,
		ErrorName:   name,
		Signature:   "s",
		Args:        []interface{}{msg},
	}
}

type headerField struct {
	code byte
	sig  byte
	val  interface{}
}

func (m *Message) headerFields() []headerField {
	fields := make([]headerField, 0, 7)
	if m.Path != "" {
		fields = append(fields, headerField{fieldPath, 'o', m.Path})
	}
	if m.Interface != "" {
		fields = append(fields, headerField{fieldInterface, 's', m.Interface})
	}
	if m.Member != "" {
		fields = append(fields, headerField{fieldMember, 's', m.Member})
	}
	if m.ErrorName != "" {
		fields = append(fields, headerField{fieldErrorName, 's', m.ErrorName})
	}
	if m.ReplySerial != 0 {
		fields = append(fields, headerField{fieldReplySerial, 'u', m.ReplySerial})
	}
	if m.Destination != "" {
		fields = append(fields, headerField{fieldDestination, 's', m.Destination})
	}
	if m.Signature != "" {
		fields = append(fields, headerField{fieldSignature, 'g', m.Signature})
	}
	return fields
}

// WriteTo marshals the message and writes it to w, little-endian.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	body, err := encodeBody(m.Signature, m.Args)
	if err != nil {
		return 0, errors.Wrap(err, "wire: encode body")
	}

	// The field elements start at absolute offset 16 (12-byte fixed
	// header plus the 4-byte array length), which is 8-aligned, so
	// alignment relative to fe matches alignment within the message.
	fe := newEncoder(binary.LittleEndian)
	for _, f := range m.headerFields() {
		fe.pad(8)
		fe.byte(f.code)
		switch f.sig {
		case 's':
			fe.signature("s")
			fe.string(f.val.(string))
		case 'o':
			fe.signature("o")
			fe.objectPath(f.val.(ObjectPath))
		case 'g':
			fe.signature("g")
			fe.signature(f.val.(Signature))
		case 'u':
			fe.signature("u")
			fe.uint32(f.val.(uint32))
		}
	}
	fieldsBytes := fe.bytes()

	e := newEncoder(binary.LittleEndian)
	e.byte('l')
	e.byte(byte(m.Type))
	e.byte(byte(m.Flags))
	e.byte(m.Protocol)
	e.uint32(uint32(len(body)))
	e.uint32(m.Serial)
	e.uint32(uint32(len(fieldsBytes)))
	e.buf.Write(fieldsBytes)
	e.pad(8)
	e.buf.Write(body)

	n, err := w.Write(e.bytes())
	return int64(n), err
}

// ReadMessage reads and decodes exactly one message from r.
func ReadMessage(r io.Reader) (*Message, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	var order binary.ByteOrder
	switch hdr[0] {
	case 'l':
		order = binary.LittleEndian
	case 'B':
		order = binary.BigEndian
	default:
		return nil, errors.Errorf("wire: unknown endianness byte %q", hdr[0])
	}

	d := newDecoder(hdr[:], 1, order)
	typ, _ := d.readByte()
	flags, _ := d.readByte()
	proto, _ := d.readByte()
	bodyLen, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	serial, err := d.readUint32()
	if err != nil {
		return nil, err
	}

	// The last 4 bytes of the 16-byte prefix are the header-field
	// array's byte length.
	fieldsLen, err := d.readUint32()
	if err != nil {
		return nil, err
	}

	// The elements start at offset 16, already 8-aligned; after them
	// the header is padded to an 8-byte boundary before the body.
	padded := align(int(fieldsLen), 8)
	rest := make([]byte, padded)
	if fieldsLen > 0 {
		if _, err := io.ReadFull(r, rest[:fieldsLen]); err != nil {
			return nil, err
		}
	}
	if padded > int(fieldsLen) {
		if _, err := io.ReadFull(r, rest[fieldsLen:padded]); err != nil {
			return nil, err
		}
	}

	msg := &Message{
		Type:     MessageType(typ),
		Flags:    MessageFlag(flags),
		Protocol: proto,
		Serial:   serial,
	}

	fd := newDecoder(rest[:fieldsLen], 0, order)
	for fd.pos < len(fd.buf) {
		if err := fd.align(8); err != nil {
			return nil, err
		}
		code, err := fd.readByte()
		if err != nil {
			return nil, err
		}
		sigChar, err := fd.readSignature()
		if err != nil {
			return nil, err
		}
		if len(sigChar) != 1 {
			return nil, errors.Errorf("wire: unsupported header field signature %q", sigChar)
		}
		val, err := fd.readHeaderFieldValue(sigChar[0])
		if err != nil {
			return nil, err
		}
		switch code {
		case fieldPath:
			msg.Path = val.(ObjectPath)
		case fieldInterface:
			msg.Interface = val.(string)
		case fieldMember:
			msg.Member = val.(string)
		case fieldErrorName:
			msg.ErrorName = val.(string)
		case fieldReplySerial:
			msg.ReplySerial = val.(uint32)
		case fieldDestination:
			msg.Destination = val.(string)
		case fieldSender:
			msg.Sender = val.(string)
		case fieldSignature:
			msg.Signature = val.(Signature)
		}
	}

	if bodyLen > 0 {
		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		args, err := decodeBody(msg.Signature, body)
		if err != nil {
			return nil, errors.Wrap(err, "wire: decode body")
		}
		msg.Args = args
	}

	return msg, nil
}

// Arg extracts the i'th argument into dst, which must be a pointer to
// a matching type. It exists so callers don't need to do the type
// assertion themselves; given this façade's narrow signature set,
// only string, uint32 and bool destinations are supported.
func (m *Message) Arg(i int, dst interface{}) error {
	if i < 0 || i >= len(m.Args) {
		return errors.Errorf("wire: arg index %d out of range (have %d)", i, len(m.Args))
	}
	switch d := dst.(type) {
	case *string:
		s, ok := m.Args[i].(string)
		if !ok {
			return errors.Errorf("wire: arg %d is not a string", i)
		}
		*d = s
	case *uint32:
		v, ok := m.Args[i].(uint32)
		if !ok {
			return errors.Errorf("wire: arg %d is not a uint32", i)
		}
		*d = v
	case *bool:
		v, ok := m.Args[i].(bool)
		if !ok {
			return errors.Errorf("wire: arg %d is not a bool", i)
		}
		*d = v
	default:
		return errors.Errorf("wire: unsupported destination type for arg %d", i)
	}
	return nil
}
