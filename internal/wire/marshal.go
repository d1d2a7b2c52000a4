package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// encoder/decoder implement the narrow subset of the D-Bus marshalling
// rules this façade needs: 8-byte header-field-array alignment, 4-byte
// string-length prefixes, and the scalar types s/u/b/o/g/y. Grounded on
// the teacher's marshall.go/newmarshal.go alignment helpers, merged into
// one consistent implementation and trimmed to this signature set.

func align(offset, boundary int) int {
	rem := offset % boundary
	if rem == 0 {
		return offset
	}
	return offset + (boundary - rem)
}

type encoder struct {
	buf   bytes.Buffer
	order binary.ByteOrder
}

func newEncoder(order binary.ByteOrder) *encoder {
	return &encoder{order: order}
}

func (e *encoder) pad(boundary int) {
	want := align(e.buf.Len(), boundary)
	for e.buf.Len() < want {
		e.buf.WriteByte(0)
	}
}

func (e *encoder) byte(b byte) { e.buf.WriteByte(b) }

func (e *encoder) uint32(v uint32) {
	e.pad(4)
	var tmp [4]byte
	e.order.PutUint32(tmp[:], v)
	e.buf.Write(tmp[:])
}

func (e *encoder) bool(v bool) {
	if v {
		e.uint32(1)
	} else {
		e.uint32(0)
	}
}

func (e *encoder) string(s string) {
	e.uint32(uint32(len(s)))
	e.buf.WriteString(s)
	e.buf.WriteByte(0)
}

func (e *encoder) objectPath(p ObjectPath) { e.string(string(p)) }

func (e *encoder) signature(sig Signature) {
	e.buf.WriteByte(byte(len(sig)))
	e.buf.WriteString(string(sig))
	e.buf.WriteByte(0)
}

func (e *encoder) bytes() []byte { return e.buf.Bytes() }

type decoder struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func newDecoder(buf []byte, pos int, order binary.ByteOrder) *decoder {
	return &decoder{buf: buf, pos: pos, order: order}
}

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return errors.Errorf("wire: truncated message (need %d bytes at %d, have %d)", n, d.pos, len(d.buf))
	}
	return nil
}

func (d *decoder) align(boundary int) error {
	want := align(d.pos, boundary)
	if err := d.need(want - d.pos); err != nil {
		return err
	}
	d.pos = want
	return nil
}

func (d *decoder) readByte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readUint32() (uint32, error) {
	if err := d.align(4); err != nil {
		return 0, err
	}
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := d.order.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) readBool() (bool, error) {
	v, err := d.readUint32()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readUint32()
	if err != nil {
		return "", err
	}
	if err := d.need(int(n) + 1); err != nil {
		return "", err
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n) + 1
	return s, nil
}

func (d *decoder) readObjectPath() (ObjectPath, error) {
	s, err := d.readString()
	return ObjectPath(s), err
}

func (d *decoder) readSignature() (Signature, error) {
	n, err := d.readByte()
	if err != nil {
		return "", err
	}
	if err := d.need(int(n) + 1); err != nil {
		return "", err
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n) + 1
	return Signature(s), nil
}

// readHeaderFieldValue decodes the variant-typed value of a single
// header field given its signature character.
func (d *decoder) readHeaderFieldValue(sigChar byte) (interface{}, error) {
	switch sigChar {
	case 's':
		return d.readString()
	case 'o':
		return d.readObjectPath()
	case 'g':
		return d.readSignature()
	case 'u':
		return d.readUint32()
	default:
		return nil, errors.Errorf("wire: unsupported header field type %q", sigChar)
	}
}

// encodeBody appends the body of a message given its D-Bus signature
// string and the corresponding argument list. Only s, o, u, b are
// supported, which covers every signature this façade sends.
func encodeBody(sig Signature, args []interface{}) ([]byte, error) {
	e := newEncoder(binary.LittleEndian)
	if len(sig) != len(args) {
		return nil, errors.Errorf("wire: signature %q does not match %d args", sig, len(args))
	}
	for i, c := range []byte(sig) {
		switch c {
		case 's':
			s, ok := args[i].(string)
			if !ok {
				return nil, errors.Errorf("wire: arg %d not a string for signature %q", i, sig)
			}
			e.string(s)
		case 'o':
			switch v := args[i].(type) {
			case ObjectPath:
				e.objectPath(v)
			case string:
				e.objectPath(ObjectPath(v))
			default:
				return nil, errors.Errorf("wire: arg %d not an object path for signature %q", i, sig)
			}
		case 'u':
			u, ok := args[i].(uint32)
			if !ok {
				return nil, errors.Errorf("wire: arg %d not a uint32 for signature %q", i, sig)
			}
			e.uint32(u)
		case 'b':
			b, ok := args[i].(bool)
			if !ok {
				return nil, errors.Errorf("wire: arg %d not a bool for signature %q", i, sig)
			}
			e.bool(b)
		default:
			return nil, errors.Errorf("wire: unsupported body signature %q", sig)
		}
	}
	return e.bytes(), nil
}

// decodeBody decodes a message body given its signature string.
func decodeBody(sig Signature, buf []byte) ([]interface{}, error) {
	d := newDecoder(buf, 0, binary.LittleEndian)
	args := make([]interface{}, 0, len(sig))
	for _, c := range []byte(sig) {
		switch c {
		case 's':
			v, err := d.readString()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		case 'o':
			v, err := d.readObjectPath()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		case 'u':
			v, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		case 'b':
			v, err := d.readBool()
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		default:
			return nil, errors.Errorf("wire: unsupported body signature %q", sig)
		}
	}
	return args, nil
}
