// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

const bundleTag = "#bundle"

// ErrMalformedPacket is wrapped by every ParsePacket failure.
var ErrMalformedPacket = errors.New("malformed OSC packet")

// Packet is the OSC 1.0 binary form of one message. It covers every wire
// type tag, including c, r, m, I and arrays, and writes time tags without
// rounding.
type Packet struct {
	msg *wire.Message
}

var _ osc.Packet = (*Packet)(nil)

// Encode checks that msg can be put on the wire and wraps it as a Packet.
// Strings holding a NUL byte are rejected with CodeUnsupportedArgument.
func Encode(msg *wire.Message) (*Packet, error) {
	for x, arg := range msg.Arguments {
		if containsNUL(arg) {
			return nil, exc.New(
				exc.Location{Input: arg.String()},
				exc.CodeUnsupportedArgument,
				fmt.Sprintf("argument %d (%s) cannot be sent: OSC strings end at the first NUL byte", x+1, arg),
			)
		}
	}
	return &Packet{msg: msg}, nil
}

func containsNUL(v wire.Value) bool {
	switch val := v.(type) {
	case wire.String:
		return strings.IndexByte(string(val), 0) >= 0
	case wire.Array:
		for _, item := range val {
			if containsNUL(item) {
				return true
			}
		}
	}
	return false
}

func (self *Packet) Message() *wire.Message {
	return self.msg
}

// MarshalBinary writes the address, the type tag string and the argument
// payload, each padded to four bytes.
func (self *Packet) MarshalBinary() ([]byte, error) {
	data := appendPaddedString(nil, self.msg.Address)
	data = appendPaddedString(data, self.msg.TypeTags())
	return appendValues(data, self.msg.Arguments), nil
}

func appendValues(data []byte, values []wire.Value) []byte {
	for _, v := range values {
		data = appendValue(data, v)
	}
	return data
}

func appendValue(data []byte, v wire.Value) []byte {
	switch val := v.(type) {
	case wire.Int32:
		return binary.BigEndian.AppendUint32(data, uint32(val))
	case wire.Int64:
		return binary.BigEndian.AppendUint64(data, uint64(val))
	case wire.Float32:
		return binary.BigEndian.AppendUint32(data, math.Float32bits(float32(val)))
	case wire.Float64:
		return binary.BigEndian.AppendUint64(data, math.Float64bits(float64(val)))
	case wire.Char:
		return binary.BigEndian.AppendUint32(data, uint32(val))
	case wire.String:
		return appendPaddedString(data, string(val))
	case wire.Blob:
		data = binary.BigEndian.AppendUint32(data, uint32(len(val)))
		data = append(data, val...)
		return append(data, make([]byte, padding(len(val)))...)
	case wire.TimeTag:
		return binary.BigEndian.AppendUint64(data, val.NTP())
	case wire.Color:
		return append(data, val.Red, val.Green, val.Blue, val.Alpha)
	case wire.Midi:
		return append(data, val.Port, val.Status, val.Data1, val.Data2)
	case wire.Array:
		return appendValues(data, val)
	default:
		// T, F, N and I carry no payload.
		return data
	}
}

func appendPaddedString(data []byte, s string) []byte {
	data = append(data, s...)
	return append(data, make([]byte, 1+padding(len(s)+1))...)
}

func padding(n int) int {
	return (4 - n%4) % 4
}

// ParsePacket decodes one datagram. Messages inside bundles, including
// nested bundles, are returned in the order they appear.
func ParsePacket(data []byte) ([]*wire.Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty packet", ErrMalformedPacket)
	}
	switch data[0] {
	case '/':
		msg, err := parseMessage(data)
		if err != nil {
			return nil, err
		}
		return []*wire.Message{msg}, nil
	case '#':
		return parseBundle(data)
	default:
		return nil, fmt.Errorf("%w: packet starts with %q", ErrMalformedPacket, data[0])
	}
}

func parseBundle(data []byte) ([]*wire.Message, error) {
	r := &packetReader{data: data}
	tag, err := r.paddedString()
	if err != nil {
		return nil, err
	}
	if tag != bundleTag {
		return nil, fmt.Errorf("%w: invalid bundle tag %q", ErrMalformedPacket, tag)
	}
	if _, err := r.uint64(); err != nil {
		return nil, err
	}
	var msgs []*wire.Message
	for !r.done() {
		size, err := r.uint32()
		if err != nil {
			return nil, err
		}
		element, err := r.bytes(int(int32(size)))
		if err != nil {
			return nil, err
		}
		inner, err := ParsePacket(element)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, inner...)
	}
	return msgs, nil
}

func parseMessage(data []byte) (*wire.Message, error) {
	r := &packetReader{data: data}
	address, err := r.paddedString()
	if err != nil {
		return nil, err
	}
	msg := &wire.Message{Address: address, Arguments: []wire.Value{}}
	if r.done() {
		return msg, nil
	}
	tags, err := r.paddedString()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(tags, ",") {
		return nil, fmt.Errorf("%w: type tag string %q does not start with ','", ErrMalformedPacket, tags)
	}
	args, _, err := r.values(tags[1:], false)
	if err != nil {
		return nil, err
	}
	msg.Arguments = args
	return msg, nil
}

type packetReader struct {
	data   []byte
	offset int
}

func (self *packetReader) done() bool {
	return self.offset >= len(self.data)
}

func (self *packetReader) bytes(n int) ([]byte, error) {
	if n < 0 || n > len(self.data)-self.offset {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedPacket, n, self.offset, len(self.data)-self.offset)
	}
	b := self.data[self.offset : self.offset+n]
	self.offset = self.offset + n
	return b, nil
}

func (self *packetReader) uint32() (uint32, error) {
	b, err := self.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (self *packetReader) uint64() (uint64, error) {
	b, err := self.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (self *packetReader) quad() ([]byte, error) {
	return self.bytes(4)
}

func (self *packetReader) paddedString() (string, error) {
	rest := self.data[self.offset:]
	end := -1
	for x, b := range rest {
		if b == 0 {
			end = x
			break
		}
	}
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrMalformedPacket, self.offset)
	}
	b, err := self.bytes(end + 1 + padding(end+1))
	if err != nil {
		return "", err
	}
	return string(b[:end]), nil
}

// values decodes arguments for tags. Inside an array it stops after the
// matching ']' and returns the tags that follow it.
func (self *packetReader) values(tags string, nested bool) ([]wire.Value, string, error) {
	values := make([]wire.Value, 0, len(tags))
	for len(tags) > 0 {
		tag := tags[0]
		tags = tags[1:]
		switch tag {
		case '[':
			items, rest, err := self.values(tags, true)
			if err != nil {
				return nil, "", err
			}
			values = append(values, wire.Array(items))
			tags = rest
		case ']':
			if !nested {
				return nil, "", fmt.Errorf("%w: unbalanced ']' in type tags", ErrMalformedPacket)
			}
			return values, tags, nil
		default:
			v, err := self.value(tag)
			if err != nil {
				return nil, "", err
			}
			values = append(values, v)
		}
	}
	if nested {
		return nil, "", fmt.Errorf("%w: unterminated '[' in type tags", ErrMalformedPacket)
	}
	return values, "", nil
}

func (self *packetReader) value(tag byte) (wire.Value, error) {
	switch tag {
	case 'i':
		v, err := self.uint32()
		return wire.Int32(int32(v)), err
	case 'h':
		v, err := self.uint64()
		return wire.Int64(int64(v)), err
	case 'f':
		v, err := self.uint32()
		return wire.Float32(math.Float32frombits(v)), err
	case 'd':
		v, err := self.uint64()
		return wire.Float64(math.Float64frombits(v)), err
	case 'c':
		v, err := self.uint32()
		return wire.Char(rune(v)), err
	case 's':
		v, err := self.paddedString()
		return wire.String(v), err
	case 'b':
		size, err := self.uint32()
		if err != nil {
			return nil, err
		}
		b, err := self.bytes(int(int32(size)))
		if err != nil {
			return nil, err
		}
		if _, err := self.bytes(padding(len(b))); err != nil {
			return nil, err
		}
		blob := make(wire.Blob, len(b))
		copy(blob, b)
		return blob, nil
	case 't':
		v, err := self.uint64()
		return timeTagOf(v), err
	case 'r':
		b, err := self.quad()
		if err != nil {
			return nil, err
		}
		return wire.Color{Red: b[0], Green: b[1], Blue: b[2], Alpha: b[3]}, nil
	case 'm':
		b, err := self.quad()
		if err != nil {
			return nil, err
		}
		return wire.Midi{Port: b[0], Status: b[1], Data1: b[2], Data2: b[3]}, nil
	case 'T':
		return wire.Bool(true), nil
	case 'F':
		return wire.Bool(false), nil
	case 'N':
		return wire.Nil{}, nil
	case 'I':
		return wire.Infinity{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type tag %q", ErrMalformedPacket, tag)
	}
}

func timeTagOf(ntp uint64) wire.TimeTag {
	return wire.TimeTag{Seconds: uint32(ntp >> 32), Fractional: uint32(ntp)}
}
