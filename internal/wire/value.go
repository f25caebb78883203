// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package wire holds the protocol-neutral argument model produced by lowering
// a parsed line. Values are immutable once built and carry no reference back
// to the source text or the token stream.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is one OSC argument.
type Value interface {
	// TypeTag returns the OSC type tag character for the value. Arrays
	// report '['.
	TypeTag() byte
	String() string
	value()
}

type Int32 int32
type Int64 int64
type Float32 float32
type Float64 float64
type Bool bool
type Char rune
type String string
type Nil struct{}
type Infinity struct{}
type Blob []byte
type Array []Value

type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
	Alpha uint8
}

type Midi struct {
	Port   uint8
	Status uint8
	Data1  uint8
	Data2  uint8
}

type TimeTag struct {
	Seconds    uint32
	Fractional uint32
}

// NTP returns the 64 bit fixed point representation used on the wire.
func (t TimeTag) NTP() uint64 {
	return uint64(t.Seconds)<<32 | uint64(t.Fractional)
}

func (Int32) value()    {}
func (Int64) value()    {}
func (Float32) value()  {}
func (Float64) value()  {}
func (Bool) value()     {}
func (Char) value()     {}
func (String) value()   {}
func (Nil) value()      {}
func (Infinity) value() {}
func (Blob) value()     {}
func (Array) value()    {}
func (Color) value()    {}
func (Midi) value()     {}
func (TimeTag) value()  {}

func (Int32) TypeTag() byte    { return 'i' }
func (Int64) TypeTag() byte    { return 'h' }
func (Float32) TypeTag() byte  { return 'f' }
func (Float64) TypeTag() byte  { return 'd' }
func (Char) TypeTag() byte     { return 'c' }
func (String) TypeTag() byte   { return 's' }
func (Nil) TypeTag() byte      { return 'N' }
func (Infinity) TypeTag() byte { return 'I' }
func (Blob) TypeTag() byte     { return 'b' }
func (Array) TypeTag() byte    { return '[' }
func (Color) TypeTag() byte    { return 'r' }
func (Midi) TypeTag() byte     { return 'm' }
func (TimeTag) TypeTag() byte  { return 't' }

func (v Bool) TypeTag() byte {
	if v {
		return 'T'
	}
	return 'F'
}

func (v Int32) String() string   { return fmt.Sprintf("Int32(%d)", int32(v)) }
func (v Int64) String() string   { return fmt.Sprintf("Int64(%d)", int64(v)) }
func (v Float32) String() string { return fmt.Sprintf("Float32(%s)", strconv.FormatFloat(float64(v), 'g', -1, 32)) }
func (v Float64) String() string { return fmt.Sprintf("Float64(%s)", strconv.FormatFloat(float64(v), 'g', -1, 64)) }
func (v Bool) String() string    { return fmt.Sprintf("Bool(%t)", bool(v)) }
func (v Char) String() string    { return fmt.Sprintf("Char(%q)", rune(v)) }
func (v String) String() string  { return fmt.Sprintf("String(%q)", string(v)) }
func (Nil) String() string       { return "Nil" }
func (Infinity) String() string  { return "Inf" }
func (v Blob) String() string    { return fmt.Sprintf("Blob(%v)", []byte(v)) }

func (v Color) String() string {
	return fmt.Sprintf("Color(#%02X%02X%02X%02X)", v.Red, v.Green, v.Blue, v.Alpha)
}

func (v Midi) String() string {
	return fmt.Sprintf("Midi(~%02X%02X%02X%02X)", v.Port, v.Status, v.Data1, v.Data2)
}

func (v TimeTag) String() string {
	return fmt.Sprintf("TimeTag(%d.%d)", v.Seconds, v.Fractional)
}

func (v Array) String() string {
	var b strings.Builder
	b.WriteString("Array([")
	for x, item := range v {
		if x > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	b.WriteString("])")
	return b.String()
}

// TypeTags renders the OSC type tag string for a list of arguments, including
// the leading comma and the bracket pairs of nested arrays.
func TypeTags(args []Value) string {
	var b strings.Builder
	b.WriteByte(',')
	writeTypeTags(&b, args)
	return b.String()
}

func writeTypeTags(b *strings.Builder, args []Value) {
	for _, arg := range args {
		if arr, ok := arg.(Array); ok {
			b.WriteByte('[')
			writeTypeTags(b, arr)
			b.WriteByte(']')
			continue
		}
		b.WriteByte(arg.TypeTag())
	}
}
