// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package oscl

import (
	"fmt"
	"strconv"
	"strings"
)

// interface for all AST nodes
type Node interface {
	node()
}

// interface for all statement types
type Statement interface {
	Node
	statement()
}

// interface for all expression types
type Expression interface {
	Node
	expression()
}

// interface for all literal payloads
type Literal interface {
	Node
	literal()
}

// Program is the parsed form of one line. The first statement is expected to
// be the address of the message and the rest are its arguments.
type Program []Statement

func (self Program) String() string {
	parts := make([]string, 0, len(self))
	for _, s := range self {
		parts = append(parts, fmt.Sprintf("%v", s))
	}
	return strings.Join(parts, " ")
}

type StatementExpression struct {
	Expression Expression
}

type ExpressionIdentifier struct {
	Name string
}

type ExpressionLiteral struct {
	Value Literal
}

type ExpressionArray struct {
	Items []Expression
}

type LiteralInt struct {
	Value int32
}

type LiteralLong struct {
	Value int64
}

type LiteralFloat struct {
	Value float32
}

type LiteralDouble struct {
	Value float64
}

type LiteralBool struct {
	Value bool
}

type LiteralChar struct {
	Value rune
}

type LiteralText struct {
	Value string
}

type LiteralOscPath struct {
	Value string
}

type LiteralBlob struct {
	Value []byte
}

type LiteralColor struct {
	Value Color
}

type LiteralMidi struct {
	Value MidiMsg
}

type LiteralTimeTag struct {
	Value TimeMsg
}

func (StatementExpression) node()      {}
func (StatementExpression) statement() {}

func (ExpressionIdentifier) node()       {}
func (ExpressionIdentifier) expression() {}
func (ExpressionLiteral) node()          {}
func (ExpressionLiteral) expression()    {}
func (ExpressionArray) node()            {}
func (ExpressionArray) expression()      {}

func (LiteralInt) node()        {}
func (LiteralInt) literal()     {}
func (LiteralLong) node()       {}
func (LiteralLong) literal()    {}
func (LiteralFloat) node()      {}
func (LiteralFloat) literal()   {}
func (LiteralDouble) node()     {}
func (LiteralDouble) literal()  {}
func (LiteralBool) node()       {}
func (LiteralBool) literal()    {}
func (LiteralChar) node()       {}
func (LiteralChar) literal()    {}
func (LiteralText) node()       {}
func (LiteralText) literal()    {}
func (LiteralOscPath) node()    {}
func (LiteralOscPath) literal() {}
func (LiteralBlob) node()       {}
func (LiteralBlob) literal()    {}
func (LiteralColor) node()      {}
func (LiteralColor) literal()   {}
func (LiteralMidi) node()       {}
func (LiteralMidi) literal()    {}
func (LiteralTimeTag) node()    {}
func (LiteralTimeTag) literal() {}

func (self StatementExpression) String() string {
	return fmt.Sprintf("%v", self.Expression)
}

func (self ExpressionIdentifier) String() string {
	return self.Name
}

func (self ExpressionLiteral) String() string {
	return fmt.Sprintf("%v", self.Value)
}

func (self ExpressionArray) String() string {
	parts := make([]string, 0, len(self.Items))
	for _, item := range self.Items {
		parts = append(parts, fmt.Sprintf("%v", item))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (self LiteralInt) String() string {
	return strconv.FormatInt(int64(self.Value), 10)
}

func (self LiteralLong) String() string {
	return strconv.FormatInt(self.Value, 10) + suffixInt64
}

func (self LiteralFloat) String() string {
	return strconv.FormatFloat(float64(self.Value), 'g', -1, 32) + suffixFloat32
}

func (self LiteralDouble) String() string {
	return strconv.FormatFloat(self.Value, 'g', -1, 64) + suffixFloat64
}

func (self LiteralBool) String() string {
	return strconv.FormatBool(self.Value)
}

func (self LiteralChar) String() string {
	return "'" + string(self.Value) + "'"
}

func (self LiteralText) String() string {
	return `"` + self.Value + `"`
}

func (self LiteralOscPath) String() string {
	return self.Value
}

func (self LiteralBlob) String() string {
	parts := make([]string, 0, len(self.Value))
	for _, b := range self.Value {
		parts = append(parts, strconv.Itoa(int(b)))
	}
	return "%[" + strings.Join(parts, ",") + "]"
}

func (self LiteralColor) String() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", self.Value.Red, self.Value.Green, self.Value.Blue, self.Value.Alpha)
}

func (self LiteralMidi) String() string {
	return fmt.Sprintf("~%02X%02X%02X%02X", self.Value.Port, self.Value.Status, self.Value.Data1, self.Value.Data2)
}

func (self LiteralTimeTag) String() string {
	return fmt.Sprintf("@%d.%d", self.Value.Seconds, self.Value.Fractional)
}
