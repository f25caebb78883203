// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package oscl

import (
	"fmt"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

// Lower converts an expression into its wire value. Identifiers other than
// Nil and Inf become strings.
func Lower(expr Expression) wire.Value {
	switch e := expr.(type) {
	case ExpressionIdentifier:
		switch e.Name {
		case TokenTypeNil.String():
			return wire.Nil{}
		case TokenTypeInf.String():
			return wire.Infinity{}
		default:
			return wire.String(e.Name)
		}
	case ExpressionLiteral:
		return lowerLiteral(e.Value)
	case ExpressionArray:
		items := make(wire.Array, 0, len(e.Items))
		for _, item := range e.Items {
			items = append(items, Lower(item))
		}
		return items
	default:
		panic(fmt.Sprintf("oscl: unknown expression type %T", expr))
	}
}

func lowerLiteral(lit Literal) wire.Value {
	switch l := lit.(type) {
	case LiteralInt:
		return wire.Int32(l.Value)
	case LiteralLong:
		return wire.Int64(l.Value)
	case LiteralFloat:
		return wire.Float32(l.Value)
	case LiteralDouble:
		return wire.Float64(l.Value)
	case LiteralBool:
		return wire.Bool(l.Value)
	case LiteralChar:
		return wire.Char(l.Value)
	case LiteralText:
		return wire.String(l.Value)
	case LiteralOscPath:
		return wire.String(l.Value)
	case LiteralBlob:
		b := make(wire.Blob, len(l.Value))
		copy(b, l.Value)
		return b
	case LiteralColor:
		return wire.Color{Red: l.Value.Red, Green: l.Value.Green, Blue: l.Value.Blue, Alpha: l.Value.Alpha}
	case LiteralMidi:
		return wire.Midi{Port: l.Value.Port, Status: l.Value.Status, Data1: l.Value.Data1, Data2: l.Value.Data2}
	case LiteralTimeTag:
		return wire.TimeTag{Seconds: l.Value.Seconds, Fractional: l.Value.Fractional}
	default:
		panic(fmt.Sprintf("oscl: unknown literal type %T", lit))
	}
}

// LowerProgram turns a program into a message. The first statement must be an
// address literal; every following statement becomes one argument.
func LowerProgram(program Program) (*wire.Message, error) {
	if len(program) == 0 {
		return nil, exc.NewExpected(exc.Location{}, exc.CodeAddressFormat, "empty line: expected an OSC address such as /s_new", TokenTypeOscAddress.String())
	}
	address, ok := addressOf(program[0])
	if !ok {
		return nil, exc.NewExpected(exc.Location{}, exc.CodeAddressFormat, fmt.Sprintf("message must start with an OSC address, found %v", program[0]), TokenTypeOscAddress.String())
	}
	args := make([]wire.Value, 0, len(program)-1)
	for _, s := range program[1:] {
		args = append(args, lowerStatement(s))
	}
	return &wire.Message{
		Address:   address,
		Arguments: args,
	}, nil
}

func lowerStatement(s Statement) wire.Value {
	switch st := s.(type) {
	case StatementExpression:
		return Lower(st.Expression)
	default:
		panic(fmt.Sprintf("oscl: unknown statement type %T", s))
	}
}

func addressOf(s Statement) (string, bool) {
	st, ok := s.(StatementExpression)
	if !ok {
		return "", false
	}
	lit, ok := st.Expression.(ExpressionLiteral)
	if !ok {
		return "", false
	}
	path, ok := lit.Value.(LiteralOscPath)
	if !ok {
		return "", false
	}
	return path.Value, true
}
