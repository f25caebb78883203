// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package oscl

import (
	"fmt"
	"strconv"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
)

type TokenType uint8

const (
	TokenTypeEOF TokenType = iota
	TokenTypeComma
	TokenTypeSquareOpen
	TokenTypeSquareClose
	TokenTypeIdentifier
	TokenTypeOscAddress
	TokenTypeText
	TokenTypeInt
	TokenTypeLong
	TokenTypeFloat
	TokenTypeDouble
	TokenTypeBool
	TokenTypeChar
	TokenTypeBlob
	TokenTypeColor
	TokenTypeMidi
	TokenTypeTimeTag
	TokenTypeNil
	TokenTypeInf
	TokenTypeNumericSuffix
	TokenTypeIllegal
)

func (t TokenType) String() string {
	switch t {
	case TokenTypeEOF:
		return "EndOfInput"
	case TokenTypeComma:
		return "Comma"
	case TokenTypeSquareOpen:
		return "OpenBracket"
	case TokenTypeSquareClose:
		return "CloseBracket"
	case TokenTypeIdentifier:
		return "Identifier"
	case TokenTypeOscAddress:
		return "OscAddress"
	case TokenTypeText:
		return "StringLiteral"
	case TokenTypeInt:
		return "IntLiteral"
	case TokenTypeLong:
		return "LongLiteral"
	case TokenTypeFloat:
		return "FloatLiteral"
	case TokenTypeDouble:
		return "DoubleLiteral"
	case TokenTypeBool:
		return "BoolLiteral"
	case TokenTypeChar:
		return "CharLiteral"
	case TokenTypeBlob:
		return "Blob"
	case TokenTypeColor:
		return "Color"
	case TokenTypeMidi:
		return "MidiMessage"
	case TokenTypeTimeTag:
		return "TimeTag"
	case TokenTypeNil:
		return "Nil"
	case TokenTypeInf:
		return "Inf"
	case TokenTypeNumericSuffix:
		return "NumericSuffix"
	case TokenTypeIllegal:
		return "Illegal"
	default:
		return "TokenType(" + strconv.Itoa(int(t)) + ")"
	}
}

type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
	Alpha uint8
}

type MidiMsg struct {
	Port   uint8
	Status uint8
	Data1  uint8
	Data2  uint8
}

type TimeMsg struct {
	Seconds    uint32
	Fractional uint32
}

// Token is a tagged union. Type selects which payload field is meaningful;
// the others stay at their zero value. Value always holds the raw source text
// covered by Span.
type Token struct {
	Span  exc.Span
	Type  TokenType
	Value string

	Text   string
	Int    int32
	Long   int64
	Float  float32
	Double float64
	Bool   bool
	Char   rune
	Blob   []byte
	Color  Color
	Midi   MidiMsg
	Time   TimeMsg

	// Expected is set on Illegal tokens and describes the token kind the
	// malformed input was presumably meant to be.
	Expected *Token
}

// Label renders the token kind for display in diagnostics. Illegal tokens
// render as the kind they were expected to be.
func (t Token) Label() string {
	if t.Type == TokenTypeIllegal && t.Expected != nil {
		return t.Expected.Type.String()
	}
	return t.Type.String()
}

func (t Token) String() string {
	switch t.Type {
	case TokenTypeIdentifier, TokenTypeOscAddress, TokenTypeText, TokenTypeNumericSuffix:
		return fmt.Sprintf("%s(%q)", t.Type, t.Text)
	case TokenTypeInt:
		return fmt.Sprintf("%s(%d)", t.Type, t.Int)
	case TokenTypeLong:
		return fmt.Sprintf("%s(%d)", t.Type, t.Long)
	case TokenTypeFloat:
		return fmt.Sprintf("%s(%s)", t.Type, strconv.FormatFloat(float64(t.Float), 'g', -1, 32))
	case TokenTypeDouble:
		return fmt.Sprintf("%s(%s)", t.Type, strconv.FormatFloat(t.Double, 'g', -1, 64))
	case TokenTypeBool:
		return fmt.Sprintf("%s(%t)", t.Type, t.Bool)
	case TokenTypeChar:
		return fmt.Sprintf("%s(%q)", t.Type, t.Char)
	case TokenTypeBlob:
		return fmt.Sprintf("%s(%v)", t.Type, t.Blob)
	case TokenTypeColor:
		return fmt.Sprintf("%s(#%02X%02X%02X%02X)", t.Type, t.Color.Red, t.Color.Green, t.Color.Blue, t.Color.Alpha)
	case TokenTypeMidi:
		return fmt.Sprintf("%s(~%02X%02X%02X%02X)", t.Type, t.Midi.Port, t.Midi.Status, t.Midi.Data1, t.Midi.Data2)
	case TokenTypeTimeTag:
		return fmt.Sprintf("%s(@%d.%d)", t.Type, t.Time.Seconds, t.Time.Fractional)
	case TokenTypeIllegal:
		if t.Expected != nil {
			return fmt.Sprintf("%s(%s)", t.Type, t.Expected)
		}
		return t.Type.String()
	default:
		return t.Type.String()
	}
}

func newToken(start int, end int, kind TokenType, value string) Token {
	return Token{
		Span:  exc.Span{Start: start, End: end},
		Type:  kind,
		Value: value,
	}
}

func newIllegal(start int, end int, value string, expected Token) Token {
	t := newToken(start, end, TokenTypeIllegal, value)
	t.Expected = &expected
	return t
}
