// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package oscl

import (
	"fmt"
	"strings"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
)

// Parse builds a program from a token sequence. It does not recover: the first
// token that fits no grammar rule fails the whole parse.
func Parse(tokens []Token) (Program, error) {
	return NewParserOSCL(exc.NewReporter(nil)).Parse(NewStream(tokens))
}

type ParserOSCL struct {
	reporter exc.Reporter
}

func NewParserOSCL(reporter exc.Reporter) *ParserOSCL {
	return &ParserOSCL{reporter: reporter}
}

// Parse consumes the whole stream. A non-nil error is always an
// exc.Exception and has also been given to the reporter.
func (self *ParserOSCL) Parse(tokens Stream) (Program, error) {
	p := &parserOSCLTokens{
		reporter: self.reporter,
		tokens:   tokens,
	}
	program := p.parse()
	if p.err != nil {
		return nil, p.err
	}
	return program, nil
}

type parserOSCLTokens struct {
	reporter exc.Reporter
	tokens   Stream
	// end of the last consumed token; used to place errors when the stream
	// runs out.
	last int
	err  exc.Exception
}

func (p *parserOSCLTokens) fail(span exc.Span, input string, code string, message string, expected string) {
	if p.err != nil {
		return
	}
	e := exc.NewExpected(exc.Location{Span: span, Input: strings.Clone(input)}, code, message, expected)
	p.err = e
	_ = p.reporter.Report(e)
}

func (p *parserOSCLTokens) failEOF(expecting string) {
	p.fail(exc.Span{Start: p.last, End: p.last}, "", exc.CodeUnexpectedEOF, fmt.Sprintf("unexpected end of tokens (expecting %s)", expecting), expecting)
}

func (p *parserOSCLTokens) failToken(t Token, expecting string) {
	switch t.Type {
	case TokenTypeEOF:
		p.fail(t.Span, "", exc.CodeUnexpectedEOF, fmt.Sprintf("unexpected end of input (expecting %s)", expecting), expecting)
		return
	case TokenTypeIllegal:
		p.fail(t.Span, t.Value, exc.CodeUnexpectedToken, fmt.Sprintf("cannot parse malformed %s %q", t.Label(), t.Value), t.Label())
		return
	}
	p.fail(t.Span, t.Value, exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s %q (expecting %s)", t.Type, t.Value, expecting), expecting)
}

func (p *parserOSCLTokens) peek() (Token, bool) {
	return p.tokens.Peek()
}

func (p *parserOSCLTokens) advance() {
	head, rest := p.tokens.SplitAt(1)
	if !head.IsEmpty() {
		p.last = head.At(0).Span.End
	}
	p.tokens = rest
}

// reports an error if there is no current token, or the current token isn't
// of the expected type. advances on success
func (p *parserOSCLTokens) expectOne(expectedType TokenType) (Token, bool) {
	t, ok := p.peek()
	if !ok {
		p.failEOF(expectedType.String())
		return Token{}, false
	}
	if t.Type != expectedType {
		p.failToken(t, expectedType.String())
		return Token{}, false
	}
	p.advance()
	return t, true
}

// Program := Statement* EndOfInput
func (p *parserOSCLTokens) parse() Program {
	program := Program{}
	for {
		t, ok := p.peek()
		if !ok {
			p.failEOF(TokenTypeEOF.String())
			return nil
		}
		if t.Type == TokenTypeEOF {
			p.advance()
			break
		}
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		program = append(program, StatementExpression{Expression: expr})
	}
	if t, ok := p.peek(); ok {
		p.fail(t.Span, t.Value, exc.CodeUnexpectedToken, fmt.Sprintf("unexpected %s after %s", t.Type, TokenTypeEOF), "")
		return nil
	}
	return program
}

// Expression := Literal | Identifier | Array
func (p *parserOSCLTokens) parseExpression() Expression {
	t, ok := p.peek()
	if !ok {
		p.failEOF("Expression")
		return nil
	}
	switch t.Type {
	case TokenTypeSquareOpen:
		return p.parseArray()
	case TokenTypeIdentifier:
		p.advance()
		return ExpressionIdentifier{Name: t.Text}
	case TokenTypeNil, TokenTypeInf:
		p.advance()
		return ExpressionIdentifier{Name: t.Type.String()}
	}
	lit := literalOf(t)
	if lit == nil {
		p.failToken(t, "Expression")
		return nil
	}
	p.advance()
	return ExpressionLiteral{Value: lit}
}

// Array := '[' [ Expression { ',' Expression } ] ']'
func (p *parserOSCLTokens) parseArray() Expression {
	if _, ok := p.expectOne(TokenTypeSquareOpen); !ok {
		return nil
	}
	items := []Expression{}
	if t, ok := p.peek(); ok && t.Type == TokenTypeSquareClose {
		p.advance()
		return ExpressionArray{Items: items}
	}
	for {
		item := p.parseExpression()
		if item == nil {
			return nil
		}
		items = append(items, item)

		t, ok := p.peek()
		if !ok {
			p.failEOF(TokenTypeSquareClose.String())
			return nil
		}
		switch t.Type {
		case TokenTypeComma:
			p.advance()
		case TokenTypeSquareClose:
			p.advance()
			return ExpressionArray{Items: items}
		default:
			p.failToken(t, TokenTypeComma.String()+" or "+TokenTypeSquareClose.String())
			return nil
		}
	}
}

func literalOf(t Token) Literal {
	switch t.Type {
	case TokenTypeInt:
		return LiteralInt{Value: t.Int}
	case TokenTypeLong:
		return LiteralLong{Value: t.Long}
	case TokenTypeFloat:
		return LiteralFloat{Value: t.Float}
	case TokenTypeDouble:
		return LiteralDouble{Value: t.Double}
	case TokenTypeBool:
		return LiteralBool{Value: t.Bool}
	case TokenTypeChar:
		return LiteralChar{Value: t.Char}
	case TokenTypeText:
		return LiteralText{Value: t.Text}
	case TokenTypeOscAddress:
		return LiteralOscPath{Value: t.Text}
	case TokenTypeBlob:
		return LiteralBlob{Value: t.Blob}
	case TokenTypeColor:
		return LiteralColor{Value: t.Color}
	case TokenTypeMidi:
		return LiteralMidi{Value: t.Midi}
	case TokenTypeTimeTag:
		return LiteralTimeTag{Value: t.Time}
	default:
		return nil
	}
}
