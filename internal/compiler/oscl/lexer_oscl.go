// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package oscl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
)

const (
	suffixInt32   = "_i32"
	suffixInt64   = "_i64"
	suffixFloat32 = "_f32"
	suffixFloat64 = "_f64"

	asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Scan tokenizes one line of input. It never fails: malformed input becomes
// Illegal tokens plus diagnostics and the result always ends with exactly one
// EOF token.
func Scan(source string) ([]Token, []exc.Exception) {
	reporter := exc.NewReporter(nil)
	tokens := NewLexerOSCL(reporter).Lex(source)
	return tokens, reporter.Reported()
}

// LexerOSCL implements a tokenizer for the OSC line syntax.
type LexerOSCL struct {
	reporter exc.Reporter
}

func NewLexerOSCL(reporter exc.Reporter) *LexerOSCL {
	return &LexerOSCL{reporter: reporter}
}

func (self *LexerOSCL) Lex(source string) []Token {
	lx := &lexer{
		source:   source,
		reporter: self.reporter,
	}
	return lx.run()
}

type lexer struct {
	source   string
	reporter exc.Reporter
}

// recognizer tries to read one token starting at pos. On success it returns
// the token and the offset just past it, which is always greater than pos.
type recognizer func(lx *lexer, pos int) (Token, int, bool)

// The first recognizer that matches wins. Addresses come first because they
// may contain characters the other recognizers would claim. Long and double
// literals must come before float and int so that their suffix is not left
// behind as a separate malformed token.
var recognizers = []recognizer{
	(*lexer).readAddress,
	(*lexer).readPunctuation,
	(*lexer).readText,
	(*lexer).readBlob,
	(*lexer).readTimeTag,
	(*lexer).readMidi,
	(*lexer).readColor,
	(*lexer).readLong,
	(*lexer).readDouble,
	(*lexer).readFloat,
	(*lexer).readInt,
	(*lexer).readReserved,
	(*lexer).readChar,
}

func (self *lexer) run() []Token {
	tokens := make([]Token, 0, 8)
	pos := 0
	for {
		pos = self.skipSpace(pos)
		if pos >= len(self.source) {
			break
		}
		t, next := self.readToken(pos)
		tokens = append(tokens, t)
		pos = next
	}
	return append(tokens, newToken(len(self.source), len(self.source), TokenTypeEOF, ""))
}

func (self *lexer) readToken(pos int) (Token, int) {
	for _, read := range recognizers {
		if t, next, ok := read(self, pos); ok {
			return t, next
		}
	}
	return self.readIllegal(pos)
}

func (self *lexer) skipSpace(pos int) int {
	for pos < len(self.source) && isSpace(self.source[pos]) {
		pos = pos + 1
	}
	return pos
}

func (self *lexer) readAddress(pos int) (Token, int, bool) {
	if self.source[pos] != '/' {
		return Token{}, pos, false
	}
	end := pos + 1
	for end < len(self.source) {
		r, size := utf8.DecodeRuneInString(self.source[end:])
		if !isAddressRune(r) {
			break
		}
		end = end + size
	}
	t := newToken(pos, end, TokenTypeOscAddress, self.source[pos:end])
	t.Text = t.Value
	return t, end, true
}

func (self *lexer) readPunctuation(pos int) (Token, int, bool) {
	var kind TokenType
	switch self.source[pos] {
	case ',':
		kind = TokenTypeComma
	case '[':
		kind = TokenTypeSquareOpen
	case ']':
		kind = TokenTypeSquareClose
	default:
		return Token{}, pos, false
	}
	return newToken(pos, pos+1, kind, self.source[pos:pos+1]), pos + 1, true
}

func (self *lexer) readText(pos int) (Token, int, bool) {
	if self.source[pos] != '"' {
		return Token{}, pos, false
	}
	closing := strings.IndexByte(self.source[pos+1:], '"')
	if closing < 0 {
		return Token{}, pos, false
	}
	end := pos + 1 + closing + 1
	t := newToken(pos, end, TokenTypeText, self.source[pos:end])
	t.Text = self.source[pos+1 : end-1]
	return t, end, true
}

func (self *lexer) readBlob(pos int) (Token, int, bool) {
	if !strings.HasPrefix(self.source[pos:], "%[") {
		return Token{}, pos, false
	}
	bodyStart := pos + 2
	closing := strings.IndexByte(self.source[bodyStart:], ']')
	if closing < 0 {
		return Token{}, pos, false
	}
	bodyEnd := bodyStart + closing
	end := bodyEnd + 1

	values := make([]byte, 0, 8)
	malformed := false
	if strings.TrimSpace(self.source[bodyStart:bodyEnd]) != "" {
		elemStart := bodyStart
		for elemStart <= bodyEnd {
			elemEnd := strings.IndexByte(self.source[elemStart:bodyEnd], ',')
			if elemEnd < 0 {
				elemEnd = bodyEnd
			} else {
				elemEnd = elemStart + elemEnd
			}
			start, stop := trimSpan(self.source, elemStart, elemEnd)
			elem := self.source[start:stop]
			switch {
			case elem == "" || !isDigits(elem):
				malformed = true
				if elem == "" {
					start, stop = elemStart, elemEnd
				}
				self.report(start, stop, exc.CodeInvalidBlobElement, fmt.Sprintf("blob element %q is not an unsigned byte", elem), TokenTypeBlob)
			default:
				v, err := strconv.ParseUint(elem, 10, 8)
				if err != nil {
					self.report(start, stop, exc.CodeInvalidBlobElement, fmt.Sprintf("blob element %s is out of range for an unsigned byte (0-255)", elem), TokenTypeBlob)
					break
				}
				values = append(values, byte(v))
			}
			elemStart = elemEnd + 1
		}
	}

	if malformed || len(values) == 0 {
		self.report(pos, end, exc.CodeMalformedBlob, "malformed blob: expected %[<byte>,<byte>,...] with at least one element between 0 and 255", TokenTypeBlob)
		expected := newToken(pos, end, TokenTypeBlob, self.source[pos:end])
		expected.Blob = values
		return newIllegal(pos, end, self.source[pos:end], expected), end, true
	}
	t := newToken(pos, end, TokenTypeBlob, self.source[pos:end])
	t.Blob = values
	return t, end, true
}

func (self *lexer) readTimeTag(pos int) (Token, int, bool) {
	if self.source[pos] != '@' {
		return Token{}, pos, false
	}
	secStart := pos + 1
	secEnd := self.separatedDigitsEnd(secStart)
	if secEnd == secStart {
		return Token{}, pos, false
	}
	end := secEnd
	fractional := ""
	if end+1 < len(self.source) && self.source[end] == '.' && isDigit(self.source[end+1]) {
		fracEnd := self.separatedDigitsEnd(end + 1)
		fractional = self.source[end+1 : fracEnd]
		end = fracEnd
	}
	t := newToken(pos, end, TokenTypeTimeTag, self.source[pos:end])
	t.Time = TimeMsg{
		Seconds:    parseTimeComponent(self.source[secStart:secEnd]),
		Fractional: parseTimeComponent(fractional),
	}
	return t, end, true
}

func (self *lexer) readMidi(pos int) (Token, int, bool) {
	b, end, ok := self.readHexQuad(pos, '~')
	if !ok {
		return Token{}, pos, false
	}
	t := newToken(pos, end, TokenTypeMidi, self.source[pos:end])
	t.Midi = MidiMsg{Port: b[0], Status: b[1], Data1: b[2], Data2: b[3]}
	return t, end, true
}

func (self *lexer) readColor(pos int) (Token, int, bool) {
	b, end, ok := self.readHexQuad(pos, '#')
	if !ok {
		return Token{}, pos, false
	}
	t := newToken(pos, end, TokenTypeColor, self.source[pos:end])
	t.Color = Color{Red: b[0], Green: b[1], Blue: b[2], Alpha: b[3]}
	return t, end, true
}

func (self *lexer) readHexQuad(pos int, prefix byte) ([4]byte, int, bool) {
	var b [4]byte
	if self.source[pos] != prefix || pos+9 > len(self.source) {
		return b, pos, false
	}
	digits := self.source[pos+1 : pos+9]
	for x := 0; x < len(digits); x = x + 1 {
		if !isHexDigit(digits[x]) {
			return b, pos, false
		}
	}
	for x := 0; x < 4; x = x + 1 {
		v, _ := strconv.ParseUint(digits[x*2:x*2+2], 16, 8)
		b[x] = byte(v)
	}
	return b, pos + 9, true
}

func (self *lexer) readLong(pos int) (Token, int, bool) {
	start, negative := self.readSign(pos)
	digitsEnd := self.digitsEnd(start)
	if digitsEnd == start || !strings.HasPrefix(self.source[digitsEnd:], suffixInt64) {
		return Token{}, pos, false
	}
	end := digitsEnd + len(suffixInt64)
	v, err := strconv.ParseInt(self.source[start:digitsEnd], 10, 64)
	if err != nil {
		return self.outOfRange(pos, end, TokenTypeLong), end, true
	}
	if negative {
		v = -v
	}
	t := newToken(pos, end, TokenTypeLong, self.source[pos:end])
	t.Long = v
	return t, end, true
}

func (self *lexer) readDouble(pos int) (Token, int, bool) {
	start, negative := self.readSign(pos)
	mantissaEnd, _, ok := self.mantissaEnd(start)
	if !ok {
		return Token{}, pos, false
	}
	numberEnd := self.exponentEnd(mantissaEnd)
	if !strings.HasPrefix(self.source[numberEnd:], suffixFloat64) {
		return Token{}, pos, false
	}
	end := numberEnd + len(suffixFloat64)
	v, err := strconv.ParseFloat(self.source[start:numberEnd], 64)
	if err != nil {
		return self.outOfRange(pos, end, TokenTypeDouble), end, true
	}
	if negative {
		v = -v
	}
	t := newToken(pos, end, TokenTypeDouble, self.source[pos:end])
	t.Double = v
	return t, end, true
}

func (self *lexer) readFloat(pos int) (Token, int, bool) {
	start, negative := self.readSign(pos)
	mantissaEnd, hasPoint, ok := self.mantissaEnd(start)
	if !ok {
		return Token{}, pos, false
	}
	end := mantissaEnd
	if strings.HasPrefix(self.source[mantissaEnd:], suffixFloat32) {
		end = mantissaEnd + len(suffixFloat32)
	} else if !hasPoint {
		return Token{}, pos, false
	}
	v, err := strconv.ParseFloat(self.source[start:mantissaEnd], 32)
	if err != nil {
		return self.outOfRange(pos, end, TokenTypeFloat), end, true
	}
	if negative {
		v = -v
	}
	t := newToken(pos, end, TokenTypeFloat, self.source[pos:end])
	t.Float = float32(v)
	return t, end, true
}

func (self *lexer) readInt(pos int) (Token, int, bool) {
	start, negative := self.readSign(pos)
	digitsEnd := self.digitsEnd(start)
	if digitsEnd == start {
		return Token{}, pos, false
	}
	end := digitsEnd
	if strings.HasPrefix(self.source[digitsEnd:], suffixInt32) {
		end = digitsEnd + len(suffixInt32)
	}
	v, err := strconv.ParseInt(self.source[start:digitsEnd], 10, 32)
	if err != nil {
		return self.outOfRange(pos, end, TokenTypeInt), end, true
	}
	if negative {
		v = -v
	}
	t := newToken(pos, end, TokenTypeInt, self.source[pos:end])
	t.Int = int32(v)
	return t, end, true
}

func (self *lexer) readReserved(pos int) (Token, int, bool) {
	r, size := utf8.DecodeRuneInString(self.source[pos:])
	if !unicode.IsLetter(r) {
		return Token{}, pos, false
	}
	end := pos + size
	for end < len(self.source) {
		r, size = utf8.DecodeRuneInString(self.source[end:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		end = end + size
	}
	word := self.source[pos:end]
	t := newToken(pos, end, TokenTypeIdentifier, word)
	switch word {
	case "true":
		t.Type = TokenTypeBool
		t.Bool = true
	case "false":
		t.Type = TokenTypeBool
		t.Bool = false
	case "Nil":
		t.Type = TokenTypeNil
	case "Inf":
		t.Type = TokenTypeInf
	default:
		return Token{}, pos, false
	}
	return t, end, true
}

// readChar emits a zero placeholder alongside a diagnostic for a malformed
// character literal so that the rest of the line is still tokenized.
func (self *lexer) readChar(pos int) (Token, int, bool) {
	if self.source[pos] != '\'' || pos+1 >= len(self.source) {
		return Token{}, pos, false
	}
	r, size := utf8.DecodeRuneInString(self.source[pos+1:])
	if r == '\'' {
		end := pos + 2
		self.report(pos, end, exc.CodeMalformedChar, "empty character literal", TokenTypeChar)
		return newToken(pos, end, TokenTypeChar, self.source[pos:end]), end, true
	}
	closeAt := pos + 1 + size
	closed := closeAt < len(self.source) && self.source[closeAt] == '\''
	end := closeAt
	if closed {
		end = closeAt + 1
	}
	alphabetic := unicode.IsLetter(r)
	switch {
	case alphabetic && closed:
		t := newToken(pos, end, TokenTypeChar, self.source[pos:end])
		t.Char = r
		return t, end, true
	case !alphabetic && !closed:
		self.report(pos, end, exc.CodeMalformedChar, "character literal must be a single alphabetic character between single quotes", TokenTypeChar)
	case !alphabetic:
		self.report(pos, end, exc.CodeMalformedChar, fmt.Sprintf("character literal %q is not alphabetic", r), TokenTypeChar)
	default:
		self.report(pos, end, exc.CodeMalformedChar, "missing closing ' after character literal", TokenTypeChar)
	}
	return newToken(pos, end, TokenTypeChar, self.source[pos:end]), end, true
}

// readIllegal consumes everything up to the end of the line and classifies
// the failure by the first character of the unmatched text.
func (self *lexer) readIllegal(pos int) (Token, int) {
	end := len(self.source)
	if nl := strings.IndexByte(self.source[pos:], '\n'); nl >= 0 {
		end = pos + nl
	}
	next := end
	_, end = trimSpan(self.source, pos, end)
	value := self.source[pos:end]

	var code, message string
	var expected TokenType
	switch value[0] {
	case '"':
		code, expected = exc.CodeMalformedString, TokenTypeText
		message = "unterminated string literal: missing closing quote \""
	case '%':
		code, expected = exc.CodeMalformedBlob, TokenTypeBlob
		message = "malformed blob: expected %[<byte>,<byte>,...]"
	case '@':
		code, expected = exc.CodeMalformedTimeTag, TokenTypeTimeTag
		message = "malformed time tag: expected @<seconds>[.<fractional>]"
	case '\'':
		code, expected = exc.CodeMalformedChar, TokenTypeChar
		message = "malformed character literal: expected 'x'"
	case '#':
		code, expected = exc.CodeMalformedColor, TokenTypeColor
		message = "malformed color: expected #RRGGBBAA"
	case '~':
		code, expected = exc.CodeMalformedMidi, TokenTypeMidi
		message = "malformed MIDI message: expected ~PPSSD1D2"
	case '_':
		code, expected = exc.CodeMalformedSuffix, TokenTypeNumericSuffix
		message = "malformed numeric suffix: expected one of _i32, _i64, _f32, _f64"
	default:
		code, expected = exc.CodeUnexpectedIdentifier, TokenTypeIdentifier
		message = "unexpected identifier: only true, false, Nil and Inf may appear unquoted"
	}
	self.report(pos, end, code, message, expected)

	want := newToken(pos, end, expected, value)
	if expected == TokenTypeIdentifier || expected == TokenTypeNumericSuffix {
		want.Text = value
	}
	return newIllegal(pos, end, value, want), next
}

func (self *lexer) outOfRange(start int, end int, kind TokenType) Token {
	value := self.source[start:end]
	self.report(start, end, exc.CodeInvalidNumber, fmt.Sprintf("numeric literal %s is out of range for %s", value, kind), kind)
	return newIllegal(start, end, value, newToken(start, end, kind, value))
}

func (self *lexer) report(start int, end int, code string, message string, expected TokenType) {
	loc := exc.Location{
		Span:  exc.Span{Start: start, End: end},
		Input: strings.Clone(self.source[start:end]),
	}
	_ = self.reporter.Report(exc.NewExpected(loc, code, message, expected.String()))
}

func (self *lexer) readSign(pos int) (int, bool) {
	switch self.source[pos] {
	case '-':
		return pos + 1, true
	case '+':
		return pos + 1, false
	default:
		return pos, false
	}
}

func (self *lexer) digitsEnd(pos int) int {
	for pos < len(self.source) && isDigit(self.source[pos]) {
		pos = pos + 1
	}
	return pos
}

// separatedDigitsEnd reads a digit run that may use '_' as a visual
// separator after the first digit.
func (self *lexer) separatedDigitsEnd(pos int) int {
	if pos >= len(self.source) || !isDigit(self.source[pos]) {
		return pos
	}
	for pos < len(self.source) && (isDigit(self.source[pos]) || self.source[pos] == '_') {
		pos = pos + 1
	}
	return pos
}

// mantissaEnd reads DIGITS [ '.' [DIGITS] ] or '.' DIGITS.
func (self *lexer) mantissaEnd(pos int) (int, bool, bool) {
	if pos >= len(self.source) {
		return pos, false, false
	}
	intEnd := self.digitsEnd(pos)
	end := intEnd
	hasPoint := false
	if end < len(self.source) && self.source[end] == '.' {
		fracEnd := self.digitsEnd(end + 1)
		if intEnd > pos || fracEnd > end+1 {
			hasPoint = true
			end = fracEnd
		}
	}
	if end == pos {
		return pos, false, false
	}
	return end, hasPoint, true
}

func (self *lexer) exponentEnd(pos int) int {
	if pos >= len(self.source) || (self.source[pos] != 'e' && self.source[pos] != 'E') {
		return pos
	}
	start := pos + 1
	if start < len(self.source) && (self.source[start] == '+' || self.source[start] == '-') {
		start = start + 1
	}
	end := self.digitsEnd(start)
	if end == start {
		return pos
	}
	return end
}

// parseTimeComponent silently falls back to zero for text that does not fit
// in 32 bits.
func parseTimeComponent(s string) uint32 {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func trimSpan(s string, start int, end int) (int, int) {
	for start < end && isSpace(s[start]) {
		start = start + 1
	}
	for end > start && isSpace(s[end-1]) {
		end = end - 1
	}
	return start, end
}

func isAddressRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || (r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r))
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isDigits(s string) bool {
	for x := 0; x < len(s); x = x + 1 {
		if !isDigit(s[x]) {
			return false
		}
	}
	return true
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
