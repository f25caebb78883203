// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package oscl

// Stream is an immutable view over a token sequence. Sub-views share the
// backing array of the original sequence; start and end stay absolute so
// that a view always knows where it sits in the full scan result.
type Stream struct {
	tokens []Token
	start  int
	end    int
}

func NewStream(tokens []Token) Stream {
	return Stream{
		tokens: tokens,
		start:  0,
		end:    len(tokens),
	}
}

func (s Stream) Len() int {
	return s.end - s.start
}

func (s Stream) IsEmpty() bool {
	return s.Len() == 0
}

// Start is the absolute index of the first token of the view.
func (s Stream) Start() int {
	return s.start
}

// End is the absolute index one past the last token of the view.
func (s Stream) End() int {
	return s.end
}

// At returns the i-th token of the view. It panics if i is out of range, the
// same way indexing a slice does.
func (s Stream) At(i int) Token {
	if i < 0 || i >= s.Len() {
		panic("oscl: stream index out of range")
	}
	return s.tokens[s.start+i]
}

// Peek returns the first token of the view, if any.
func (s Stream) Peek() (Token, bool) {
	if s.IsEmpty() {
		return Token{}, false
	}
	return s.tokens[s.start], true
}

// Take returns the first n tokens as a new view. n is clamped to the view.
func (s Stream) Take(n int) Stream {
	prefix, _ := s.SplitAt(n)
	return prefix
}

// SplitAt returns the views before and from index n. n is clamped to the
// view.
func (s Stream) SplitAt(n int) (Stream, Stream) {
	if n < 0 {
		n = 0
	}
	if n > s.Len() {
		n = s.Len()
	}
	mid := s.start + n
	return Stream{tokens: s.tokens, start: s.start, end: mid},
		Stream{tokens: s.tokens, start: mid, end: s.end}
}

// Tokens returns the tokens of the view. The result aliases the original
// sequence and must not be modified.
func (s Stream) Tokens() []Token {
	return s.tokens[s.start:s.end:s.end]
}
