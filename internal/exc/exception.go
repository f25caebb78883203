// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"fmt"
)

// Exception is a positioned, human readable description of one defect in a
// line of input. Lexical diagnostics and structural parse failures share this
// shape so they can be rendered side by side.
type Exception interface {
	error
	Code() string
	Message() string
	Location() Location
	// Expected is the rendered label of the token kind that was expected at
	// the location, or an empty string when there is no single expectation.
	Expected() string
}

// Span is a half-open byte range [Start, End) in the source line.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Location of an exception. Input holds a copy of the offending source text
// so the exception stays valid after the source and token slice are gone.
type Location struct {
	Span
	Input string
}

type exc struct {
	code     string
	message  string
	expected string
	location Location
}

func (e *exc) Error() string {
	return fmt.Sprintf("%s -- %s: %s", e.location.Span, e.code, e.message)
}

func (e *exc) Code() string {
	return e.code
}

func (e *exc) Message() string {
	return e.message
}

func (e *exc) Location() Location {
	return e.location
}

func (e *exc) Expected() string {
	return e.expected
}

type excUnwrap struct {
	Exception
	cause error
}

func (e *excUnwrap) Unwrap() error {
	return e.cause
}

func New(location Location, code string, message string) Exception {
	return &exc{
		location: location,
		message:  message,
		code:     code,
	}
}

// NewExpected is the same as New but records the label of the token kind that
// would have been valid at the location.
func NewExpected(location Location, code string, message string, expected string) Exception {
	return &exc{
		location: location,
		message:  message,
		code:     code,
		expected: expected,
	}
}

func Wrap(location Location, code string, err error) Exception {
	if err == nil {
		return nil
	}
	if e, ok := err.(Exception); ok {
		return &excUnwrap{
			Exception: NewExpected(location, code, e.Message(), e.Expected()),
			cause:     e,
		}
	}
	return &excUnwrap{
		cause:     err,
		Exception: New(location, code, err.Error()),
	}
}

func WrapUnknown(location Location, err error) Exception {
	return Wrap(location, CodeUnknownFatal, err)
}
