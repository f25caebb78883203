// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestException(t *testing.T) {
	t.Parallel()

	loc := Location{Span: Span{Start: 3, End: 7}, Input: `"abc`}
	e := NewExpected(loc, CodeMalformedString, "missing closing quote", "StringLiteral")
	require.Equal(t, `3..7 -- E0001: missing closing quote`, e.Error())
	require.Equal(t, CodeMalformedString, e.Code())
	require.Equal(t, "StringLiteral", e.Expected())
	require.Equal(t, loc, e.Location())
	require.Equal(t, 4, e.Location().Len())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	require.Nil(t, Wrap(Location{}, CodeUnknownFatal, nil))

	cause := errors.New("boom")
	wrapped := WrapUnknown(Location{}, cause)
	require.Equal(t, CodeUnknownFatal, wrapped.Code())
	require.Equal(t, "boom", wrapped.Message())
	require.ErrorIs(t, wrapped, cause)

	inner := NewExpected(Location{}, CodeAddressFormat, "bad address", "OscAddress")
	loc := Location{Span: Span{Start: 0, End: 1}, Input: "1"}
	rewrapped := Wrap(loc, CodeAddressFormat, inner)
	require.Equal(t, "bad address", rewrapped.Message())
	require.Equal(t, "OscAddress", rewrapped.Expected())
	require.Equal(t, loc, rewrapped.Location())
	require.ErrorIs(t, rewrapped, inner)
}

func TestReporter(t *testing.T) {
	t.Parallel()

	rep := NewReporter([]string{CodeAddressFormat})
	require.Nil(t, rep.Report(New(Location{}, CodeMalformedBlob, "lexical")))
	require.Nil(t, rep.Report(New(Location{}, CodeAddressFormat, "made non-fatal")))
	fatal := New(Location{}, CodeUnexpectedToken, "structural")
	require.Equal(t, fatal, rep.Report(fatal))
	require.Len(t, rep.Reported(), 3)
}

func TestConcurrentReporter(t *testing.T) {
	t.Parallel()

	rep := NewConcurrentReporter(nil)
	wg := &sync.WaitGroup{}
	for x := 0; x < 50; x = x + 1 {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			_ = rep.Report(New(Location{}, CodeInvalidNumber, fmt.Sprintf("%d", x)))
		}(x)
	}
	wg.Wait()
	reported := rep.Reported()
	require.Len(t, reported, 50)
	reported[0] = nil
	require.NotNil(t, rep.Reported()[0])
}
