// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected *wire.Message
		codes    []string
	}{
		{
			name:  "valid line",
			input: `/s_new "default" 1002 'A' "freq" 12.4 [1,2,3]`,
			expected: &wire.Message{
				Address: "/s_new",
				Arguments: []wire.Value{
					wire.String("default"),
					wire.Int32(1002),
					wire.Char('A'),
					wire.String("freq"),
					wire.Float32(12.4),
					wire.Array{wire.Int32(1), wire.Int32(2), wire.Int32(3)},
				},
			},
		},
		{
			name:  "unquoted word reports the lexical diagnostic",
			input: `/s_new "default" freq 1`,
			codes: []string{exc.CodeUnexpectedIdentifier},
		},
		{
			name:  "structural failure without lexical diagnostics",
			input: "/a [1 2]",
			codes: []string{exc.CodeUnexpectedToken},
		},
		{
			name:  "partial blob blocks the line",
			input: "/a %[1,300]",
			codes: []string{exc.CodeInvalidBlobElement},
		},
		{
			name:  "placeholder char blocks the line",
			input: "/a '1'",
			codes: []string{exc.CodeMalformedChar},
		},
		{
			name:  "missing address",
			input: "1 2 3",
			codes: []string{exc.CodeAddressFormat},
		},
		{
			name:  "empty line",
			input: "   ",
			codes: []string{exc.CodeAddressFormat},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			c, err := New()
			require.NoError(t, err)
			result, err := c.Compile(context.Background(), testCase.input)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Tokens)
			if testCase.codes == nil {
				require.NoError(t, err)
				require.Equal(t, testCase.expected, result.Message)
				return
			}
			require.Error(t, err)
			require.Nil(t, result.Message)
			var me MultiException
			require.True(t, errors.As(err, &me))
			codes := make([]string, 0, len(me))
			for _, e := range me {
				codes = append(codes, e.Code())
			}
			require.Equal(t, testCase.codes, codes)
		})
	}
}

func TestCompileAddressErrorLocation(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), `"x" /a`)
	var me MultiException
	require.True(t, errors.As(err, &me))
	require.Len(t, me, 1)
	require.Equal(t, exc.Span{Start: 0, End: 3}, me[0].Location().Span)
	require.Equal(t, `"x"`, me[0].Location().Input)
	require.Equal(t, "OscAddress", me[0].Expected())
}

func TestCompileCancelled(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Compile(ctx, "/a")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	lines := SplitLines("/a 1\n\n# comment\r\n  \n/b 2\r\n")
	require.Equal(t, []Line{
		{Number: 1, Text: "/a 1"},
		{Number: 5, Text: "/b 2"},
	}, lines)
}

func TestCompileBatch(t *testing.T) {
	t.Parallel()

	rep := exc.NewConcurrentReporter(nil)
	c, err := New(OptionWithMaxConcurrency(2), OptionWithExcReporter(rep))
	require.NoError(t, err)

	source := make([]string, 0, 20)
	for x := 0; x < 20; x = x + 1 {
		if x == 7 || x == 13 {
			source = append(source, fmt.Sprintf("/bad %d oops", x))
			continue
		}
		source = append(source, fmt.Sprintf("/line %d", x))
	}
	lines := SplitLines(strings.Join(source, "\n"))
	results, err := c.CompileBatch(context.Background(), lines)
	require.Len(t, results, 20)
	for x, r := range results {
		require.Equal(t, x+1, r.Line)
		if x == 7 || x == 13 {
			require.Nil(t, r.Message)
			continue
		}
		require.Equal(t, []wire.Value{wire.Int32(int32(x))}, r.Message.Arguments)
	}

	require.Error(t, err)
	var me MultiException
	require.True(t, errors.As(err, &me))
	require.Len(t, me, 2)
	lineNumbers := make([]int, 0, len(me))
	for _, e := range me {
		le, ok := e.(*LineException)
		require.True(t, ok)
		lineNumbers = append(lineNumbers, le.Line)
	}
	require.Equal(t, []int{8, 14}, lineNumbers)
	require.True(t, strings.HasPrefix(me[0].Error(), "line 8: "))
	require.Len(t, rep.Reported(), 2)
}

func TestCompileBatchClean(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	results, err := c.CompileBatch(context.Background(), SplitLines("/a 1\n/b 2_i64"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "/b", results[1].Message.Address)
}

func TestOptionWithMaxConcurrency(t *testing.T) {
	t.Parallel()

	_, err := New(OptionWithMaxConcurrency(0))
	require.Error(t, err)
}

func TestDumpTokens(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	result, _ := c.Compile(context.Background(), "/a hello")
	out, err := DumpTokens(result.Tokens)
	require.NoError(t, err)

	var decoded struct {
		Tokens []map[string]string `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Tokens, 3)
	require.Equal(t, "OscAddress", decoded.Tokens[0]["type"])
	require.Equal(t, "0..2", decoded.Tokens[0]["span"])
	require.Equal(t, "Illegal", decoded.Tokens[1]["type"])
	require.Equal(t, "Identifier", decoded.Tokens[1]["expected"])
	require.Equal(t, "EndOfInput", decoded.Tokens[2]["type"])
}

func TestDumpTree(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	result, err := c.Compile(context.Background(), "/a 1 9_i64 [true, Nil] %[1,2]")
	require.NoError(t, err)
	out, err := DumpTree(result.Program, result.Message)
	require.NoError(t, err)

	var decoded struct {
		Program []string `json:"program"`
		Message struct {
			Address   string        `json:"address"`
			TypeTags  string        `json:"typeTags"`
			Arguments []interface{} `json:"arguments"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, []string{"/a", "1", "9_i64", "[true, Nil]", "%[1,2]"}, decoded.Program)
	require.Equal(t, "/a", decoded.Message.Address)
	require.Equal(t, ",ih[TN]b", decoded.Message.TypeTags)
	require.Equal(t, map[string]interface{}{"tag": "i", "value": float64(1)}, decoded.Message.Arguments[0])
	require.Equal(t, map[string]interface{}{"tag": "h", "value": "9"}, decoded.Message.Arguments[1])
	require.Equal(t, map[string]interface{}{"tag": "b", "value": []interface{}{float64(1), float64(2)}}, decoded.Message.Arguments[3])
}

func TestSemaphore(t *testing.T) {
	t.Parallel()

	s := newSemaphore(1)
	require.NoError(t, s.Acquire(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Acquire(ctx), context.Canceled)
	s.Release()
	require.NoError(t, s.Acquire(context.Background()))
	s.Release()
}
