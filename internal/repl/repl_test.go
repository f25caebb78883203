// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/require"

	"gopkg.oscdbg.org/oscdbg.go/internal/compiler"
	"gopkg.oscdbg.org/oscdbg.go/internal/render"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

type scriptedReader struct {
	lines   []string
	end     error
	history []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", r.end
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) {
	r.history = append(r.history, item)
}

type recordingSender struct {
	lock sync.Mutex
	sent []*wire.Message
	fail error
}

func (s *recordingSender) Send(ctx context.Context, msg *wire.Message) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newSession(t *testing.T, sender *recordingSender, opts ...Option) (*Session, *bytes.Buffer) {
	t.Helper()
	c, err := compiler.New()
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return New(c, sender, render.New(false), out, opts...), out
}

func TestRun(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		lines   []string
		end     error
		sent    []string
		history []string
	}{
		{
			name:    "quit command stops the loop",
			lines:   []string{"/a 1", "  ", "/b oops", ":q", "/never"},
			end:     io.EOF,
			sent:    []string{"/a"},
			history: []string{"/a 1", "/b oops", ":q"},
		},
		{
			name:    "end of input",
			lines:   []string{"/a 1", "/b 2"},
			end:     io.EOF,
			sent:    []string{"/a", "/b"},
			history: []string{"/a 1", "/b 2"},
		},
		{
			name:    "ctrl-c",
			lines:   []string{"/a 1"},
			end:     liner.ErrPromptAborted,
			sent:    []string{"/a"},
			history: []string{"/a 1"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			sender := &recordingSender{}
			session, _ := newSession(t, sender)
			reader := &scriptedReader{lines: testCase.lines, end: testCase.end}
			require.NoError(t, session.Run(context.Background(), reader))
			addresses := make([]string, 0, len(sender.sent))
			for _, msg := range sender.sent {
				addresses = append(addresses, msg.Address)
			}
			require.Equal(t, testCase.sent, addresses)
			require.Equal(t, testCase.history, reader.history)
		})
	}
}

func TestRunReadFailure(t *testing.T) {
	t.Parallel()

	session, _ := newSession(t, &recordingSender{})
	err := session.Run(context.Background(), &scriptedReader{end: errors.New("tty gone")})
	require.ErrorContains(t, err, "tty gone")
}

func TestEvalPrintsDiagnostics(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	session, out := newSession(t, sender)
	err := session.Eval(context.Background(), `/a "abc`)
	require.Error(t, err)
	require.Empty(t, sender.sent)
	require.Contains(t, out.String(), "missing closing quote")
	require.Contains(t, out.String(), "StringLiteral")
}

func TestEvalEchoesSentMessage(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	session, out := newSession(t, sender)
	require.NoError(t, session.Eval(context.Background(), `/s_new "default" 1`))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "/s_new ,si String(\"default\") Int32(1)\n", out.String())
}

func TestEvalSendFailure(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{fail: errors.New("connection refused")}
	session, out := newSession(t, sender)
	err := session.Eval(context.Background(), "/a 1")
	require.Error(t, err)
	require.Contains(t, out.String(), "error: connection refused")
}

func TestEvalDryRunAndDumps(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	session, out := newSession(t, sender, OptionWithDryRun(true), OptionWithDumps(true, true))
	require.NoError(t, session.Eval(context.Background(), "/a 1"))
	require.Empty(t, sender.sent)
	require.Contains(t, out.String(), `"tokens"`)
	require.Contains(t, out.String(), `"typeTags"`)
	require.True(t, strings.HasSuffix(out.String(), "/a ,i Int32(1)\n"))
}

func TestBatch(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	session, out := newSession(t, sender)
	err := session.Batch(context.Background(), "# cue list\n/a 1\n/b hello\n\n/c 3\n")
	require.EqualError(t, err, "1 of 3 lines failed")

	addresses := make([]string, 0, len(sender.sent))
	for _, msg := range sender.sent {
		addresses = append(addresses, msg.Address)
	}
	require.Equal(t, []string{"/a", "/c"}, addresses)
	require.Contains(t, out.String(), "line 3: /b hello")
}

func TestBatchClean(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	session, _ := newSession(t, sender)
	require.NoError(t, session.Batch(context.Background(), "/a 1\n/b 2\n"))
	require.Len(t, sender.sent, 2)
}
