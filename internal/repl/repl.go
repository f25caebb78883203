// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package repl drives the interactive send loop and batch sends on top of
// the line compiler and the transport.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"gopkg.oscdbg.org/oscdbg.go/internal/compiler"
	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
	"gopkg.oscdbg.org/oscdbg.go/internal/render"
	"gopkg.oscdbg.org/oscdbg.go/internal/transport"
)

const (
	Prompt      = "> "
	QuitCommand = ":q"
)

// LineReader is the part of a line editor the loop needs. *liner.State
// satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type Option func(s *Session)

func OptionWithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// OptionWithDryRun compiles and prints messages without sending them.
func OptionWithDryRun(dryRun bool) Option {
	return func(s *Session) {
		s.dryRun = dryRun
	}
}

func OptionWithDumps(tokens bool, tree bool) Option {
	return func(s *Session) {
		s.dumpTokens = tokens
		s.dumpTree = tree
	}
}

type Session struct {
	compiler compiler.Compiler
	sender   transport.Sender
	renderer *render.Renderer
	out      io.Writer
	logger   *slog.Logger

	dryRun     bool
	dumpTokens bool
	dumpTree   bool
}

func New(c compiler.Compiler, sender transport.Sender, renderer *render.Renderer, out io.Writer, opts ...Option) *Session {
	s := &Session{
		compiler: c,
		sender:   sender,
		renderer: renderer,
		out:      out,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Run reads lines until :q, end of input, ctrl-C or cancellation. Errors in a
// line are printed and do not stop the loop.
func (self *Session) Run(ctx context.Context, reader LineReader) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := reader.Prompt(Prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line: %w", err)
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		reader.AppendHistory(line)
		if trimmed == QuitCommand {
			return nil
		}
		_ = self.Eval(ctx, line)
	}
}

// Eval compiles and sends one line, printing the outcome.
func (self *Session) Eval(ctx context.Context, line string) error {
	result, err := self.compiler.Compile(ctx, line)
	self.dump(result)
	if err != nil {
		self.report(err)
		return err
	}
	return self.send(ctx, result)
}

// Batch compiles every line of text and sends the ones that compiled, in
// order. The returned error reports how many lines failed.
func (self *Session) Batch(ctx context.Context, text string) error {
	lines := compiler.SplitLines(text)
	results, err := self.compiler.CompileBatch(ctx, lines)
	if results == nil && err != nil {
		return err
	}
	failures := make(map[int][]exc.Exception)
	var me compiler.MultiException
	if errors.As(err, &me) {
		for _, e := range me {
			var le *compiler.LineException
			if errors.As(e, &le) {
				failures[le.Line] = append(failures[le.Line], le.Exception)
			}
		}
	}

	failed := 0
	for _, result := range results {
		if result == nil {
			failed = failed + 1
			continue
		}
		self.dump(result)
		if caught, ok := failures[result.Line]; ok {
			failed = failed + 1
			fmt.Fprintf(self.out, "line %d: %s\n", result.Line, result.Source)
			fmt.Fprintln(self.out, self.renderer.Diagnostics(caught))
			continue
		}
		if err := self.send(ctx, result); err != nil {
			failed = failed + 1
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(lines))
	}
	return nil
}

func (self *Session) send(ctx context.Context, result *compiler.Result) error {
	if self.dryRun {
		fmt.Fprintln(self.out, self.renderer.Message(result.Message))
		return nil
	}
	if err := self.sender.Send(ctx, result.Message); err != nil {
		self.report(err)
		return err
	}
	fmt.Fprintln(self.out, self.renderer.Message(result.Message))
	return nil
}

func (self *Session) report(err error) {
	var me compiler.MultiException
	if errors.As(err, &me) {
		fmt.Fprintln(self.out, self.renderer.Diagnostics(me))
		return
	}
	var e exc.Exception
	if errors.As(err, &e) {
		fmt.Fprintln(self.out, self.renderer.Diagnostics([]exc.Exception{e}))
		return
	}
	fmt.Fprintln(self.out, self.renderer.Failure(err))
}

func (self *Session) dump(result *compiler.Result) {
	if result == nil {
		return
	}
	if self.dumpTokens {
		out, err := compiler.DumpTokens(result.Tokens)
		if err != nil {
			self.logger.Error("failed to dump tokens", slog.String("error", err.Error()))
		} else {
			fmt.Fprintln(self.out, string(out))
		}
	}
	if self.dumpTree && result.Program != nil {
		out, err := compiler.DumpTree(result.Program, result.Message)
		if err != nil {
			self.logger.Error("failed to dump tree", slog.String("error", err.Error()))
		} else {
			fmt.Fprintln(self.out, string(out))
		}
	}
}

// OpenTerminal starts a line editor and loads history from historyPath when
// it is not empty. The returned close function saves history.
func OpenTerminal(historyPath string, logger *slog.Logger) (*liner.State, func()) {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			if _, err := state.ReadHistory(f); err != nil {
				logger.Warn("failed to read history", slog.String("path", historyPath), slog.String("error", err.Error()))
			}
			_ = f.Close()
		}
	}
	return state, func() {
		if historyPath != "" {
			if f, err := os.Create(historyPath); err != nil {
				logger.Warn("failed to save history", slog.String("path", historyPath), slog.String("error", err.Error()))
			} else {
				if _, err := state.WriteHistory(f); err != nil {
					logger.Warn("failed to save history", slog.String("path", historyPath), slog.String("error", err.Error()))
				}
				_ = f.Close()
			}
		}
		_ = state.Close()
	}
}
