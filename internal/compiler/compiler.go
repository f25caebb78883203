// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"gopkg.oscdbg.org/oscdbg.go/internal/compiler/oscl"
	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

// Compiler turns lines of the OSC line language into messages.
type Compiler interface {
	// Compile processes one line. On failure the error is a MultiException
	// and the result still carries whatever stages completed.
	Compile(ctx context.Context, source string) (*Result, error)
	// CompileBatch processes many lines concurrently. Results are returned in
	// input order. If any line failed the error is a MultiException of
	// LineException values.
	CompileBatch(ctx context.Context, lines []Line) ([]*Result, error)
}

type Option func(c *compiler) error

func OptionWithMaxConcurrency(max int) Option {
	return func(c *compiler) error {
		if max < 1 {
			return fmt.Errorf("max concurrency must be at least 1, got %d", max)
		}
		c.MaxConcurrency = max
		return nil
	}
}

func OptionWithLogger(logger *slog.Logger) Option {
	return func(c *compiler) error {
		c.Logger = logger
		return nil
	}
}

// OptionWithExcReporter installs a reporter that receives every exception
// produced by CompileBatch. It must be safe for concurrent use.
func OptionWithExcReporter(reporter exc.Reporter) Option {
	return func(c *compiler) error {
		c.Reporter = reporter
		return nil
	}
}

func New(opts ...Option) (Compiler, error) {
	c := &compiler{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.MaxConcurrency == 0 {
		max := runtime.GOMAXPROCS(-1)
		cpus := runtime.NumCPU()
		if max > cpus {
			max = cpus
		}
		c.MaxConcurrency = max
	}
	if c.Semaphore == nil {
		c.Semaphore = newSemaphore(c.MaxConcurrency)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Reporter == nil {
		c.Reporter = exc.NewConcurrentReporter(nil)
	}
	return c, nil
}

type compiler struct {
	MaxConcurrency int
	Semaphore      *semaphore
	Logger         *slog.Logger
	Reporter       exc.Reporter
}

// Result holds the output of every stage that completed for one line.
type Result struct {
	// Line is the 1-based position of the source in a batch, or 0.
	Line    int
	Source  string
	Tokens  []oscl.Token
	Program oscl.Program
	Message *wire.Message
}

// Line is one numbered line of batch input.
type Line struct {
	Number int
	Text   string
}

// SplitLines numbers the lines of text and drops blank lines and lines that
// start with '#'.
func SplitLines(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for x, l := range raw {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, Line{Number: x + 1, Text: strings.TrimRight(l, "\r")})
	}
	return lines
}

func (self *compiler) Compile(ctx context.Context, source string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reporter := exc.NewReporter(nil)
	result := &Result{Source: source}

	result.Tokens = oscl.NewLexerOSCL(reporter).Lex(source)
	lexical := reporter.Reported()
	self.Logger.Debug("scanned line", slog.Int("tokens", len(result.Tokens)), slog.Int("diagnostics", len(lexical)))

	program, err := oscl.NewParserOSCL(exc.NewReporter(nil)).Parse(oscl.NewStream(result.Tokens))
	if err != nil {
		// The lexical diagnostics usually explain why the parse failed and
		// point at the right place, so they take priority.
		if len(lexical) > 0 {
			return result, MultiException(lexical)
		}
		return result, MultiException{err.(exc.Exception)}
	}
	result.Program = program
	if len(lexical) > 0 {
		return result, MultiException(lexical)
	}

	msg, err := oscl.LowerProgram(program)
	if err != nil {
		loc := exc.Location{}
		if first := result.Tokens[0]; first.Type != oscl.TokenTypeEOF {
			loc = exc.Location{Span: first.Span, Input: first.Value}
		}
		return result, MultiException{exc.Wrap(loc, exc.CodeAddressFormat, err)}
	}
	result.Message = msg
	self.Logger.Debug("compiled line", slog.String("address", msg.Address), slog.String("tags", msg.TypeTags()))
	return result, nil
}

func (self *compiler) CompileBatch(ctx context.Context, lines []Line) ([]*Result, error) {
	results := make(chan lineResult)
	for x, line := range lines {
		go func(x int, line Line) {
			result, caught := self.compileLine(ctx, line)
			results <- lineResult{index: x, result: result, caught: caught}
		}(x, line)
	}

	ordered := make([]*Result, len(lines))
	caught := make([][]exc.Exception, len(lines))
	var cancelled error
	for x := 0; x < len(lines); x = x + 1 {
		select {
		case <-ctx.Done():
			// keep draining so that no worker blocks forever on send
			cancelled = ctx.Err()
			<-results
		case r := <-results:
			ordered[r.index] = r.result
			caught[r.index] = r.caught
		}
	}
	if cancelled != nil {
		return nil, cancelled
	}

	failed := 0
	all := make(MultiException, 0)
	for _, c := range caught {
		if len(c) > 0 {
			failed = failed + 1
		}
		all = append(all, c...)
	}
	self.Logger.Info("compiled batch", slog.Int("lines", len(lines)), slog.Int("failed", failed))
	if len(all) > 0 {
		return ordered, all
	}
	return ordered, nil
}

// compileLine returns the exceptions of the line as LineException values and
// also gives them to the batch reporter.
func (self *compiler) compileLine(ctx context.Context, line Line) (*Result, []exc.Exception) {
	var result *Result
	err := self.Semaphore.Acquire(ctx)
	if err == nil {
		result, err = self.Compile(ctx, line.Text)
		self.Semaphore.Release()
	}
	if result != nil {
		result.Line = line.Number
	}
	if err == nil {
		return result, nil
	}
	var caught []exc.Exception
	if me, ok := err.(MultiException); ok {
		caught = make([]exc.Exception, 0, len(me))
		for _, e := range me {
			caught = append(caught, &LineException{Line: line.Number, Exception: e})
		}
	} else {
		caught = []exc.Exception{&LineException{Line: line.Number, Exception: exc.WrapUnknown(exc.Location{}, err)}}
	}
	for _, e := range caught {
		_ = self.Reporter.Report(e)
	}
	return result, caught
}

type lineResult struct {
	index  int
	result *Result
	caught []exc.Exception
}

// LineException attaches a batch line number to an exception.
type LineException struct {
	exc.Exception
	Line int
}

func (self *LineException) Error() string {
	return fmt.Sprintf("line %d: %s", self.Line, self.Exception.Error())
}

func (self *LineException) Unwrap() error {
	return self.Exception
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}
