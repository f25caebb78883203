// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/pflag"

	"gopkg.oscdbg.org/oscdbg.go/internal/compiler"
	"gopkg.oscdbg.org/oscdbg.go/internal/config"
	"gopkg.oscdbg.org/oscdbg.go/internal/render"
	"gopkg.oscdbg.org/oscdbg.go/internal/repl"
	"gopkg.oscdbg.org/oscdbg.go/internal/transport"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

type opts struct {
	Config     string
	Host       string
	Port       int
	ListenPort int
	LogLevel   string
	NoColor    bool
	Monitor    bool
	File       string
	DumpTokens bool
	DumpTree   bool
	DryRun     bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	defaults := config.Default()
	op := &opts{}
	flags := pflag.NewFlagSet("oscdbg", pflag.ExitOnError)
	flags.StringVar(&op.Config, "config", "", "Path to a TOML or YAML config file.")
	flags.StringVar(&op.Host, "host", defaults.Host, "Host that messages are sent to.")
	flags.IntVar(&op.Port, "port", defaults.Port, "Port that messages are sent to.")
	flags.IntVar(&op.ListenPort, "listen-port", defaults.ListenPort, "Port to listen on in monitor mode.")
	flags.StringVar(&op.LogLevel, "log-level", defaults.LogLevel, "One of debug, info, warn or error.")
	flags.BoolVar(&op.NoColor, "no-color", false, "Disable colored output.")
	flags.BoolVar(&op.Monitor, "monitor", false, "Print every message received on the listen port.")
	flags.StringVar(&op.File, "file", "", "Send every line of FILE, or - for STDIN, and exit.")
	flags.BoolVar(&op.DumpTokens, "dump-tokens", false, "Output the token stream of each line")
	flags.BoolVar(&op.DumpTree, "dump-tree", false, "Output the parse tree and lowered message of each line")
	flags.BoolVar(&op.DryRun, "dry-run", false, "Compile and print messages without sending them.")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(op.Config, os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	applyFlags(flags, op, &cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("configuration resolved",
		slog.String("config", op.Config),
		slog.String("target", cfg.Host+":"+strconv.Itoa(cfg.Port)),
		slog.Int("listen_port", cfg.ListenPort),
	)
	renderer := render.New(!cfg.NoColor)

	if op.Monitor {
		if err := monitor(ctx, cfg, renderer, logger); err != nil {
			fmt.Fprintln(os.Stderr, renderer.Failure(err))
			os.Exit(1)
		}
		return
	}

	c, err := compiler.New(compiler.OptionWithLogger(logger))
	if err != nil {
		panic(err)
	}
	client := transport.NewClient(cfg.Host, cfg.Port, transport.OptionWithLogger(logger))
	session := repl.New(c, client, renderer, os.Stdout,
		repl.OptionWithLogger(logger),
		repl.OptionWithDryRun(op.DryRun),
		repl.OptionWithDumps(op.DumpTokens, op.DumpTree),
	)

	if op.File != "" {
		text, err := readInput(op.File)
		if err != nil {
			fmt.Fprintln(os.Stderr, renderer.Failure(err))
			os.Exit(1)
		}
		if err := session.Batch(ctx, text); err != nil {
			fmt.Fprintln(os.Stderr, renderer.Failure(err))
			os.Exit(1)
		}
		return
	}

	history, err := cfg.HistoryPath()
	if err != nil {
		logger.Warn("history disabled", slog.String("error", err.Error()))
	}
	fmt.Println(renderer.Banner(cfg.Host, cfg.Port))
	terminal, closeTerminal := repl.OpenTerminal(history, logger)
	err = session.Run(ctx, terminal)
	closeTerminal()
	if err != nil {
		fmt.Fprintln(os.Stderr, renderer.Failure(err))
		os.Exit(1)
	}
}

// applyFlags overrides configuration with the flags that were set explicitly.
func applyFlags(flags *pflag.FlagSet, op *opts, cfg *config.Config) {
	if flags.Changed("host") {
		cfg.Host = op.Host
	}
	if flags.Changed("port") {
		cfg.Port = op.Port
	}
	if flags.Changed("listen-port") {
		cfg.ListenPort = op.ListenPort
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = op.LogLevel
	}
	if flags.Changed("no-color") {
		cfg.NoColor = op.NoColor
	}
}

func monitor(ctx context.Context, cfg config.Config, renderer *render.Renderer, logger *slog.Logger) error {
	addr := "0.0.0.0:" + strconv.Itoa(cfg.ListenPort)
	m, err := transport.Listen(addr, func(msg *wire.Message) {
		fmt.Println(renderer.Message(msg))
	}, transport.OptionWithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Printf("Listening for OSC messages on %s (UDP)...\n", addr)
	return m.Run(ctx)
}

func readInput(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}
