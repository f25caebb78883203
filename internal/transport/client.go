// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package transport moves lowered messages over UDP using the OSC 1.0
// encoding.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hypebeast/go-osc/osc"

	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

// Sender delivers one message to its receiver.
type Sender interface {
	Send(ctx context.Context, msg *wire.Message) error
}

type Option func(o *options)

type options struct {
	logger *slog.Logger
}

func OptionWithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Client sends messages to a single host and port. Packets are encoded by
// Encode and delivered by the go-osc UDP client.
type Client struct {
	host   string
	port   int
	client *osc.Client
	logger *slog.Logger
}

func NewClient(host string, port int, opts ...Option) *Client {
	o := newOptions(opts)
	return &Client{
		host:   host,
		port:   port,
		client: osc.NewClient(host, port),
		logger: o.logger,
	}
}

func (self *Client) Send(ctx context.Context, msg *wire.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	packet, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := self.client.Send(packet); err != nil {
		return fmt.Errorf("failed to send %s to %s:%d: %w", msg.Address, self.host, self.port, err)
	}
	self.logger.Info("sent message",
		slog.String("address", msg.Address),
		slog.String("tags", msg.TypeTags()),
		slog.String("target", fmt.Sprintf("%s:%d", self.host, self.port)),
	)
	return nil
}
