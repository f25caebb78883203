// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

// maxPacketSize is the largest UDP payload.
const maxPacketSize = 65535

// Handler is called for every message a Monitor receives, in arrival order.
type Handler func(msg *wire.Message)

// Monitor prints, or otherwise handles, every OSC message that arrives on a
// UDP socket.
type Monitor struct {
	conn    net.PacketConn
	handler Handler
	logger  *slog.Logger
}

// Listen opens a UDP socket on addr, for example "0.0.0.0:57120".
func Listen(addr string, handler Handler, opts ...Option) (*Monitor, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return NewMonitor(conn, handler, opts...), nil
}

// NewMonitor serves an already open socket. The Monitor takes ownership of
// conn and closes it when Run returns.
func NewMonitor(conn net.PacketConn, handler Handler, opts ...Option) *Monitor {
	o := newOptions(opts)
	return &Monitor{
		conn:    conn,
		handler: handler,
		logger:  o.logger,
	}
}

func (self *Monitor) Addr() net.Addr {
	return self.conn.LocalAddr()
}

// Run blocks until ctx is cancelled or the socket fails. Cancellation is not
// an error. Malformed packets are logged and skipped.
func (self *Monitor) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- self.serve()
	}()
	self.logger.Info("monitor started", slog.String("addr", self.conn.LocalAddr().String()))

	select {
	case <-ctx.Done():
		_ = self.conn.Close()
		<-done
		self.logger.Info("monitor stopped")
		return nil
	case err := <-done:
		_ = self.conn.Close()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return fmt.Errorf("monitor failed: %w", err)
	}
}

func (self *Monitor) serve() error {
	buf := make([]byte, maxPacketSize)
	for {
		n, from, err := self.conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		msgs, err := ParsePacket(buf[:n])
		if err != nil {
			self.logger.Warn("dropped packet",
				slog.String("from", from.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, msg := range msgs {
			self.handler(msg)
		}
	}
}
