// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package render formats diagnostics, messages and the interactive banner for
// the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gopkg.oscdbg.org/oscdbg.go/internal/exc"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

var diagnosticHeaders = []string{"Range", "Input", "Message", "Expected"}

// Renderer holds the styles for one output stream. The zero value renders
// without color.
type Renderer struct {
	color bool

	header  lipgloss.Style
	cell    lipgloss.Style
	input   lipgloss.Style
	address lipgloss.Style
	dim     lipgloss.Style
	hint    lipgloss.Style
	example lipgloss.Style
	failure lipgloss.Style
}

func New(color bool) *Renderer {
	r := &Renderer{
		color:   color,
		header:  lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Center),
		cell:    lipgloss.NewStyle().Padding(0, 1),
		input:   lipgloss.NewStyle().Padding(0, 1),
		address: lipgloss.NewStyle(),
		dim:     lipgloss.NewStyle(),
		hint:    lipgloss.NewStyle(),
		example: lipgloss.NewStyle(),
		failure: lipgloss.NewStyle(),
	}
	if color {
		r.input = r.input.Foreground(lipgloss.Color("9"))
		r.address = r.address.Foreground(lipgloss.Color("14")).Bold(true)
		r.dim = r.dim.Faint(true)
		r.hint = r.hint.Foreground(lipgloss.Color("10")).Faint(true)
		r.example = r.example.Foreground(lipgloss.Color("14")).Faint(true)
		r.failure = r.failure.Foreground(lipgloss.Color("9")).Bold(true)
	}
	return r
}

// Diagnostics renders exceptions as a table with one row per exception.
func (self *Renderer) Diagnostics(diagnostics []exc.Exception) string {
	rows := make([][]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		loc := d.Location()
		rows = append(rows, []string{
			loc.Span.String(),
			loc.Input,
			d.Message(),
			d.Expected(),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(diagnosticHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return self.header
			case col == 1:
				return self.input
			default:
				return self.cell
			}
		})
	return t.Render()
}

// Failure renders a one line error that is not tied to a position in the
// input.
func (self *Renderer) Failure(err error) string {
	return self.failure.Render("error:") + " " + err.Error()
}

// Message renders a message the way it is echoed after sending.
func (self *Renderer) Message(msg *wire.Message) string {
	var b strings.Builder
	b.WriteString(self.address.Render(msg.Address))
	b.WriteByte(' ')
	b.WriteString(self.dim.Render(msg.TypeTags()))
	for _, arg := range msg.Arguments {
		b.WriteByte(' ')
		b.WriteString(arg.String())
	}
	return b.String()
}

// Banner explains the input syntax at the start of an interactive session.
func (self *Renderer) Banner(host string, port int) string {
	lines := []string{
		self.dim.Bold(self.color).Render(fmt.Sprintf("Sending OSC messages to %s:%d", host, port)),
		self.dim.Render("Use the following format to send messages: <address> <value> <value> ..."),
		self.hint.Render("- <address> is the OSC path of the receiver, for example /s_new"),
		self.hint.Render(`- <value> is 1, -1_i64, 1.5, 1.5_f64, "text", 'c', true, false, Nil, Inf,`),
		self.hint.Render("  %[1,2,3] (blob), #RRGGBBAA (color), ~PPSSD1D2 (MIDI), @seconds.fraction, [nested, arrays]"),
		self.dim.Render(" . Example: ") + self.example.Render(`/s_new "default" -1 0 0 "freq" 850`),
		self.dim.Render(" . will be sent as ") + self.example.Render(`/s_new ,siiisi String("default") Int32(-1) Int32(0) Int32(0) String("freq") Int32(850)`),
		self.hint.Render("- to exit = :q"),
	}
	return strings.Join(lines, "\n")
}
