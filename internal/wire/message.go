// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"strings"
)

// Message is a lowered line: the address of the receiver and its arguments.
type Message struct {
	Address   string
	Arguments []Value
}

func (m *Message) TypeTags() string {
	return TypeTags(m.Arguments)
}

func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.Address)
	b.WriteByte(' ')
	b.WriteString(m.TypeTags())
	for _, arg := range m.Arguments {
		b.WriteByte(' ')
		b.WriteString(arg.String())
	}
	return b.String()
}
