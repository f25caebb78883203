// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"gopkg.oscdbg.org/oscdbg.go/internal/compiler/oscl"
	"gopkg.oscdbg.org/oscdbg.go/internal/wire"
)

var dumpOptions = protojson.MarshalOptions{
	Multiline: true,
	Indent:    "  ",
}

// DumpTokens renders the token stream of a line as JSON.
func DumpTokens(tokens []oscl.Token) ([]byte, error) {
	list := make([]interface{}, 0, len(tokens))
	for _, t := range tokens {
		entry := map[string]interface{}{
			"type":  t.Type.String(),
			"span":  t.Span.String(),
			"value": t.Value,
			"token": t.String(),
		}
		if t.Type == oscl.TokenTypeIllegal {
			entry["expected"] = t.Label()
		}
		list = append(list, entry)
	}
	return marshalDump(map[string]interface{}{"tokens": list})
}

// DumpTree renders the parsed program and the message it lowers to as JSON.
// msg may be nil when lowering failed.
func DumpTree(program oscl.Program, msg *wire.Message) ([]byte, error) {
	statements := make([]interface{}, 0, len(program))
	for _, s := range program {
		statements = append(statements, fmt.Sprintf("%v", s))
	}
	tree := map[string]interface{}{
		"program": statements,
	}
	if msg != nil {
		args := make([]interface{}, 0, len(msg.Arguments))
		for _, arg := range msg.Arguments {
			args = append(args, dumpValue(arg))
		}
		tree["message"] = map[string]interface{}{
			"address":   msg.Address,
			"typeTags":  msg.TypeTags(),
			"arguments": args,
		}
	}
	return marshalDump(tree)
}

func marshalDump(m map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build dump: %w", err)
	}
	return dumpOptions.Marshal(s)
}

// dumpValue maps a wire value onto the JSON value model. 64 bit integers are
// rendered as strings since JSON numbers cannot hold them exactly.
func dumpValue(v wire.Value) interface{} {
	tag := string([]byte{v.TypeTag()})
	var out interface{}
	switch val := v.(type) {
	case wire.Int32:
		out = float64(val)
	case wire.Int64:
		out = strconv.FormatInt(int64(val), 10)
	case wire.Float32:
		out = float64(val)
	case wire.Float64:
		out = float64(val)
	case wire.Bool:
		out = bool(val)
	case wire.Char:
		out = string(rune(val))
	case wire.String:
		out = string(val)
	case wire.Nil, wire.Infinity:
		out = nil
	case wire.Blob:
		bytes := make([]interface{}, 0, len(val))
		for _, b := range val {
			bytes = append(bytes, float64(b))
		}
		out = bytes
	case wire.Array:
		items := make([]interface{}, 0, len(val))
		for _, item := range val {
			items = append(items, dumpValue(item))
		}
		out = items
	case wire.Color:
		out = fmt.Sprintf("#%02X%02X%02X%02X", val.Red, val.Green, val.Blue, val.Alpha)
	case wire.Midi:
		out = fmt.Sprintf("~%02X%02X%02X%02X", val.Port, val.Status, val.Data1, val.Data2)
	case wire.TimeTag:
		out = map[string]interface{}{
			"seconds":    float64(val.Seconds),
			"fractional": float64(val.Fractional),
		}
	default:
		out = v.String()
	}
	return map[string]interface{}{
		"tag":   tag,
		"value": out,
	}
}
