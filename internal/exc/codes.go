// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

const (
	CodeUnknownFatal         = "E0000"
	CodeMalformedString      = "E0001"
	CodeMalformedBlob        = "E0002"
	CodeInvalidBlobElement   = "E0003"
	CodeMalformedTimeTag     = "E0004"
	CodeMalformedChar        = "E0005"
	CodeMalformedColor       = "E0006"
	CodeMalformedMidi        = "E0007"
	CodeMalformedSuffix      = "E0008"
	CodeUnexpectedIdentifier = "E0009"
	CodeInvalidNumber        = "E0010"
	CodeUnexpectedToken      = "E0011"
	CodeUnexpectedEOF        = "E0012"
	CodeAddressFormat        = "E0013"
	CodeUnsupportedArgument  = "E0014"
)

var (
	// Lexical problems never stop the scanner; everything else is fatal for
	// the line being processed.
	defaultNonFatal = map[string]bool{
		CodeMalformedString:      true,
		CodeMalformedBlob:        true,
		CodeInvalidBlobElement:   true,
		CodeMalformedTimeTag:     true,
		CodeMalformedChar:        true,
		CodeMalformedColor:       true,
		CodeMalformedMidi:        true,
		CodeMalformedSuffix:      true,
		CodeUnexpectedIdentifier: true,
		CodeInvalidNumber:        true,
	}
)
