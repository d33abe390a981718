// Package text implements the human-readable counterpart of the DLT verbose
// formatter: space-separated ASCII fields terminated by a newline, rendered
// with the same argument-type coverage as the binary formatter.
package text

import (
	"strconv"
	"sync/atomic"

	"github.com/windrift/mwlog/internal/buffer"
	"github.com/windrift/mwlog/internal/dlt"
)

// writeToken appends s followed by a single trailing space. Every field and
// argument is written this way, so the last token's trailing space sits
// directly before the newline that ends the line (appended by Builder.Bind).
func writeToken(buf *buffer.Buffer, s string) {
	buf.Put([]byte(s))
	buf.Put([]byte(" "))
}

// TerminateLog appends the line-ending newline. It does not add a space:
// the preceding token already left one trailing.
func TerminateLog(buf *buffer.Buffer) {
	buf.Put([]byte("\n"))
}

// PutBool writes "True" or "False".
func PutBool(buf *buffer.Buffer, v bool) {
	if v {
		writeToken(buf, "True")
	} else {
		writeToken(buf, "False")
	}
}

// unsupportedCount is incremented whenever a caller asks for a
// representation that text formatting cannot express (octal/hex/binary on
// a signed or floating-point value); it mirrors the original's silent
// counter rather than failing the whole record. PutFormattedInt/
// PutFormattedFloat are called directly off producer goroutines (one per
// LogStream.Int*/Float* call), so unlike rec.Entry.NumArgs — which only the
// goroutine holding that record's slot ever touches — this counter is
// genuinely shared across concurrent callers and must be atomic, the same
// way every other hot-path counter in internal/stats is.
var unsupportedCount atomic.Uint64

// UnsupportedCount returns how many arguments fell back to decimal because
// their requested representation did not apply to their type.
func UnsupportedCount() uint64 {
	return unsupportedCount.Load()
}

func handleUnsupported() {
	unsupportedCount.Add(1)
}

// PutFormattedUint writes an unsigned integer in the requested
// representation: decimal, octal, hex, or MSB-first binary digits.
func PutFormattedUint(buf *buffer.Buffer, v uint64, bitWidth int, repr dlt.IntegerRepresentation) {
	switch repr {
	case dlt.ReprDecimal:
		writeToken(buf, strconv.FormatUint(v, 10))
	case dlt.ReprOctal:
		writeToken(buf, "0"+strconv.FormatUint(v, 8))
	case dlt.ReprHex:
		writeToken(buf, "0x"+strconv.FormatUint(v, 16))
	case dlt.ReprBinary:
		writeToken(buf, putBinaryFormattedNumber(v, bitWidth))
	default:
		writeToken(buf, strconv.FormatUint(v, 10))
	}
}

// putBinaryFormattedNumber renders the bitWidth low bits of v, most
// significant bit first. Binary rendering only ever applies to unsigned
// values; signed/float callers go through PutFormattedInt/PutFormattedFloat
// instead and fall back to decimal with an unsupported-count bump.
func putBinaryFormattedNumber(v uint64, bitWidth int) string {
	out := make([]byte, bitWidth)
	for i := 0; i < bitWidth; i++ {
		bit := (v >> uint(bitWidth-1-i)) & 1
		if bit == 1 {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return "0b" + string(out)
}

// PutFormattedInt writes a signed integer. Octal/hex/binary are not
// meaningful for signed values here; requesting them falls back to decimal
// and increments UnsupportedCount.
func PutFormattedInt(buf *buffer.Buffer, v int64, repr dlt.IntegerRepresentation) {
	if repr != dlt.ReprDecimal {
		handleUnsupported()
	}
	writeToken(buf, strconv.FormatInt(v, 10))
}

// PutFormattedFloat writes a float in decimal notation. Any non-decimal
// representation request is unsupported for floats.
func PutFormattedFloat(buf *buffer.Buffer, v float64, bitSize int, repr dlt.IntegerRepresentation) {
	if repr != dlt.ReprDecimal {
		handleUnsupported()
	}
	writeToken(buf, strconv.FormatFloat(v, 'g', -1, bitSize))
}

// PutString writes s verbatim as a single token. Embedded spaces are left
// as-is: the text format is for human/log-tool consumption, not re-parsing.
func PutString(buf *buffer.Buffer, s string) {
	writeToken(buf, s)
}

// PutRawBuffer renders data as a hex-pair token, e.g. "de:ad:be:ef".
func PutRawBuffer(buf *buffer.Buffer, data []byte) {
	const hex = "0123456789abcdef"
	out := make([]byte, 0, len(data)*3)
	for i, bb := range data {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hex[bb>>4], hex[bb&0xF])
	}
	writeToken(buf, string(out))
}
