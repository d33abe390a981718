// Package mwlog is a high-throughput, multi-backend logging engine for
// safety-critical automotive middleware. Producer goroutines stream
// structured log records into lock-free/wait-free buffers; a background
// drainer per backend serializes those records into a DLT binary stream, a
// human-readable console/file stream, or a remote-collector transport.
package mwlog

import (
	"github.com/windrift/mwlog/internal/dlt"
	"github.com/windrift/mwlog/internal/record"
)

// LogLevel re-exports the record package's totally ordered verbosity enum
// as the public API surface.
type LogLevel = record.Level

const (
	LogLevelOff     = record.LevelOff
	LogLevelFatal   = record.LevelFatal
	LogLevelError   = record.LevelError
	LogLevelWarn    = record.LevelWarn
	LogLevelInfo    = record.LevelInfo
	LogLevelDebug   = record.LevelDebug
	LogLevelVerbose = record.LevelVerbose
)

// IntegerRepresentation selects how an integer argument is rendered by the
// text formatter (Decimal, Octal, Hex, Binary); the DLT encoder always
// carries the raw value regardless of representation.
type IntegerRepresentation = dlt.IntegerRepresentation

const (
	Decimal = dlt.ReprDecimal
	Octal   = dlt.ReprOctal
	Hex     = dlt.ReprHex
	Binary  = dlt.ReprBinary
)

// Hex8, Hex16, Hex32, Hex64 and Bin8, Bin16, Bin32, Bin64 are typed
// wrappers that let LogStream.Hex dispatch an unsigned integer straight to
// the matching representation without a separate option argument.
type (
	Hex8  uint8
	Hex16 uint16
	Hex32 uint32
	Hex64 uint64
	Bin8  uint8
	Bin16 uint16
	Bin32 uint32
	Bin64 uint64
)

// SystemMessage carries the platform system-logger's string-plus-numeric-code
// payload, the one leaf type specific to the system backend.
type SystemMessage struct {
	Text string
	Code uint16
}
