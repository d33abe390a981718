package mwlog

import (
	"context"
	"math"

	"github.com/windrift/mwlog/internal/dlt"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/text"
)

// incrementTextNumArgs mirrors the saturation guard internal/dlt's tryAdd
// applies on the binary path: the text formatter always writes its token
// (it never rejects an argument for capacity), but the argument count it
// renders must saturate at 255 the same way the DLT count does, rather than
// wrapping back to 0.
func incrementTextNumArgs(rec *record.Record) {
	if rec.Entry.NumArgs != math.MaxUint8 {
		rec.Entry.NumArgs++
	}
}

// reentryKey is the context.Context key carrying the "already inside the
// logging stack" flag. Go has no goroutine-local storage, and reaching for
// one via runtime.Stack parsing would be exactly the kind of TLS emulation
// Go idiomatically avoids; instead the guard travels explicitly as part of
// the call chain a caller already controls — see DESIGN.md's Open Question
// resolution for why a context value was chosen over alternatives.
type reentryKey struct{}

// WithinLogStack returns a context marked as already being inside a log
// statement. A LogStream started from such a context binds to the fallback
// recorder instead of the active one, breaking the recursion an
// argument-formatting callback that itself logs would otherwise cause.
func WithinLogStack(ctx context.Context) context.Context {
	return context.WithValue(ctx, reentryKey{}, true)
}

func isWithinLogStack(ctx context.Context) bool {
	v, _ := ctx.Value(reentryKey{}).(bool)
	return v
}

// LogStream is the scoped, move-only builder object returned by a Logger's
// level methods. It reserves a slot for the record on construction and
// flushes it on Close; each streamed argument is appended to every active
// backend's payload identically.
type LogStream struct {
	recorder Recorder
	handle   SlotHandle
	active   bool

	appID, ctxID record.Identifier
	level        LogLevel
}

// newLogStream starts a record against active if ctx is not already marked
// as inside the logging stack; otherwise it binds to fallback instead,
// realizing the re-entrancy guard. An inactive LogStream (IsActive false)
// is returned when the level is filtered or no slot is available;
// every method on it is then a no-op.
func newLogStream(ctx context.Context, active, fallback Recorder, appID, ctxID record.Identifier, level LogLevel) LogStream {
	r := active
	if ctx != nil && isWithinLogStack(ctx) {
		r = fallback
	}

	h, ok := r.StartRecord(appID, ctxID, level)
	return LogStream{
		recorder: r,
		handle:   h,
		active:   ok,
		appID:    appID,
		ctxID:    ctxID,
		level:    level,
	}
}

// IsActive reports whether this stream actually reserved a slot (the
// alternative being a filtered level or resource exhaustion).
func (s *LogStream) IsActive() bool {
	return s.active
}

// Close finalizes the stream: it stops the record iff a handle was
// acquired. Calling Close more than once, or on a moved-from/inactive
// stream, is a no-op.
func (s *LogStream) Close() {
	if !s.active {
		return
	}
	s.recorder.StopRecord(s.handle)
	s.active = false
}

// Flush stops the current record and immediately starts a new one with the
// same context and level, equivalent to Close followed by re-opening.
func (s *LogStream) Flush() {
	s.Close()
	h, ok := s.recorder.StartRecord(s.appID, s.ctxID, s.level)
	s.handle = h
	s.active = ok
}

func (s *LogStream) forEachActive(fn func(rec *record.Record, enc Encoding)) {
	if !s.active {
		return
	}
	s.recorder.ForEachActive(s.handle, fn)
}

// Bool streams a boolean argument into every active backend.
func (s *LogStream) Bool(v bool) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutBool(rec.Buf, v)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogBool(rec.Buf, &rec.Entry.NumArgs, v)
	})
	return s
}

// Uint8/16/32/64 and Int8/16/32/64 stream a fixed-width integer argument in
// the given representation.

func (s *LogStream) Uint8(v uint8, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedUint(rec.Buf, uint64(v), 8, repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogUint8(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Uint16(v uint16, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedUint(rec.Buf, uint64(v), 16, repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogUint16(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Uint32(v uint32, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedUint(rec.Buf, uint64(v), 32, repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogUint32(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Uint64(v uint64, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedUint(rec.Buf, v, 64, repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogUint64(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Int8(v int8, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedInt(rec.Buf, int64(v), repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogInt8(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Int16(v int16, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedInt(rec.Buf, int64(v), repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogInt16(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Int32(v int32, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedInt(rec.Buf, int64(v), repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogInt32(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

func (s *LogStream) Int64(v int64, repr IntegerRepresentation) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedInt(rec.Buf, v, repr)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogInt64(rec.Buf, &rec.Entry.NumArgs, v, repr)
	})
	return s
}

// Float32/64 stream an IEEE-754 float argument.

func (s *LogStream) Float32(v float32) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedFloat(rec.Buf, float64(v), 32, Decimal)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogFloat32(rec.Buf, &rec.Entry.NumArgs, v)
	})
	return s
}

func (s *LogStream) Float64(v float64) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutFormattedFloat(rec.Buf, v, 64, Decimal)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogFloat64(rec.Buf, &rec.Entry.NumArgs, v)
	})
	return s
}

// String streams a UTF-8 string argument, truncated to fit.
func (s *LogStream) String(v string) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutString(rec.Buf, v)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogString(rec.Buf, &rec.Entry.NumArgs, v)
	})
	return s
}

// RawBuffer streams a raw byte-buffer argument, truncated to fit.
func (s *LogStream) RawBuffer(v []byte) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		if enc == EncodingText {
			text.PutRawBuffer(rec.Buf, v)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogRawBuffer(rec.Buf, &rec.Entry.NumArgs, v)
	})
	return s
}

// System streams a platform system-logger message: its numeric code is
// stamped onto the record's metadata (the side channel a real system
// backend would read to make the underlying OS syslog call, mirroring the
// platform code field the original carried only for its own system
// backend), and its text is streamed as an ordinary string argument
// followed by the code as a plain uint16 argument, so every backend's wire
// format carries both halves of the message without a header change.
func (s *LogStream) System(v SystemMessage) *LogStream {
	s.forEachActive(func(rec *record.Record, enc Encoding) {
		rec.Entry.SystemSet = true
		rec.Entry.SystemID = v.Code
		if enc == EncodingText {
			text.PutString(rec.Buf, v.Text)
			incrementTextNumArgs(rec)
			text.PutFormattedUint(rec.Buf, uint64(v.Code), 16, Decimal)
			incrementTextNumArgs(rec)
			return
		}
		dlt.LogString(rec.Buf, &rec.Entry.NumArgs, v.Text)
		dlt.LogUint16(rec.Buf, &rec.Entry.NumArgs, v.Code, Decimal)
	})
	return s
}

// Hex streams v in the Hex8/16/32/64 or Bin8/16/32/64 wrapper types without
// a separate representation argument; any other type is ignored.
func (s *LogStream) Hex(v any) *LogStream {
	switch t := v.(type) {
	case Hex8:
		return s.Uint8(uint8(t), Hex)
	case Hex16:
		return s.Uint16(uint16(t), Hex)
	case Hex32:
		return s.Uint32(uint32(t), Hex)
	case Hex64:
		return s.Uint64(uint64(t), Hex)
	case Bin8:
		return s.Uint8(uint8(t), Binary)
	case Bin16:
		return s.Uint16(uint16(t), Binary)
	case Bin32:
		return s.Uint32(uint32(t), Binary)
	case Bin64:
		return s.Uint64(uint64(t), Binary)
	default:
		return s
	}
}
