package text

import (
	"time"

	"github.com/windrift/mwlog/internal/record"
)

// builderState mirrors dlt.Builder's Header -> Payload -> Reinitialize ->
// Header cycle: here there is a single combined span (the whole line is
// built into one scratch buffer), so the cycle only has two productive
// states.
type builderState uint8

const (
	stateIdle builderState = iota
	stateLine
	stateDone
)

// Builder assembles one text-format log line: a fixed header followed by
// whatever argument tokens were written into the record's payload while
// the LogStream was open, followed by a terminating newline.
type Builder struct {
	ecuID        record.Identifier
	processStart time.Time

	line  []byte
	state builderState
}

// NewBuilder creates a text builder. ecuID is the configured ECU id;
// processStart anchors the elapsed-milliseconds field.
func NewBuilder(ecuID record.Identifier, processStart time.Time) *Builder {
	return &Builder{ecuID: ecuID, processStart: processStart}
}

// Bind renders the header in front of rec's already-formatted argument
// payload and terminates the line with a newline, producing the complete
// span GetNextSpan will hand back. It never truncates — the text line has
// no wire-format size ceiling of its own, only whatever capacity the
// record's own payload buffer already enforced when its arguments were
// streamed in — so it always reports truncated=false.
func (b *Builder) Bind(rec *record.Record) (truncated bool) {
	var header []byte
	header = appendToken(header, formatTimestamp(time.Now()))
	header = appendToken(header, formatElapsedMillis(b.processStart))
	header = appendToken(header, "000")
	header = appendToken(header, b.ecuID.String())
	header = appendToken(header, rec.Entry.AppID.String())
	header = appendToken(header, rec.Entry.CtxID.String())
	header = appendToken(header, "log")
	header = appendToken(header, rec.Entry.Level.String())
	header = appendToken(header, "verbose")
	header = appendToken(header, itoa(int(rec.Entry.NumArgs)))

	line := make([]byte, 0, len(header)+rec.Buf.Len()+1)
	line = append(line, header...)
	line = append(line, rec.Buf.Span()...)
	line = append(line, '\n')

	b.line = line
	b.state = stateLine
	return false
}

// GetNextSpan yields the whole rendered line once, then ok=false,
// resetting the builder to idle.
func (b *Builder) GetNextSpan() (span []byte, ok bool) {
	switch b.state {
	case stateLine:
		b.state = stateDone
		return b.line, true
	default:
		b.state = stateIdle
		b.line = nil
		return nil, false
	}
}

func appendToken(dst []byte, s string) []byte {
	dst = append(dst, s...)
	dst = append(dst, ' ')
	return dst
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006/01/02 15:04:05.000000")
}

func formatElapsedMillis(processStart time.Time) string {
	return itoa(int(time.Since(processStart) / time.Millisecond))
}
