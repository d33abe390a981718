// Package nbwriter implements the non-blocking, chunked, resumable writer
// that drains a record's header/payload spans into a non-blocking file
// descriptor without ever blocking the calling goroutine on a partial
// write.
package nbwriter

import (
	"errors"
	"math"

	"golang.org/x/sys/unix"
)

// Result is the outcome of one Flush call.
type Result int

const (
	WouldBlock Result = iota
	Done
)

// MaxChunkSizeSupportedByOS is the conservative per-write ceiling: the
// platform that inspired this design (QNX) reserves headroom below
// SSIZE_MAX for an internal message header; on the platforms this module
// targets there is no such reservation, so the ceiling is simply the
// largest chunk a single write(2) call should be asked to carry.
const MaxChunkSizeSupportedByOS = math.MaxInt32

// Writer writes a single span to a non-blocking file descriptor in bounded
// chunks, tracking a resumable cursor across Flush calls.
type Writer struct {
	fd           int
	maxChunkSize int
	writeSyscall func(fd int, p []byte) (int, error)

	span    []byte
	flushed int
}

// New creates a Writer bound to fd, which must already be set non-blocking
// by the caller (see the file backend's fd setup). maxChunkSize is clamped
// to MaxChunkSizeSupportedByOS.
func New(fd int, maxChunkSize int) *Writer {
	if maxChunkSize <= 0 || maxChunkSize > MaxChunkSizeSupportedByOS {
		maxChunkSize = MaxChunkSizeSupportedByOS
	}
	return &Writer{fd: fd, maxChunkSize: maxChunkSize, writeSyscall: unix.Write}
}

// SetSpan re-initializes the writer's cursor for a new payload, discarding
// any unfinished progress on the previous one.
func (w *Writer) SetSpan(span []byte) {
	w.span = span
	w.flushed = 0
}

// Flush writes at most one chunk and advances the internal cursor. It
// returns Done once the whole span has been written, WouldBlock while bytes
// of the span remain (after a partial write, or when the descriptor reports
// EAGAIN/EWOULDBLOCK, which is not surfaced as an error — the drainer is
// expected to retry), and a non-nil error for any other write failure.
func (w *Writer) Flush() (Result, error) {
	left := len(w.span) - w.flushed
	if left <= 0 {
		return Done, nil
	}

	chunk := w.maxChunkSize
	if chunk > left {
		chunk = left
	}

	n, err := w.writeSyscall(w.fd, w.span[w.flushed:w.flushed+chunk])
	if n > 0 {
		w.flushed += n
	}
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return WouldBlock, nil
		}
		return WouldBlock, err
	}

	if w.flushed >= len(w.span) {
		return Done, nil
	}
	return WouldBlock, nil
}
