// Package queue implements the wait-free dual-buffer queue that carries
// length-prefixed byte records from many producer goroutines to a single
// consumer without the consumer ever blocking a producer. Two linear
// regions alternate: producers fill whichever region is "active for
// writing"; the consumer switches the active region and then drains the
// region producers have stopped writing to.
package queue

import (
	"encoding/binary"
	"sync/atomic"
)

const (
	// MaxAcquireLength bounds a single Acquire call, mirroring the
	// protocol's 128 MiB ceiling on one record.
	MaxAcquireLength = 128 * 1024 * 1024

	// MaxConcurrentWriters bounds the number of producers that may be
	// mid-Acquire/Release on a single block at once.
	MaxConcurrentWriters = 64

	// lengthPrefixSize is the width of the length prefix written before
	// every record's bytes.
	lengthPrefixSize = 8
)

// MaxTotalCapacity is the largest data length a LinearBlock may safely use:
// large enough that 64 concurrent MaxAcquireLength-sized writers can never
// overflow the acquired-index counter.
const MaxTotalCapacity = ^uint64(0) - MaxConcurrentWriters*(MaxAcquireLength+lengthPrefixSize)

// LinearBlock is one half of the dual-buffer queue: a fixed byte region plus
// three atomic counters tracking how much of it has been claimed, how much
// has been fully written, and how many producers are mid-flight.
type LinearBlock struct {
	Data          []byte
	AcquiredIndex atomic.Uint64
	WrittenIndex  atomic.Uint64
	NumWriters    atomic.Uint64
}

// NewLinearBlock allocates a LinearBlock with the given fixed capacity.
func NewLinearBlock(capacity int) *LinearBlock {
	return &LinearBlock{Data: make([]byte, capacity)}
}

// Handle identifies an in-flight acquisition: the offset of its length
// prefix and the length of the payload that follows it.
type Handle struct {
	block  *LinearBlock
	start  uint64
	length uint64
}

// Acquire reserves length bytes (plus an internal length-prefix) in the
// block. It returns the writable payload span and a Handle to pass to
// Release, or ok=false if the block has no room left — callers must not
// retry within the same block; they wait for the consumer to switch.
func (b *LinearBlock) Acquire(length uint64) (span []byte, h Handle, ok bool) {
	if length > MaxAcquireLength {
		return nil, Handle{}, false
	}

	b.NumWriters.Add(1)

	total := length + lengthPrefixSize
	end := b.AcquiredIndex.Add(total)
	start := end - total

	if end > uint64(len(b.Data)) {
		b.AcquiredIndex.Add(-total)
		b.NumWriters.Add(^uint64(0))
		return nil, Handle{}, false
	}

	span = b.Data[start+lengthPrefixSize : start+lengthPrefixSize+length]
	return span, Handle{block: b, start: start, length: length}, true
}

// Release commits a previously acquired span: it writes the length prefix
// and makes the bytes visible to the consumer once it observes quiescence.
func (b *LinearBlock) Release(h Handle) {
	binary.LittleEndian.PutUint64(b.Data[h.start:h.start+lengthPrefixSize], h.length)
	b.WrittenIndex.Add(h.length + lengthPrefixSize)
	b.NumWriters.Add(^uint64(0))
}

// IsReleased reports whether every acquired span in the block has been
// released and no producer is still mid-flight — the precondition for the
// consumer to read it.
func (b *LinearBlock) IsReleased() bool {
	return b.NumWriters.Load() == 0 && b.WrittenIndex.Load() == b.AcquiredIndex.Load()
}

// drainReset zeroes the block's counters, making it ready to be the active
// write target again.
func (b *LinearBlock) drainReset() {
	b.AcquiredIndex.Store(0)
	b.WrittenIndex.Store(0)
}

// BlockID selects one of the two halves of an AlternatingBlock.
type BlockID uint8

const (
	BlockEven BlockID = 0
	BlockOdd  BlockID = 1
)

// AlternatingBlock pairs two LinearBlocks with a switch counter whose parity
// selects which half is active for writing.
type AlternatingBlock struct {
	Even        LinearBlock
	Odd         LinearBlock
	SwitchCount atomic.Uint32
}

// NewAlternatingBlock allocates both halves with the given per-half
// capacity.
func NewAlternatingBlock(capacityPerHalf int) *AlternatingBlock {
	ab := &AlternatingBlock{}
	ab.Even.Data = make([]byte, capacityPerHalf)
	ab.Odd.Data = make([]byte, capacityPerHalf)
	return ab
}

// ActiveID returns which block is currently active for writing.
func (ab *AlternatingBlock) ActiveID() BlockID {
	if ab.SwitchCount.Load()%2 == 0 {
		return BlockEven
	}
	return BlockOdd
}

func (ab *AlternatingBlock) block(id BlockID) *LinearBlock {
	if id == BlockEven {
		return &ab.Even
	}
	return &ab.Odd
}

// Opposite returns the other block id.
func Opposite(id BlockID) BlockID {
	if id == BlockEven {
		return BlockOdd
	}
	return BlockEven
}

// Writer is implemented by both AlternatingWriter and DiscardWriter so
// backends can be wired to a real transport or a no-op fallback
// interchangeably.
type Writer interface {
	Acquire(length uint64) (span []byte, h Handle, ok bool)
	Release(h Handle)
}

// AlternatingWriter is the producer-side view of an AlternatingBlock: it
// always resolves "active for writing" on every call, so it naturally
// follows the consumer's switches.
type AlternatingWriter struct {
	block *AlternatingBlock
}

// NewAlternatingWriter wraps block for producer use.
func NewAlternatingWriter(block *AlternatingBlock) *AlternatingWriter {
	return &AlternatingWriter{block: block}
}

// Acquire reserves length bytes in whichever half is currently active for
// writing.
func (w *AlternatingWriter) Acquire(length uint64) ([]byte, Handle, bool) {
	active := w.block.block(w.block.ActiveID())
	return active.Acquire(length)
}

// Release commits a span acquired via Acquire.
func (w *AlternatingWriter) Release(h Handle) {
	h.block.Release(h)
}

// DiscardWriter is the "no real writer installed" fallback. Its Acquire
// always reports no room via an empty, non-nil slice rather than a nil one,
// so callers observe "no space" uniformly without a nil-check special case.
type DiscardWriter struct{}

// Acquire always fails, returning an empty non-nil slice.
func (DiscardWriter) Acquire(length uint64) ([]byte, Handle, bool) {
	return []byte{}, Handle{}, false
}

// Release is a no-op: DiscardWriter never hands out a successful Handle.
func (DiscardWriter) Release(Handle) {}

// Reader is the single-consumer side of an AlternatingBlock.
type Reader struct {
	block *AlternatingBlock
}

// NewReader wraps block for single-consumer use. Switch must never be
// called concurrently with itself.
func NewReader(block *AlternatingBlock) *Reader {
	return &Reader{block: block}
}

// Switch flips which block is active for writing and returns the id of the
// block that was active *before* the switch — the one producers are now
// draining away from. The switch itself does not wait for producers to
// finish; callers must poll IsBlockReleased before reading.
func (r *Reader) Switch() BlockID {
	was := r.block.ActiveID()
	r.block.SwitchCount.Add(1)
	return was
}

// IsBlockReleased reports whether the given (now inactive) block has been
// fully released by every producer that touched it.
func (r *Reader) IsBlockReleased(id BlockID) bool {
	return r.block.block(id).IsReleased()
}

// LinearReader walks a released LinearBlock's written records sequentially.
type LinearReader struct {
	data   []byte
	length uint64
	offset uint64
}

// NewLinearReader creates a reader over a block's data, reading only the
// first writtenLength bytes (the block's WrittenIndex at the time it was
// released).
func NewLinearReader(data []byte, writtenLength uint64) *LinearReader {
	return &LinearReader{data: data, length: writtenLength}
}

// Next returns the next record's bytes, or ok=false once the block has been
// fully drained. A corrupt length prefix (exceeding MaxAcquireLength) drops
// the remainder of the block rather than reading past it.
func (lr *LinearReader) Next() (rec []byte, ok bool) {
	if lr.offset+lengthPrefixSize > lr.length {
		return nil, false
	}
	length := binary.LittleEndian.Uint64(lr.data[lr.offset : lr.offset+lengthPrefixSize])
	if length > MaxAcquireLength {
		lr.offset = lr.length
		return nil, false
	}
	start := lr.offset + lengthPrefixSize
	end := start + length
	if end > lr.length {
		lr.offset = lr.length
		return nil, false
	}
	lr.offset = end
	return lr.data[start:end], true
}

// DrainBlock returns a LinearReader over a released block and resets the
// block's counters so it is ready to become the active write target again.
// Callers must only call this after IsBlockReleased reports true and must
// finish reading before the block is reused.
func DrainBlock(b *LinearBlock) *LinearReader {
	written := b.WrittenIndex.Load()
	lr := NewLinearReader(b.Data, written)
	b.drainReset()
	return lr
}
