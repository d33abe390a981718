// Package buffer implements the append-only payload byte buffer shared by
// every record in the system. It never reallocates after construction: a
// Buffer is sized once and lives for the process, cycling between Reset and
// Put/PutVia calls as records are reused.
package buffer

// Buffer is a fixed-capacity byte buffer. Appends that would exceed the
// capacity are silently truncated; callers observing a short write must
// decide for themselves whether that is fatal (it generally is not on the
// hot path).
type Buffer struct {
	data []byte
	cap  int
}

// New allocates a Buffer with the given fixed capacity. The backing array is
// allocated once; len(data) <= cap always, and Span() never returns more
// than cap bytes.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{
		data: make([]byte, 0, capacity),
		cap:  capacity,
	}
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return b.cap
}

// Len returns the number of bytes currently appended.
func (b *Buffer) Len() int {
	return len(b.data)
}

// RemainingCapacity returns how many more bytes can be appended before
// truncation kicks in.
func (b *Buffer) RemainingCapacity() int {
	return b.cap - len(b.data)
}

// Reset clears the buffer's length but keeps the backing array and capacity.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Span returns the buffer's current contents. The returned slice aliases the
// buffer's backing array and is only valid until the next mutating call.
func (b *Buffer) Span() []byte {
	return b.data
}

// Put appends as many bytes of p as fit, truncating silently. It returns the
// number of bytes actually appended.
func (b *Buffer) Put(p []byte) int {
	room := b.RemainingCapacity()
	if room <= 0 {
		return 0
	}
	if len(p) > room {
		p = p[:room]
	}
	b.data = append(b.data, p...)
	return len(p)
}

// Fill writes into the span handed to it and returns the number of bytes it
// actually used. It must never report more bytes than the length of the
// span it was given.
type Fill func(scratch []byte) int

// PutVia temporarily extends the buffer by min(reserveHint, remaining) bytes
// (or just remaining, if reserveHint is 0 or negative), hands the new span to
// fill, and shrinks the buffer back to only the bytes fill reports as used.
// It returns the number of bytes actually appended.
func (b *Buffer) PutVia(fill Fill, reserveHint int) int {
	room := b.RemainingCapacity()
	if room <= 0 {
		return 0
	}
	grow := room
	if reserveHint > 0 && reserveHint < room {
		grow = reserveHint
	}

	base := len(b.data)
	b.data = b.data[:base+grow]
	scratch := b.data[base : base+grow]

	used := fill(scratch)
	if used < 0 {
		used = 0
	}
	if used > grow {
		used = grow
	}
	b.data = b.data[:base+used]
	return used
}
