package dlt

import (
	"encoding/binary"
	"math"

	"github.com/windrift/mwlog/internal/buffer"
)

// AddResult reports whether an argument's type-info word and bytes were
// fully appended to a record's payload. It mirrors the hot-path contract:
// formatters never allocate and never return an error, only a boolean.
type AddResult bool

const (
	NotAdded AddResult = false
	Added    AddResult = true
)

// tryAdd appends fn's encoded bytes only if numArgs has not already
// saturated at 255 and the encoding fits; on success it increments
// *numArgs. A partially-written argument is never left behind: encode
// writes directly into buf, which truncates silently, so a caller that
// cares about exactness should pre-check RemainingCapacity (the Log*
// functions below do this).
func tryAdd(buf *buffer.Buffer, numArgs *uint8, need int, encode func()) AddResult {
	if *numArgs == math.MaxUint8 {
		return NotAdded
	}
	if buf.RemainingCapacity() < need {
		return NotAdded
	}
	encode()
	*numArgs++
	return Added
}

func putTypeInfo(buf *buffer.Buffer, ti TypeInfo) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(ti))
	buf.Put(b[:])
}

// LogBool appends a boolean argument: type info, then one byte (0 or 1).
func LogBool(buf *buffer.Buffer, numArgs *uint8, v bool) AddResult {
	return tryAdd(buf, numArgs, 4+1, func() {
		putTypeInfo(buf, boolTypeInfo())
		if v {
			buf.Put([]byte{1})
		} else {
			buf.Put([]byte{0})
		}
	})
}

// LogUint8/16/32/64 and LogInt8/16/32/64 append a fixed-width integer
// argument in the given representation (affects only the type-info
// representation field, not the raw bytes).

func LogUint8(buf *buffer.Buffer, numArgs *uint8, v uint8, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+1, func() {
		putTypeInfo(buf, unsignedTypeInfo(1, repr))
		buf.Put([]byte{v})
	})
}

func LogUint16(buf *buffer.Buffer, numArgs *uint8, v uint16, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+2, func() {
		putTypeInfo(buf, unsignedTypeInfo(2, repr))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		buf.Put(b[:])
	})
}

func LogUint32(buf *buffer.Buffer, numArgs *uint8, v uint32, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+4, func() {
		putTypeInfo(buf, unsignedTypeInfo(4, repr))
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf.Put(b[:])
	})
}

func LogUint64(buf *buffer.Buffer, numArgs *uint8, v uint64, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+8, func() {
		putTypeInfo(buf, unsignedTypeInfo(8, repr))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf.Put(b[:])
	})
}

func LogInt8(buf *buffer.Buffer, numArgs *uint8, v int8, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+1, func() {
		putTypeInfo(buf, signedTypeInfo(1, repr))
		buf.Put([]byte{byte(v)})
	})
}

func LogInt16(buf *buffer.Buffer, numArgs *uint8, v int16, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+2, func() {
		putTypeInfo(buf, signedTypeInfo(2, repr))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Put(b[:])
	})
}

func LogInt32(buf *buffer.Buffer, numArgs *uint8, v int32, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+4, func() {
		putTypeInfo(buf, signedTypeInfo(4, repr))
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Put(b[:])
	})
}

func LogInt64(buf *buffer.Buffer, numArgs *uint8, v int64, repr IntegerRepresentation) AddResult {
	return tryAdd(buf, numArgs, 4+8, func() {
		putTypeInfo(buf, signedTypeInfo(8, repr))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		buf.Put(b[:])
	})
}

// LogFloat32/64 append an IEEE-754 float argument.

func LogFloat32(buf *buffer.Buffer, numArgs *uint8, v float32) AddResult {
	return tryAdd(buf, numArgs, 4+4, func() {
		putTypeInfo(buf, floatTypeInfo(4))
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Put(b[:])
	})
}

func LogFloat64(buf *buffer.Buffer, numArgs *uint8, v float64) AddResult {
	return tryAdd(buf, numArgs, 4+8, func() {
		putTypeInfo(buf, floatTypeInfo(8))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		buf.Put(b[:])
	})
}

// LogString appends a NUL-terminated, length-prefixed UTF-8 string
// argument, cropping s to fit both the 16-bit length field and the
// remaining payload capacity. The length field counts the NUL terminator.
func LogString(buf *buffer.Buffer, numArgs *uint8, s string) AddResult {
	const overhead = 4 + 2 + 1 // type info + u16 length + NUL
	room := buf.RemainingCapacity() - overhead
	if room < 0 {
		return NotAdded
	}
	if len(s) > room {
		s = s[:room]
	}
	if len(s)+1 > math.MaxUint16 {
		s = s[:math.MaxUint16-1]
	}

	return tryAdd(buf, numArgs, overhead+len(s), func() {
		putTypeInfo(buf, stringTypeInfo(EncodingUTF8))
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(s)+1))
		buf.Put(lb[:])
		buf.Put([]byte(s))
		buf.Put([]byte{0})
	})
}

// LogRawBuffer appends a length-prefixed raw byte-buffer argument, cropping
// data to fit the remaining payload capacity.
func LogRawBuffer(buf *buffer.Buffer, numArgs *uint8, data []byte) AddResult {
	const overhead = 4 + 2 // type info + u16 length
	room := buf.RemainingCapacity() - overhead
	if room < 0 {
		return NotAdded
	}
	if len(data) > room {
		data = data[:room]
	}
	if len(data) > math.MaxUint16 {
		data = data[:math.MaxUint16]
	}

	return tryAdd(buf, numArgs, overhead+len(data), func() {
		putTypeInfo(buf, rawTypeInfo())
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(len(data)))
		buf.Put(lb[:])
		buf.Put(data)
	})
}
