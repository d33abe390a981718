package dlt

import (
	"encoding/binary"
	"time"

	"github.com/windrift/mwlog/internal/record"
)

// htyp (standard header type) bit flags. Verbose mode always sets all four.
const (
	htypUEH  byte = 0x01 // use extended header
	htypWEID byte = 0x04 // with ECU id
	htypWTMS byte = 0x10 // with timestamp
	htypVERS byte = 0x20 // protocol version 1
)

const (
	storageHeaderLen  = 16
	standardHeaderLen = 4
	standardExtraLen  = 8
	extendedHeaderLen = 10
	headerTotalLen    = storageHeaderLen + standardHeaderLen + standardExtraLen + extendedHeaderLen

	// MaxMessageLen is the largest DLT message (header + payload) the
	// 16-bit len field can address.
	MaxMessageLen = 65535

	// storageECU is the literal ECU tag written into the storage header;
	// unlike the standard-extra header's ecu field, this is a fixed
	// constant, not the configured ECU id.
	storageECU = "ECU\x00"
)

var storageSignature = [4]byte{'D', 'L', 'T', 0x01}

func putStorageHeader(dst []byte, now time.Time) {
	copy(dst[0:4], storageSignature[:])
	sec := uint32(now.Unix())
	usec := int32(now.Nanosecond() / 1000)
	binary.LittleEndian.PutUint32(dst[4:8], sec)
	binary.LittleEndian.PutUint32(dst[8:12], uint32(usec))
	copy(dst[12:16], storageECU)
}

func putStandardHeader(dst []byte, mcnt byte, length uint16) {
	dst[0] = htypUEH | htypWEID | htypWTMS | htypVERS
	dst[1] = mcnt
	binary.BigEndian.PutUint16(dst[2:4], length)
}

func putStandardExtra(dst []byte, ecu record.Identifier, tmsp uint32) {
	copy(dst[0:4], ecu[:])
	binary.BigEndian.PutUint32(dst[4:8], tmsp)
}

// msin composes message type (LOG=0), log level and the verbose bit:
// (messageType<<1) | (level&0x7)<<4 | verbose.
func msinFor(level record.Level) byte {
	const messageType = 0 // LOG
	const verbose = 1
	return byte(messageType<<1) | (byte(level)&0x7)<<4 | verbose
}

func putExtendedHeader(dst []byte, level record.Level, numArgs uint8, appID, ctxID record.Identifier) {
	dst[0] = msinFor(level)
	dst[1] = numArgs
	copy(dst[2:6], appID[:])
	copy(dst[6:10], ctxID[:])
}

// builderState tracks the Header -> Payload -> Reinitialize -> Header cycle.
type builderState uint8

const (
	stateIdle builderState = iota
	stateHeader
	statePayload
	stateDone
)

// Builder assembles the fixed header around one bound record's payload and
// yields it as two spans (header, then payload) via GetNextSpan, letting
// the drainer push each through the writer without copying.
type Builder struct {
	ecuID        record.Identifier
	processStart time.Time
	mcnt         uint8

	header  [headerTotalLen]byte
	payload []byte
	state   builderState
}

// NewBuilder creates a builder. ecuID is the configured ECU id written into
// the standard-extra header; processStart anchors the monotonic tmsp clock.
func NewBuilder(ecuID record.Identifier, processStart time.Time) *Builder {
	return &Builder{ecuID: ecuID, processStart: processStart, state: stateIdle}
}

// Bind prepares the builder to emit rec: it writes the header into the
// builder's scratch array and captures the payload span, truncating the
// payload if header+payload would exceed MaxMessageLen. It reports whether
// that truncation happened, so the caller can count the dropped tail as a
// resource error.
func (b *Builder) Bind(rec *record.Record) (truncated bool) {
	payload := rec.Buf.Span()
	// len excludes the storage header, so the budget for it is
	// MaxMessageLen minus the storage header and the other three headers.
	maxPayload := MaxMessageLen - storageHeaderLen - standardHeaderLen - standardExtraLen - extendedHeaderLen
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
		truncated = true
	}

	lenField := uint16(standardHeaderLen + standardExtraLen + extendedHeaderLen + len(payload))
	tmsp := uint32(time.Since(b.processStart) / (100 * time.Microsecond))

	putStorageHeader(b.header[0:storageHeaderLen], time.Now())
	off := storageHeaderLen
	putStandardHeader(b.header[off:off+standardHeaderLen], b.mcnt, lenField)
	off += standardHeaderLen
	putStandardExtra(b.header[off:off+standardExtraLen], b.ecuID, tmsp)
	off += standardExtraLen
	putExtendedHeader(b.header[off:off+extendedHeaderLen], rec.Entry.Level, rec.Entry.NumArgs, rec.Entry.AppID, rec.Entry.CtxID)

	b.mcnt++
	b.payload = payload
	b.state = stateHeader
	return truncated
}

// GetNextSpan yields the header span, then the payload span, then ok=false
// — resetting the builder back to idle, ready for the next Bind.
func (b *Builder) GetNextSpan() (span []byte, ok bool) {
	switch b.state {
	case stateHeader:
		b.state = statePayload
		return b.header[:], true
	case statePayload:
		b.state = stateDone
		return b.payload, true
	default:
		b.state = stateIdle
		b.payload = nil
		return nil, false
	}
}
