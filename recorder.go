package mwlog

import (
	"github.com/windrift/mwlog/internal/backend"
	"github.com/windrift/mwlog/internal/record"
)

// MaxRecorders bounds how many concrete backends a CompositeRecorder may
// fan a single logical record out to.
const MaxRecorders = 8

// Encoding selects which argument formatter a backend's records use.
type Encoding uint8

const (
	EncodingDLT  Encoding = iota
	EncodingText Encoding = 1
)

// SlotHandle is the opaque tag a LogStream carries between StartRecord and
// StopRecord. For a single-backend recorder, only index 0 is meaningful;
// for a CompositeRecorder, each index corresponds to one child backend, and
// Active[i] is set iff that child successfully reserved a slot.
type SlotHandle struct {
	Active [MaxRecorders]bool
	Index  [MaxRecorders]int
}

// anyActive reports whether at least one backend reserved a slot.
func (h SlotHandle) anyActive() bool {
	for _, a := range h.Active {
		if a {
			return true
		}
	}
	return false
}

// Recorder is the producer-facing API every backend (or a CompositeRecorder
// fanning out to several) implements.
type Recorder interface {
	StartRecord(appID, ctxID record.Identifier, level LogLevel) (SlotHandle, bool)
	StopRecord(h SlotHandle)
	IsLogEnabled(ctxID record.Identifier, level LogLevel) bool
	// ForEachActive invokes fn once per backend that holds an active slot
	// for h, passing that backend's record and the encoding its formatter
	// must use. A composite recorder's fan-out is realized entirely here:
	// every active child gets an identical sequence of fn calls.
	ForEachActive(h SlotHandle, fn func(rec *record.Record, enc Encoding))
}

// BackendRecorder is a single-sink Recorder: it wraps exactly one
// *backend.Backend and always occupies slot 0 of a SlotHandle.
type BackendRecorder struct {
	backend  *backend.Backend
	encoding Encoding
}

// NewBackendRecorder wraps b as a Recorder using the given argument
// encoding (DLT for file, text for console/system).
func NewBackendRecorder(b *backend.Backend, enc Encoding) *BackendRecorder {
	return &BackendRecorder{backend: b, encoding: enc}
}

func (r *BackendRecorder) StartRecord(appID, ctxID record.Identifier, level LogLevel) (SlotHandle, bool) {
	idx, ok := r.backend.StartRecord(appID, ctxID, level)
	if !ok {
		return SlotHandle{}, false
	}
	var h SlotHandle
	h.Active[0] = true
	h.Index[0] = idx
	return h, true
}

func (r *BackendRecorder) StopRecord(h SlotHandle) {
	if h.Active[0] {
		r.backend.StopRecord(h.Index[0])
	}
}

func (r *BackendRecorder) IsLogEnabled(ctxID record.Identifier, level LogLevel) bool {
	return r.backend.IsLogEnabled(ctxID, level)
}

func (r *BackendRecorder) ForEachActive(h SlotHandle, fn func(rec *record.Record, enc Encoding)) {
	if !h.Active[0] {
		return
	}
	fn(r.backend.Record(h.Index[0]), r.encoding)
}

// CompositeRecorder multiplexes one logical record across up to
// MaxRecorders concrete recorders: start_record asks each child, log/stop
// dispatch only to children that reserved a slot, and is_log_enabled is the
// OR across children.
type CompositeRecorder struct {
	children []Recorder
}

// NewCompositeRecorder builds a CompositeRecorder over children, which must
// number at most MaxRecorders; extras beyond that are silently not
// consulted, matching the original's fixed-capacity fan-out.
func NewCompositeRecorder(children ...Recorder) *CompositeRecorder {
	if len(children) > MaxRecorders {
		children = children[:MaxRecorders]
	}
	return &CompositeRecorder{children: children}
}

func (c *CompositeRecorder) StartRecord(appID, ctxID record.Identifier, level LogLevel) (SlotHandle, bool) {
	var h SlotHandle
	for i, child := range c.children {
		childHandle, ok := child.StartRecord(appID, ctxID, level)
		if !ok {
			continue
		}
		h.Active[i] = true
		h.Index[i] = childHandle.Index[0]
	}
	return h, h.anyActive()
}

func (c *CompositeRecorder) StopRecord(h SlotHandle) {
	for i, child := range c.children {
		if !h.Active[i] {
			continue
		}
		var childHandle SlotHandle
		childHandle.Active[0] = true
		childHandle.Index[0] = h.Index[i]
		child.StopRecord(childHandle)
	}
}

func (c *CompositeRecorder) IsLogEnabled(ctxID record.Identifier, level LogLevel) bool {
	for _, child := range c.children {
		if child.IsLogEnabled(ctxID, level) {
			return true
		}
	}
	return false
}

func (c *CompositeRecorder) ForEachActive(h SlotHandle, fn func(rec *record.Record, enc Encoding)) {
	for i, child := range c.children {
		if !h.Active[i] {
			continue
		}
		var childHandle SlotHandle
		childHandle.Active[0] = true
		childHandle.Index[0] = h.Index[i]
		child.ForEachActive(childHandle, fn)
	}
}
