package mwlog

import (
	"github.com/windrift/mwlog/internal/dlt"
	"github.com/windrift/mwlog/internal/queue"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/slot"
)

// RemoteRecorder writes DLT-encoded records directly into the wait-free
// dual-buffer queue that backs the cross-process shared-memory transport.
// The transport itself — the shared ring a collector process reads from —
// is an opaque collaborator per scope; this recorder only needs the same
// queue primitives §4.4 specifies, so it talks straight to
// internal/queue.AlternatingWriter instead of going through a drainer and
// file descriptor like the other backends.
type RemoteRecorder struct {
	allocator      *slot.Allocator[record.Record]
	writer         queue.Writer
	builder        *dlt.Builder
	ecuID          record.Identifier
	defaultLevel   LogLevel
	levelOverrides map[record.Identifier]LogLevel
}

// NewRemoteRecorder builds a RemoteRecorder over the given slot pool and
// queue writer (an *queue.AlternatingWriter in production, or a
// queue.DiscardWriter when no shared ring has been attached yet). The DLT
// builder is owned by the recorder and reused across every StopRecord call
// rather than constructed per call, since this recorder runs synchronously
// on the producer's own goroutine with no drainer to amortize an allocation
// against.
func NewRemoteRecorder(slotCount, payloadCapacity int, ecuID record.Identifier, defaultLevel LogLevel, writer queue.Writer) *RemoteRecorder {
	allocator := slot.New(slotCount, func() record.Record {
		return *record.New(payloadCapacity)
	})
	return &RemoteRecorder{
		allocator:    allocator,
		writer:       writer,
		builder:      dlt.NewBuilder(ecuID, processStart),
		ecuID:        ecuID,
		defaultLevel: defaultLevel,
	}
}

func (r *RemoteRecorder) effectiveLevel(ctxID record.Identifier) LogLevel {
	if lvl, ok := r.levelOverrides[ctxID]; ok {
		return lvl
	}
	return r.defaultLevel
}

func (r *RemoteRecorder) IsLogEnabled(ctxID record.Identifier, level LogLevel) bool {
	return level <= r.effectiveLevel(ctxID)
}

func (r *RemoteRecorder) StartRecord(appID, ctxID record.Identifier, level LogLevel) (SlotHandle, bool) {
	if !r.IsLogEnabled(ctxID, level) {
		return SlotHandle{}, false
	}
	idx, ok := r.allocator.Acquire()
	if !ok {
		return SlotHandle{}, false
	}
	rec := r.allocator.Get(idx)
	rec.Reset()
	rec.Entry.AppID = appID
	rec.Entry.CtxID = ctxID
	rec.Entry.Level = level

	var h SlotHandle
	h.Active[0] = true
	h.Index[0] = idx
	return h, true
}

func (r *RemoteRecorder) ForEachActive(h SlotHandle, fn func(rec *record.Record, enc Encoding)) {
	if !h.Active[0] {
		return
	}
	fn(r.allocator.Get(h.Index[0]), EncodingDLT)
}

// StopRecord serializes the finished record through the recorder's own DLT
// builder directly into a span acquired from the dual-buffer queue, then
// returns the slot to the allocator. If the queue has no room, the record
// is dropped — the producer (this call) never blocks waiting for the
// consumer to switch. dlt.Builder always yields exactly two spans (header,
// then payload), so the total size is known before a single byte is
// written, letting Acquire run first and every span copy straight into its
// destination with no intermediate buffer and no per-call allocation.
func (r *RemoteRecorder) StopRecord(h SlotHandle) {
	if !h.Active[0] {
		return
	}
	idx := h.Index[0]
	rec := r.allocator.Get(idx)

	r.builder.Bind(rec)

	var spans [2][]byte
	var n, total int
	for {
		span, ok := r.builder.GetNextSpan()
		if !ok {
			break
		}
		spans[n] = span
		total += len(span)
		n++
	}

	if dst, qh, ok := r.writer.Acquire(uint64(total)); ok {
		off := 0
		for i := 0; i < n; i++ {
			off += copy(dst[off:], spans[i])
		}
		r.writer.Release(qh)
	}

	r.allocator.Release(idx)
}
