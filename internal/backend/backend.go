// Package backend implements C10: a single sink's reserve/flush slot
// machinery, wiring the slot allocator, the slot drainer, a message
// builder, and a non-blocking writer together into one owned pipeline per
// sink (file, console, remote, system).
package backend

import (
	"github.com/windrift/mwlog/internal/builder"
	"github.com/windrift/mwlog/internal/drain"
	"github.com/windrift/mwlog/internal/nbwriter"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/slot"
	"github.com/windrift/mwlog/internal/stats"
)

// allocatorSource adapts a *slot.Allocator[record.Record] to drain.Source.
type allocatorSource struct {
	a *slot.Allocator[record.Record]
}

func (s allocatorSource) Record(idx int) *record.Record { return s.a.Get(idx) }
func (s allocatorSource) Release(idx int)               { s.a.Release(idx) }


// Backend owns one sink's full pipeline: a fixed pool of reusable records,
// a bounded handoff queue to its drainer goroutine, and the non-blocking
// writer the drainer pushes bytes through.
type Backend struct {
	allocator *slot.Allocator[record.Record]
	queue     chan int
	drained   chan struct{}
	stats     *stats.Stats

	defaultLevel   record.Level
	levelOverrides map[record.Identifier]record.Level
}

// Config bundles what's needed to construct a Backend.
type Config struct {
	SlotCount       int
	PayloadCapacity int
	DefaultLevel    record.Level
	LevelOverrides  map[record.Identifier]record.Level
	Builder         builder.Builder
	Writer          *nbwriter.Writer
	Stats           *stats.Stats
}

// New constructs a Backend and starts its drainer goroutine. Callers must
// arrange for cfg.Writer's underlying descriptor to remain valid for the
// Backend's lifetime and call Close to stop the drainer.
func New(cfg Config) *Backend {
	allocator := slot.New(cfg.SlotCount, func() record.Record {
		return *record.New(cfg.PayloadCapacity)
	})

	b := &Backend{
		allocator:      allocator,
		queue:          make(chan int, drain.QueueCapacity),
		drained:        make(chan struct{}),
		stats:          cfg.Stats,
		defaultLevel:   cfg.DefaultLevel,
		levelOverrides: cfg.LevelOverrides,
	}

	go func() {
		drain.Loop(b.queue, allocatorSource{allocator}, cfg.Builder, cfg.Writer, cfg.Stats)
		close(b.drained)
	}()

	return b
}

// Close stops the drainer and blocks until it has finished draining every
// slot already queued. Records reserved but not yet flushed at the time of
// Close are lost, per the shutdown contract; the caller's writer/descriptor
// must stay valid until Close returns.
func (b *Backend) Close() {
	close(b.queue)
	<-b.drained
}

// EffectiveLevel returns the per-context override if present, else the
// backend's default level.
func (b *Backend) EffectiveLevel(ctxID record.Identifier) record.Level {
	if lvl, ok := b.levelOverrides[ctxID]; ok {
		return lvl
	}
	return b.defaultLevel
}

// IsLogEnabled reports whether level is at or above the effective
// threshold for ctxID (lower numeric level is more severe, per the
// LevelOff=0 < ... < LevelVerbose=6 ordering, so "enabled" means level <=
// effective).
func (b *Backend) IsLogEnabled(ctxID record.Identifier, level record.Level) bool {
	return level <= b.EffectiveLevel(ctxID)
}

// StartRecord reserves a slot for a new record if the level passes the
// filter and a slot is available. It returns the slot index and true on
// success.
func (b *Backend) StartRecord(appID, ctxID record.Identifier, level record.Level) (int, bool) {
	if !b.IsLogEnabled(ctxID, level) {
		return 0, false
	}
	idx, ok := b.allocator.Acquire()
	if !ok {
		if b.stats != nil {
			b.stats.DroppedNoSlot.Add(1)
		}
		return 0, false
	}
	rec := b.allocator.Get(idx)
	rec.Reset()
	rec.Entry.AppID = appID
	rec.Entry.CtxID = ctxID
	rec.Entry.Level = level
	return idx, true
}

// Record returns the record bound to an in-flight slot index, for the
// LogStream to stream arguments into.
func (b *Backend) Record(idx int) *record.Record {
	return b.allocator.Get(idx)
}

// StopRecord hands the finished slot to the drainer. If the drainer's queue
// is full, the record is dropped and the slot released immediately rather
// than blocking the producer — producers never block.
func (b *Backend) StopRecord(idx int) {
	select {
	case b.queue <- idx:
	default:
		if b.stats != nil {
			b.stats.DroppedOverflow.Add(1)
		}
		b.allocator.Release(idx)
	}
}
