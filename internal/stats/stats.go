// Package stats holds the atomic drop/error counters every backend
// increments on the hot path, mirrored into Prometheus counters for
// external scraping and periodically summarized by the statistics
// reporter.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats are the cheap hot-path counters. Each field is incremented with a
// single atomic add and never allocates.
type Stats struct {
	DroppedNoSlot   atomic.Uint64
	DroppedOverflow atomic.Uint64
	DroppedTooLong  atomic.Uint64
	WriterErrors    atomic.Uint64

	mirror *prometheusMirror
}

// New creates a Stats block and, if reg is non-nil, registers Prometheus
// counters mirroring each field under the mwlog_ namespace.
func New(reg prometheus.Registerer) *Stats {
	s := &Stats{}
	if reg != nil {
		s.mirror = newPrometheusMirror(reg)
	}
	return s
}

// Sync copies the current counter values into the registered Prometheus
// counters. It is cheap but not hot-path: call it from the periodic
// reporter tick, not per record.
func (s *Stats) Sync() {
	if s.mirror == nil {
		return
	}
	s.mirror.droppedNoSlot.Add(deltaUint64(&s.mirror.lastNoSlot, s.DroppedNoSlot.Load()))
	s.mirror.droppedOverflow.Add(deltaUint64(&s.mirror.lastOverflow, s.DroppedOverflow.Load()))
	s.mirror.droppedTooLong.Add(deltaUint64(&s.mirror.lastTooLong, s.DroppedTooLong.Load()))
	s.mirror.writerErrors.Add(deltaUint64(&s.mirror.lastWriterErrors, s.WriterErrors.Load()))
}

func deltaUint64(last *uint64, current uint64) float64 {
	d := current - *last
	*last = current
	return float64(d)
}

// Snapshot is a point-in-time copy of every counter, used by the periodic
// reporter to compute a delta since its previous tick.
type Snapshot struct {
	DroppedNoSlot   uint64
	DroppedOverflow uint64
	DroppedTooLong  uint64
	WriterErrors    uint64
}

// Snapshot captures the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		DroppedNoSlot:   s.DroppedNoSlot.Load(),
		DroppedOverflow: s.DroppedOverflow.Load(),
		DroppedTooLong:  s.DroppedTooLong.Load(),
		WriterErrors:    s.WriterErrors.Load(),
	}
}

// Sub returns the element-wise difference a - b, used to compute the delta
// between two snapshots.
func (a Snapshot) Sub(b Snapshot) Snapshot {
	return Snapshot{
		DroppedNoSlot:   a.DroppedNoSlot - b.DroppedNoSlot,
		DroppedOverflow: a.DroppedOverflow - b.DroppedOverflow,
		DroppedTooLong:  a.DroppedTooLong - b.DroppedTooLong,
		WriterErrors:    a.WriterErrors - b.WriterErrors,
	}
}

// IsZero reports whether every field in the snapshot is zero.
func (a Snapshot) IsZero() bool {
	return a == Snapshot{}
}

type prometheusMirror struct {
	droppedNoSlot    prometheus.Counter
	droppedOverflow  prometheus.Counter
	droppedTooLong   prometheus.Counter
	writerErrors     prometheus.Counter
	lastNoSlot       uint64
	lastOverflow     uint64
	lastTooLong      uint64
	lastWriterErrors uint64
}

func newPrometheusMirror(reg prometheus.Registerer) *prometheusMirror {
	m := &prometheusMirror{
		droppedNoSlot: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mwlog_dropped_no_slot_total",
			Help: "Records dropped because no slot was available.",
		}),
		droppedOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mwlog_dropped_overflow_total",
			Help: "Records dropped because the drainer's handoff queue was full.",
		}),
		droppedTooLong: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mwlog_dropped_too_long_total",
			Help: "Records truncated because they exceeded the maximum message size.",
		}),
		writerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mwlog_writer_errors_total",
			Help: "Non-blocking writer failures encountered by the slot drainer.",
		}),
	}
	reg.MustRegister(m.droppedNoSlot, m.droppedOverflow, m.droppedTooLong, m.writerErrors)
	return m
}
