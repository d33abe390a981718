// Package drain implements the background slot-drainer loop: a single
// consumer goroutine that pulls flushed slot indices from a bounded MPSC
// queue, binds the message builder to each slot's record, and pushes every
// span the builder yields through a non-blocking writer until the record
// is fully written, then releases the slot.
package drain

import (
	"runtime"
	"time"

	"github.com/windrift/mwlog/internal/builder"
	"github.com/windrift/mwlog/internal/nbwriter"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/report"
	"github.com/windrift/mwlog/internal/stats"
)

// QueueCapacity bounds the number of flushed slots awaiting drain at once.
const QueueCapacity = 1024

// wouldBlockBudget is how many consecutive WouldBlock flushes the loop
// tolerates within one drain cycle before sleeping for backoff; below the
// budget it only yields the goroutine between attempts. It mirrors the
// original's per-cycle budget rather than spin-waiting forever on a slow
// descriptor.
const wouldBlockBudget = 32

// backoff is how long the loop sleeps after exhausting its would-block
// budget, matching the "~10ms" sleep-or-yield guidance.
const backoff = 10 * time.Millisecond

// Source supplies the record behind a slot index and reclaims the slot once
// the drainer is done with it. It is satisfied by a slot.Allocator[record.Record]
// plus a thin adapter, kept as an interface here so drain does not import
// the slot package's generic type directly.
type Source interface {
	Record(idx int) *record.Record
	Release(idx int)
}

// Loop drains queued slot indices until queue is closed. It is meant to run
// on its own goroutine, one per backend. Write errors are reported via
// internal/report; truncated records are only counted. st may be nil, in
// which case nothing is counted.
func Loop(queue <-chan int, src Source, b builder.Builder, w *nbwriter.Writer, st *stats.Stats) {
	for idx := range queue {
		drainOne(idx, src, b, w, st)
	}
}

func drainOne(idx int, src Source, b builder.Builder, w *nbwriter.Writer, st *stats.Stats) {
	rec := src.Record(idx)
	if b.Bind(rec) && st != nil {
		st.DroppedTooLong.Add(1)
	}

	for {
		span, ok := b.GetNextSpan()
		if !ok {
			break
		}
		if len(span) == 0 {
			continue
		}
		if !flushSpan(span, w) {
			report.Error("io", "non-blocking writer failed; dropping remainder of record")
			if st != nil {
				st.WriterErrors.Add(1)
			}
			break
		}
	}

	src.Release(idx)
}

// flushSpan pushes span through w until Done, returning false on a hard
// write error (the record's remainder is then dropped by the caller).
func flushSpan(span []byte, w *nbwriter.Writer) bool {
	w.SetSpan(span)
	blocked := 0
	for {
		res, err := w.Flush()
		if err != nil {
			return false
		}
		if res == nbwriter.Done {
			return true
		}
		blocked++
		if blocked >= wouldBlockBudget {
			time.Sleep(backoff)
			blocked = 0
			continue
		}
		runtime.Gosched()
	}
}
