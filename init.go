package mwlog

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/windrift/mwlog/internal/backend"
	"github.com/windrift/mwlog/internal/dlt"
	"github.com/windrift/mwlog/internal/nbwriter"
	"github.com/windrift/mwlog/internal/queue"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/report"
	"github.com/windrift/mwlog/internal/stats"
	"github.com/windrift/mwlog/internal/text"
)

// Session owns everything Init wires up: the composite recorder installed
// into the Runtime, and the background goroutines (per-backend drainers,
// already started by internal/backend.New; the periodic statistics
// reporter started here) that Shutdown joins.
type Session struct {
	runtime *Runtime
	closers []func()
	group   *errgroup.Group
	cancel  context.CancelFunc
	stats   *stats.Stats
}

// Init validates cfg, builds one backend per configured LogMode, wires them
// (singly, or fanned out through a CompositeRecorder when more than one
// mode is set) into rt's active recorder, and starts the periodic
// statistics reporter. Invalid configuration degrades to the console-only
// fallback rather than failing hard, per the library's never-abort
// contract: configuration and file-open errors go to the out-of-band
// reporter, and the returned error is always nil.
func Init(rt *Runtime, cfg Configuration) (*Session, error) {
	validatedLevels, err := cfg.Validate()
	if err != nil {
		report.Error("configuration", err.Error())
		cfg = DefaultConfiguration()
		validatedLevels = nil
	}

	rt.SetAppID(cfg.AppID)
	ecuID := record.NewIdentifier(cfg.ECUID)

	st := stats.New(cfg.PrometheusRegisterer)
	sess := &Session{runtime: rt, stats: st}

	var recorders []Recorder

	if cfg.Modes[ModeFile] {
		rec, closer, ferr := newFileRecorder(cfg, ecuID, validatedLevels, st)
		if ferr != nil {
			report.Error("io", ferr.Error())
		} else {
			recorders = append(recorders, rec)
			sess.closers = append(sess.closers, closer)
		}
	}
	if cfg.Modes[ModeConsole] {
		rec, closer := newConsoleRecorder(cfg, ecuID, validatedLevels, st)
		recorders = append(recorders, rec)
		sess.closers = append(sess.closers, closer)
	}
	if cfg.Modes[ModeRemote] {
		recorders = append(recorders, NewRemoteRecorder(cfg.SlotCount, cfg.SlotByteSize, ecuID, cfg.DefaultLevel, queue.DiscardWriter{}))
	}
	if cfg.Modes[ModeSystem] {
		rec, closer := newSystemRecorder(cfg, ecuID, validatedLevels, st)
		recorders = append(recorders, rec)
		sess.closers = append(sess.closers, closer)
	}

	if len(recorders) == 0 {
		rec, closer := newConsoleRecorder(DefaultConfiguration(), ecuID, nil, st)
		recorders = append(recorders, rec)
		sess.closers = append(sess.closers, closer)
	}

	var active Recorder
	if len(recorders) == 1 {
		active = recorders[0]
	} else {
		active = NewCompositeRecorder(recorders...)
	}
	rt.SetRecorder(active)

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	sess.group = g

	interval := time.Duration(cfg.StatsReportIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	g.Go(func() error {
		runStatsReporter(gctx, rt, st, interval)
		return nil
	})

	return sess, nil
}

// Shutdown stops the statistics reporter and closes every backend's
// drainer, waiting for queued-but-undrained work to finish draining.
// Records reserved but not yet flushed at the moment of Shutdown are lost,
// per the shutdown contract.
func (s *Session) Shutdown() {
	s.cancel()
	_ = s.group.Wait()
	for _, closer := range s.closers {
		closer()
	}
}

func newFileRecorder(cfg Configuration, ecuID record.Identifier, levels ValidatedContextLevels, st *stats.Stats) (Recorder, func(), error) {
	path := filepath.Join(cfg.LogFilePath, cfg.AppID+".dlt")
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_CREAT|unix.O_CLOEXEC, 0644)
	if err != nil {
		return nil, nil, newError(KindIO, "failed to create log file "+path, err)
	}
	_ = unix.SetNonblock(fd, true)

	w := nbwriter.New(fd, nbwriter.MaxChunkSizeSupportedByOS)
	b := backend.New(backend.Config{
		SlotCount:       cfg.SlotCount,
		PayloadCapacity: cfg.SlotByteSize,
		DefaultLevel:    cfg.DefaultLevel,
		LevelOverrides:  toRecordLevels(levels),
		Builder:         dlt.NewBuilder(ecuID, processStart),
		Writer:          w,
		Stats:           st,
	})
	return NewBackendRecorder(b, EncodingDLT), func() {
		b.Close()
		unix.Close(fd)
	}, nil
}

func newConsoleRecorder(cfg Configuration, ecuID record.Identifier, levels ValidatedContextLevels, st *stats.Stats) (Recorder, func()) {
	fd := int(os.Stdout.Fd())
	_ = unix.SetNonblock(fd, true)

	w := nbwriter.New(fd, nbwriter.MaxChunkSizeSupportedByOS)
	level := cfg.DefaultConsoleLevel
	if level == 0 && cfg.DefaultLevel != 0 {
		level = cfg.DefaultLevel
	}
	b := backend.New(backend.Config{
		SlotCount:       cfg.SlotCount,
		PayloadCapacity: cfg.SlotByteSize,
		DefaultLevel:    level,
		LevelOverrides:  toRecordLevels(levels),
		Builder:         text.NewBuilder(ecuID, processStart),
		Writer:          w,
		Stats:           st,
	})
	return NewBackendRecorder(b, EncodingText), b.Close
}

// newSystemRecorder builds the platform system-logger backend. This module
// has no portable syscall for the platform system log, so it is realized
// as a text-formatted console-equivalent sink — a documented
// simplification of the pluggable-interface Non-goal, not a missing
// feature: callers targeting a real system logger supply their own
// Recorder implementation and install it via Runtime.SetRecorder.
func newSystemRecorder(cfg Configuration, ecuID record.Identifier, levels ValidatedContextLevels, st *stats.Stats) (Recorder, func()) {
	return newConsoleRecorder(cfg, ecuID, levels, st)
}

func toRecordLevels(levels ValidatedContextLevels) map[record.Identifier]LogLevel {
	if levels == nil {
		return nil
	}
	out := make(map[record.Identifier]LogLevel, len(levels))
	for k, v := range levels {
		out[k] = v
	}
	return out
}

func runStatsReporter(ctx context.Context, rt *Runtime, st *stats.Stats, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := st.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sync()
			cur := st.Snapshot()
			delta := cur.Sub(last)
			last = cur
			if delta.IsZero() {
				continue
			}
			fallback := rt.GetFallbackRecorder()
			stream := newLogStream(nil, fallback, fallback, record.NewIdentifier(rt.getAppID().String()), record.NewIdentifier("STAT"), LogLevelWarn)
			stream.String("dropped_no_slot").Uint64(delta.DroppedNoSlot, Decimal)
			stream.String("dropped_overflow").Uint64(delta.DroppedOverflow, Decimal)
			stream.String("dropped_too_long").Uint64(delta.DroppedTooLong, Decimal)
			stream.String("writer_errors").Uint64(delta.WriterErrors, Decimal)
			stream.Close()
		}
	}
}
