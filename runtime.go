package mwlog

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/windrift/mwlog/internal/backend"
	"github.com/windrift/mwlog/internal/nbwriter"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/stats"
	"github.com/windrift/mwlog/internal/text"
	"github.com/windrift/mwlog/internal/wfstack"
)

const defaultContextName = "DFLT"

// recorderHolder lets an interface value be stored in an atomic.Pointer,
// which only holds concrete pointer types.
type recorderHolder struct {
	r Recorder
}

// Runtime is the process-wide singleton: the active recorder (installable
// via SetRecorder), an always-available console-only fallback recorder
// used for re-entrant log calls and the periodic statistics summary, and
// the logger registry. First-use-wins initialization of the process-wide
// instance is provided by the sync.Once in GetRuntime.
type Runtime struct {
	override atomic.Pointer[recorderHolder]
	fallback Recorder
	loggers  *wfstack.Stack[Logger]
	stats    *stats.Stats
	appID    atomic.Pointer[record.Identifier]
}

// SetAppID overrides the application identifier attached to every record
// started through this Runtime's loggers. It defaults to "NONE" until an
// Init call (or this method) sets it from a real Configuration.
func (rt *Runtime) SetAppID(appID string) {
	id := record.NewIdentifier(appID)
	rt.appID.Store(&id)
}

func (rt *Runtime) getAppID() record.Identifier {
	if p := rt.appID.Load(); p != nil {
		return *p
	}
	return record.NewIdentifier("NONE")
}

const loggerContainerCapacity = 32

func newFallbackConsoleRecorder() Recorder {
	fd := int(os.Stdout.Fd())
	_ = unix.SetNonblock(fd, true)

	w := nbwriter.New(fd, nbwriter.MaxChunkSizeSupportedByOS)
	b := backend.New(backend.Config{
		SlotCount:       16,
		PayloadCapacity: 512,
		DefaultLevel:    LogLevelInfo,
		Builder:         text.NewBuilder(record.NewIdentifier("NONE"), processStart),
		Writer:          w,
		Stats:           nil,
	})
	return NewBackendRecorder(b, EncodingText)
}

var processStart = time.Now()

func newRuntime() *Runtime {
	rt := &Runtime{
		fallback: newFallbackConsoleRecorder(),
		loggers:  wfstack.New[Logger](loggerContainerCapacity),
		stats:    stats.New(nil),
	}
	rt.loggers.TryPush(Logger{ctxID: record.NewIdentifier(defaultContextName), runtime: rt})
	return rt
}

var (
	globalRuntime     *Runtime
	globalRuntimeOnce sync.Once
)

// GetRuntime returns the process-wide Runtime, constructing its default
// console fallback on first call.
func GetRuntime() *Runtime {
	globalRuntimeOnce.Do(func() {
		globalRuntime = newRuntime()
	})
	return globalRuntime
}

// SetRecorder installs r as the active recorder, overriding the default.
// Swapping is safe at any time: the previous recorder's backends keep
// draining whatever they already queued, and GetRecorder is a single
// atomic load away from observing the new one.
func (rt *Runtime) SetRecorder(r Recorder) {
	rt.override.Store(&recorderHolder{r: r})
}

// GetRecorder returns the installed override if SetRecorder was called,
// else the default console fallback.
func (rt *Runtime) GetRecorder() Recorder {
	if h := rt.override.Load(); h != nil {
		return h.r
	}
	return rt.fallback
}

// GetFallbackRecorder returns the always-console recorder used for
// re-entrant log calls and the periodic statistics summary, regardless of
// what SetRecorder installed.
func (rt *Runtime) GetFallbackRecorder() Recorder {
	return rt.fallback
}

// GetLogger returns the Logger for ctxName, creating and registering one if
// it has not been seen before. Once the logger container's fixed capacity
// (32) is exhausted, every further unseen context falls back to the
// process-wide default logger ("DFLT") rather than failing.
func (rt *Runtime) GetLogger(ctxName string) *Logger {
	ctxID := record.NewIdentifier(ctxName)

	if found, ok := rt.loggers.Find(func(l *Logger) bool { return l.ctxID == ctxID }); ok {
		return found
	}

	if pushed, ok := rt.loggers.TryPush(Logger{ctxID: ctxID, runtime: rt}); ok {
		return pushed
	}

	defaultID := record.NewIdentifier(defaultContextName)
	found, _ := rt.loggers.Find(func(l *Logger) bool { return l.ctxID == defaultID })
	return found
}
