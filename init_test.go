package mwlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestInitDefaultsToConsoleRecorder(t *testing.T) {
	rt := newRuntime()
	sess, err := Init(rt, DefaultConfiguration())
	require.NoError(t, err)
	defer sess.Shutdown()

	_, ok := rt.GetRecorder().(*BackendRecorder)
	require.True(t, ok)
}

func TestInitWithInvalidConfigurationDegradesToConsole(t *testing.T) {
	rt := newRuntime()
	cfg := DefaultConfiguration()
	cfg.DefaultLevel = LogLevel(200)

	sess, err := Init(rt, cfg)
	require.NoError(t, err, "Init itself never fails; Validate's error only drives the degrade path")
	defer sess.Shutdown()

	_, ok := rt.GetRecorder().(*BackendRecorder)
	require.True(t, ok)
}

func TestInitFileModeWritesToConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	rt := newRuntime()
	cfg := DefaultConfiguration()
	cfg.AppID = "APP1"
	cfg.Modes = map[LogMode]bool{ModeFile: true}
	cfg.LogFilePath = dir

	sess, err := Init(rt, cfg)
	require.NoError(t, err)

	l := rt.GetLogger("CTX1")
	s := l.LogInfo(context.Background())
	s.String("hello")
	s.Close()

	sess.Shutdown()

	path := filepath.Join(dir, "APP1.dlt")
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestInitCompositeWhenMultipleModesConfigured(t *testing.T) {
	dir := t.TempDir()
	rt := newRuntime()
	cfg := DefaultConfiguration()
	cfg.AppID = "APP1"
	cfg.Modes = map[LogMode]bool{ModeFile: true, ModeConsole: true}
	cfg.LogFilePath = dir

	sess, err := Init(rt, cfg)
	require.NoError(t, err)
	defer sess.Shutdown()

	_, ok := rt.GetRecorder().(*CompositeRecorder)
	require.True(t, ok)
}

func TestInitWiresPrometheusRegistererIntoStatsSync(t *testing.T) {
	rt := newRuntime()
	reg := prometheus.NewRegistry()
	cfg := DefaultConfiguration()
	cfg.SlotCount = 1
	cfg.PrometheusRegisterer = reg

	sess, err := Init(rt, cfg)
	require.NoError(t, err)
	defer sess.Shutdown()

	l := rt.GetLogger("CTX1")
	blocked := l.LogInfo(context.Background())
	require.True(t, blocked.IsActive())
	defer blocked.Close()

	starved := l.LogInfo(context.Background())
	require.False(t, starved.IsActive(), "the only slot is held by blocked, so this one must be dropped")

	sess.stats.Sync()

	families, gerr := reg.Gather()
	require.NoError(t, gerr)

	var found bool
	for _, f := range families {
		if f.GetName() == "mwlog_dropped_no_slot_total" {
			found = true
			require.GreaterOrEqual(t, f.Metric[0].GetCounter().GetValue(), 1.0)
		}
	}
	require.True(t, found, "Init must register its Stats counters when given a Registerer")
}

func TestRunStatsReporterStopsOnContextCancel(t *testing.T) {
	rt := newRuntime()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		runStatsReporter(ctx, rt, rt.stats, 5*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runStatsReporter did not stop after context cancellation")
	}
}
