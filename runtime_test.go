package mwlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windrift/mwlog/internal/record"
)

func TestGetRuntimeIsASingleton(t *testing.T) {
	a := GetRuntime()
	b := GetRuntime()
	require.Same(t, a, b)
}

func TestRuntimeDefaultAppIDIsNone(t *testing.T) {
	rt := newRuntime()
	require.Equal(t, record.NewIdentifier("NONE"), rt.getAppID())
}

func TestRuntimeSetAppIDOverridesDefault(t *testing.T) {
	rt := newRuntime()
	rt.SetAppID("APP9")
	require.Equal(t, record.NewIdentifier("APP9"), rt.getAppID())
}

func TestRuntimeSetRecorderOverridesFallback(t *testing.T) {
	rt := newRuntime()
	fallback := rt.GetRecorder()
	custom := &recordingRecorder{enabled: true}
	rt.SetRecorder(custom)

	require.Same(t, custom, rt.GetRecorder())
	require.Same(t, fallback, rt.GetFallbackRecorder())
	require.NotSame(t, fallback, rt.GetRecorder())
}

func TestRuntimeGetLoggerReusesExistingContext(t *testing.T) {
	rt := newRuntime()
	a := rt.GetLogger("CTX1")
	b := rt.GetLogger("CTX1")
	require.Same(t, a, b)
}

func TestRuntimeGetLoggerFallsBackToDefaultWhenRegistryFull(t *testing.T) {
	rt := newRuntime()
	for i := 0; i < loggerContainerCapacity+4; i++ {
		rt.GetLogger(string(rune('A'+i%26)) + string(rune('0'+i%10)) + "XX")
	}
	overflow := rt.GetLogger("ZZZZOVERFLOWCTX")
	require.Equal(t, record.NewIdentifier(defaultContextName), overflow.ContextID())
}
