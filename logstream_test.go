package mwlog

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/windrift/mwlog/internal/backend"
	"github.com/windrift/mwlog/internal/nbwriter"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/text"
)

type recordingRecorder struct {
	startCalls int
	stopCalls  int
	handle     SlotHandle
	rec        *record.Record
	enc        Encoding
	enabled    bool
}

func (r *recordingRecorder) StartRecord(appID, ctxID record.Identifier, level LogLevel) (SlotHandle, bool) {
	r.startCalls++
	if !r.enabled {
		return SlotHandle{}, false
	}
	var h SlotHandle
	h.Active[0] = true
	return h, true
}

func (r *recordingRecorder) StopRecord(h SlotHandle) { r.stopCalls++ }

func (r *recordingRecorder) IsLogEnabled(ctxID record.Identifier, level LogLevel) bool {
	return r.enabled
}

func (r *recordingRecorder) ForEachActive(h SlotHandle, fn func(rec *record.Record, enc Encoding)) {
	if r.rec != nil {
		fn(r.rec, r.enc)
	}
}

func TestLogStreamInactiveWhenFiltered(t *testing.T) {
	active := &recordingRecorder{enabled: false}
	fallback := &recordingRecorder{enabled: true}

	s := newLogStream(context.Background(), active, fallback, record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.False(t, s.IsActive())
	s.Close() // no-op, must not panic or call StopRecord
	require.Equal(t, 0, active.stopCalls)
}

func TestLogStreamCloseIsIdempotent(t *testing.T) {
	active := &recordingRecorder{enabled: true}
	s := newLogStream(context.Background(), active, active, record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.True(t, s.IsActive())

	s.Close()
	s.Close()
	require.Equal(t, 1, active.stopCalls)
	require.False(t, s.IsActive())
}

func TestLogStreamReentrancyBindsToFallback(t *testing.T) {
	active := &recordingRecorder{enabled: true}
	fallback := &recordingRecorder{enabled: true}

	ctx := WithinLogStack(context.Background())
	s := newLogStream(ctx, active, fallback, record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.True(t, s.IsActive())
	require.Equal(t, 0, active.startCalls, "an already-within-stack call must never reach the active recorder")
	require.Equal(t, 1, fallback.startCalls)

	s.Close()
	require.Equal(t, 1, fallback.stopCalls)
	require.Equal(t, 0, active.stopCalls)
}

func TestLogStreamFlushReopensRecord(t *testing.T) {
	active := &recordingRecorder{enabled: true}
	s := newLogStream(context.Background(), active, active, record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.True(t, s.IsActive())

	s.Flush()
	require.Equal(t, 1, active.stopCalls)
	require.Equal(t, 2, active.startCalls)
	require.True(t, s.IsActive())
}

func TestLogStreamHexDispatchesByWrapperType(t *testing.T) {
	rec := record.New(64)
	active := &recordingRecorder{enabled: true, rec: rec, enc: EncodingText}

	s := newLogStream(context.Background(), active, active, record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.True(t, s.IsActive())

	s.Hex(Hex32(0xDEADBEEF))
	require.Positive(t, rec.Buf.Len())
}

// TestLogStreamTextPathRendersActualArgumentCount drives a real LogStream
// through a real text.Builder and backend pipeline (not a test double) and
// checks the rendered console line's arg-count field matches the number of
// arguments actually streamed, rather than the 0 a record-scoped counter
// left untouched by the text path would render.
func TestLogStreamTextPathRendersActualArgumentCount(t *testing.T) {
	r, w0, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(); w0.Close() })
	require.NoError(t, unix.SetNonblock(int(w0.Fd()), true))

	read := make(chan string, 1)
	go func() {
		out, _ := io.ReadAll(r)
		read <- string(out)
	}()

	w := nbwriter.New(int(w0.Fd()), 4096)
	be := backend.New(backend.Config{
		SlotCount:       4,
		PayloadCapacity: 256,
		DefaultLevel:    record.LevelVerbose,
		Builder:         text.NewBuilder(record.NewIdentifier("ECU1"), time.Now()),
		Writer:          w,
	})
	rec := NewBackendRecorder(be, EncodingText)

	s := newLogStream(context.Background(), rec, rec, record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.True(t, s.IsActive())
	s.Uint32(42, Decimal).Uint32(7, Decimal)
	s.Close()

	be.Close()
	w0.Close()
	line := <-read

	require.Contains(t, line, "verbose 2 42 7 ")
	require.NotContains(t, line, "verbose 0 ")
}
