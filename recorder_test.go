package mwlog

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/windrift/mwlog/internal/backend"
	"github.com/windrift/mwlog/internal/builder"
	"github.com/windrift/mwlog/internal/dlt"
	"github.com/windrift/mwlog/internal/nbwriter"
	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/stats"
	"github.com/windrift/mwlog/internal/text"
)

func newTestRecorder(t *testing.T, enc Encoding) *BackendRecorder {
	t.Helper()

	r, w0, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close(); w0.Close() })
	require.NoError(t, unix.SetNonblock(int(w0.Fd()), true))
	go io.Copy(io.Discard, r)

	w := nbwriter.New(int(w0.Fd()), 4096)

	var b builder.Builder
	if enc == EncodingDLT {
		b = dlt.NewBuilder(record.NewIdentifier("ECU1"), time.Now())
	} else {
		b = text.NewBuilder(record.NewIdentifier("ECU1"), time.Now())
	}

	be := backend.New(backend.Config{
		SlotCount:       4,
		PayloadCapacity: 256,
		DefaultLevel:    record.LevelVerbose,
		Builder:         b,
		Writer:          w,
		Stats:           stats.New(nil),
	})
	t.Cleanup(be.Close)
	return NewBackendRecorder(be, enc)
}

func TestBackendRecorderStartStopRoundTrip(t *testing.T) {
	r := newTestRecorder(t, EncodingDLT)
	h, ok := r.StartRecord(record.NewIdentifier("APP1"), record.NewIdentifier("CTX1"), LogLevelInfo)
	require.True(t, ok)
	require.True(t, h.Active[0])

	var seen int
	r.ForEachActive(h, func(rec *record.Record, enc Encoding) {
		seen++
		require.Equal(t, EncodingDLT, enc)
	})
	require.Equal(t, 1, seen)

	r.StopRecord(h)
}

func TestCompositeRecorderFansOutIdenticalArguments(t *testing.T) {
	dltRec := newTestRecorder(t, EncodingDLT)
	textRec := newTestRecorder(t, EncodingText)
	c := NewCompositeRecorder(dltRec, textRec)

	appID := record.NewIdentifier("APP1")
	ctxID := record.NewIdentifier("CTX1")

	require.True(t, c.IsLogEnabled(ctxID, LogLevelInfo))

	h, ok := c.StartRecord(appID, ctxID, LogLevelInfo)
	require.True(t, ok)
	require.True(t, h.Active[0])
	require.True(t, h.Active[1])

	var encodings []Encoding
	c.ForEachActive(h, func(rec *record.Record, enc Encoding) {
		encodings = append(encodings, enc)
		rec.Entry.NumArgs++ // identical mutation applied to every child's own record
	})
	require.ElementsMatch(t, []Encoding{EncodingDLT, EncodingText}, encodings)

	c.StopRecord(h)
}

func TestCompositeRecorderCapsChildrenAtMaxRecorders(t *testing.T) {
	children := make([]Recorder, MaxRecorders+3)
	for i := range children {
		children[i] = newTestRecorder(t, EncodingText)
	}
	c := NewCompositeRecorder(children...)
	require.Len(t, c.children, MaxRecorders)
}

func TestSlotHandleAnyActive(t *testing.T) {
	var h SlotHandle
	require.False(t, h.anyActive())
	h.Active[2] = true
	require.True(t, h.anyActive())
}
