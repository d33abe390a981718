package text

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/windrift/mwlog/internal/dlt"
	"github.com/windrift/mwlog/internal/record"
)

func TestConsoleIntegerLogMatchesScenario(t *testing.T) {
	b := NewBuilder(record.NewIdentifier("NONE"), time.Now())

	rec := record.New(64)
	rec.Entry.AppID = record.NewIdentifier("NONE")
	rec.Entry.CtxID = record.NewIdentifier("DFLT")
	rec.Entry.Level = record.LevelInfo

	var numArgs uint8
	PutFormattedUint(rec.Buf, 42, 32, dlt.ReprDecimal)
	numArgs++
	rec.Entry.NumArgs = numArgs

	b.Bind(rec)
	line, ok := b.GetNextSpan()
	require.True(t, ok)

	want := regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\.\d+ \d+ 000 NONE NONE DFLT log info verbose 1 42 \n$`)
	require.Regexp(t, want, string(line))

	_, ok2 := b.GetNextSpan()
	require.False(t, ok2)
}

func TestPutBool(t *testing.T) {
	rec := record.New(16)
	PutBool(rec.Buf, true)
	require.Equal(t, "True ", string(rec.Buf.Span()))

	rec.Reset()
	PutBool(rec.Buf, false)
	require.Equal(t, "False ", string(rec.Buf.Span()))
}

func TestPutFormattedUintBinary(t *testing.T) {
	rec := record.New(32)
	PutFormattedUint(rec.Buf, 5, 8, dlt.ReprBinary)
	require.Equal(t, "0b00000101 ", string(rec.Buf.Span()))
}

func TestPutRawBufferHexPairs(t *testing.T) {
	rec := record.New(32)
	PutRawBuffer(rec.Buf, []byte{0xDE, 0xAD})
	require.Equal(t, "de:ad ", string(rec.Buf.Span()))
}
