// Package builder defines the shared contract both the DLT and text message
// builders satisfy, so the slot drainer can push spans through either
// without knowing which wire format it is driving.
package builder

import "github.com/windrift/mwlog/internal/record"

// Builder binds to one record at a time and yields its wire bytes as a
// sequence of spans via GetNextSpan: header(s), then payload, then
// ok=false — at which point the builder is ready for the next Bind. Bind
// reports whether it had to truncate the record's payload to fit the wire
// format's own size limit (only internal/dlt's builder ever does; the text
// builder always returns false), so the drainer can attribute a dropped
// tail to the right statistics counter.
type Builder interface {
	Bind(rec *record.Record) (truncated bool)
	GetNextSpan() (span []byte, ok bool)
}
