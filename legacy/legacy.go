// Package legacy supplements the verbose-mode logging engine with the
// narrower non-verbose tracing API the original system also exposed:
// tracing a raw byte buffer under a numeric message id, for callers
// migrating off the older wire format rather than adopting verbose mode
// wholesale. It is not a full non-verbose DLT encoder — there is no
// pre-registered message-id table here, only a raw-buffer argument tagged
// with the message id in its context — full non-verbose support is out of
// scope, as verbose mode is this module's only wire format.
package legacy

import (
	"context"

	"github.com/windrift/mwlog"
	"github.com/windrift/mwlog/internal/record"
)

// Trace logs data as a single raw-buffer argument under the given context,
// folding the message id into the context name (see traceContextName)
// rather than encoding a non-verbose DLT message-id block. It routes
// through the same LogStream.RawBuffer path a verbose caller would use.
func Trace(ctxID string, messageID uint16, data []byte) {
	rt := mwlog.GetRuntime()
	logger := rt.GetLogger(traceContextName(ctxID, messageID))

	stream := logger.LogInfo(context.Background())
	stream.RawBuffer(data)
	stream.Close()
}

// traceContextName folds the message id into the 4-byte context identifier
// budget by appending its low byte as a suffix, truncating as every
// Identifier does. This is a deliberately lossy compromise: the original
// non-verbose id space is 16 bits, do not rely on it for exact round-trip.
func traceContextName(ctxID string, messageID uint16) string {
	id := record.NewIdentifier(ctxID)
	s := id.String()
	if len(s) >= 4 {
		return s
	}
	return s + string(byte(messageID))
}
