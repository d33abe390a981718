// Package report implements the out-of-band initialization reporter:
// single-line, framework-tagged messages written straight to stderr,
// completely outside the logging engine's own recorder/backend pipeline.
// It exists precisely so initialization failures (a bad Configuration, a
// file that could not be opened) have somewhere to go without recursing
// back into the system they are reporting a fault in.
package report

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		With().
		Str("component", "mwlog").
		Timestamp().
		Logger()
)

// Error writes a single-line error report tagged with the given kind and
// message. It never panics and never blocks on anything but stderr itself.
func Error(kind, msg string) {
	mu.Lock()
	defer mu.Unlock()
	logger.Error().Str("kind", kind).Msg(msg)
}

// Warn writes a single-line warning report with the given fields attached,
// used for configuration warnings such as a context-id truncation
// collision.
func Warn(msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	ev := logger.Warn()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
