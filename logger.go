package mwlog

import (
	"context"

	"github.com/windrift/mwlog/internal/record"
)

// Logger is a per-context handle returned by Runtime.GetLogger. It is
// created once and lives for the process: its level methods (LogWarn,
// LogInfo, ...) each return a fresh LogStream for one log statement.
type Logger struct {
	ctxID   record.Identifier
	runtime *Runtime
}

// ContextID returns the logger's 4-byte context identifier.
func (l *Logger) ContextID() record.Identifier {
	return l.ctxID
}

func (l *Logger) stream(ctx context.Context, level LogLevel) LogStream {
	active := l.runtime.GetRecorder()
	fallback := l.runtime.GetFallbackRecorder()
	return newLogStream(ctx, active, fallback, l.runtime.getAppID(), l.ctxID, level)
}

// LogFatal, LogError, LogWarn, LogInfo, LogDebug, LogVerbose each start a
// new LogStream at the matching level. ctx carries the re-entrancy marker
// (see WithinLogStack); pass context.Background() for an ordinary
// top-level log statement.
func (l *Logger) LogFatal(ctx context.Context) LogStream   { return l.stream(ctx, LogLevelFatal) }
func (l *Logger) LogError(ctx context.Context) LogStream   { return l.stream(ctx, LogLevelError) }
func (l *Logger) LogWarn(ctx context.Context) LogStream    { return l.stream(ctx, LogLevelWarn) }
func (l *Logger) LogInfo(ctx context.Context) LogStream    { return l.stream(ctx, LogLevelInfo) }
func (l *Logger) LogDebug(ctx context.Context) LogStream   { return l.stream(ctx, LogLevelDebug) }
func (l *Logger) LogVerbose(ctx context.Context) LogStream { return l.stream(ctx, LogLevelVerbose) }

// IsLogEnabled reports whether level would currently produce output for
// this logger's context on the active recorder.
func (l *Logger) IsLogEnabled(level LogLevel) bool {
	return l.runtime.GetRecorder().IsLogEnabled(l.ctxID, level)
}
