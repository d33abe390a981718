package mwlog

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/windrift/mwlog/internal/record"
)

// LogMode selects which sinks a recorder is configured to write to.
type LogMode uint8

const (
	ModeRemote LogMode = iota
	ModeConsole
	ModeFile
	ModeSystem
)

func (m LogMode) valid() bool {
	return m <= ModeSystem
}

// Configuration is the populated, already-parsed configuration a caller
// hands the runtime at startup. Discovering and parsing a configuration
// file is explicitly out of scope: callers build this struct themselves
// (or via their own collaborator) and pass it to Init/Validate.
type Configuration struct {
	ECUID          string
	AppID          string
	AppDescription string

	DefaultLevel        LogLevel
	DefaultConsoleLevel LogLevel
	ContextLevels       map[string]LogLevel

	Modes map[LogMode]bool

	SlotCount       int
	SlotByteSize    int
	QueueBufferSize int

	LogFilePath string

	// StatsReportIntervalSeconds configures the periodic statistics
	// reporter's tick interval; 0 falls back to the 10s default.
	StatsReportIntervalSeconds int

	// PrometheusRegisterer receives the drop/error counters registered
	// under the mwlog_ namespace if non-nil. A nil registerer (the
	// default) skips Prometheus entirely; the counters are still
	// maintained and still reported by the periodic statistics summary.
	PrometheusRegisterer prometheus.Registerer
}

// DefaultConfiguration returns the console-only fallback configuration used
// when no (or an invalid) Configuration is supplied: ECU "NONE", app
// "NONE", level Info.
func DefaultConfiguration() Configuration {
	return Configuration{
		ECUID:               "NONE",
		AppID:               "NONE",
		DefaultLevel:        LogLevelInfo,
		DefaultConsoleLevel: LogLevelInfo,
		Modes:               map[LogMode]bool{ModeConsole: true},
		SlotCount:           64,
		SlotByteSize:        512,
		QueueBufferSize:     64 * 1024,
	}
}

// ValidatedContextLevels is the 4-byte-truncated form of ContextLevels,
// computed by Validate.
type ValidatedContextLevels map[record.Identifier]LogLevel

// Validate checks cfg for the defects the original system falls back on
// rather than fails on: it truncates over-long identifiers (documented
// lossy truncation, see DESIGN.md), substitutes the default slot count when
// none was given, and drops unrecognized log modes instead of rejecting the
// whole configuration. It performs no I/O and never discovers a file.
func (cfg *Configuration) Validate() (ValidatedContextLevels, error) {
	if cfg.SlotCount <= 0 {
		cfg.SlotCount = DefaultConfiguration().SlotCount
	}
	if cfg.SlotByteSize <= 0 {
		cfg.SlotByteSize = DefaultConfiguration().SlotByteSize
	}
	if !cfg.DefaultLevel.IsValid() {
		return nil, newError(KindConfiguration, "invalid default log level", nil)
	}

	for mode := range cfg.Modes {
		if !mode.valid() {
			delete(cfg.Modes, mode)
		}
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = map[LogMode]bool{ModeConsole: true}
	}

	validated := make(ValidatedContextLevels, len(cfg.ContextLevels))
	seen := make(map[record.Identifier]string)
	for name, level := range cfg.ContextLevels {
		id := record.NewIdentifier(name)
		if prior, collided := seen[id]; collided && prior != name {
			truncationCollision(prior, name, id)
		}
		seen[id] = name
		validated[id] = level
	}

	return validated, nil
}

// truncationCollision is called (via internal/report, never the hot path)
// when two distinct configured context ids collapse to the same 4-byte
// identifier after truncation — silently picking one would be wrong, so
// this is surfaced at startup instead.
func truncationCollision(a, b string, id record.Identifier) {
	reportTruncationCollision(a, b, id.String())
}
