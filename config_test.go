package mwlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/windrift/mwlog/internal/record"
	"github.com/windrift/mwlog/internal/testdata"
)

func levelFromName(name string) LogLevel {
	switch name {
	case "off":
		return LogLevelOff
	case "fatal":
		return LogLevelFatal
	case "error":
		return LogLevelError
	case "warn":
		return LogLevelWarn
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	case "verbose":
		return LogLevelVerbose
	default:
		return LogLevel(255)
	}
}

func modeFromName(name string) (LogMode, bool) {
	switch name {
	case "remote":
		return ModeRemote, true
	case "console":
		return ModeConsole, true
	case "file":
		return ModeFile, true
	case "system":
		return ModeSystem, true
	default:
		return 0, false
	}
}

func toConfiguration(t *testing.T, f testdata.Fixture) Configuration {
	t.Helper()
	cfg := Configuration{
		ECUID:               f.ECUID,
		AppID:               f.AppID,
		AppDescription:      f.AppDescription,
		DefaultLevel:        levelFromName(f.DefaultLevel),
		DefaultConsoleLevel: levelFromName(f.ConsoleLevel),
		SlotCount:           f.SlotCount,
		SlotByteSize:        f.SlotByteSize,
		LogFilePath:         f.LogFilePath,
		Modes:               make(map[LogMode]bool, len(f.Modes)),
		ContextLevels:       make(map[string]LogLevel, len(f.ContextLevels)),
	}
	for _, name := range f.Modes {
		if m, ok := modeFromName(name); ok {
			cfg.Modes[m] = true
		} else {
			// unrecognized mode names pass through as an out-of-range
			// LogMode value so Validate's drop-unrecognized-modes path
			// actually gets exercised.
			cfg.Modes[LogMode(255)] = true
		}
	}
	for name, level := range f.ContextLevels {
		cfg.ContextLevels[name] = levelFromName(level)
	}
	return cfg
}

func TestValidateAcceptsWellFormedConfiguration(t *testing.T) {
	f, err := testdata.Load("valid")
	require.NoError(t, err)
	cfg := toConfiguration(t, f)

	levels, err := cfg.Validate()
	require.NoError(t, err)
	require.Equal(t, 128, cfg.SlotCount)
	require.Equal(t, 1024, cfg.SlotByteSize)
	require.True(t, cfg.Modes[ModeConsole])
	require.True(t, cfg.Modes[ModeFile])
	require.Len(t, levels, 2)
	require.Equal(t, LogLevelDebug, levels[record.NewIdentifier("CTX1")])
	require.Equal(t, LogLevelError, levels[record.NewIdentifier("CTX2")])
}

func TestValidateReportsTruncationCollisionButStillSucceeds(t *testing.T) {
	f, err := testdata.Load("collision")
	require.NoError(t, err)
	cfg := toConfiguration(t, f)

	levels, err := cfg.Validate()
	require.NoError(t, err)
	// Both CTXNAME_ONE and CTXNAME_TWO truncate to the same 4-byte id;
	// Validate keeps going (degrade, don't fail) and one of the two wins.
	require.Len(t, levels, 1)
	_, ok := levels[record.NewIdentifier("CTXNAME_ONE")]
	require.True(t, ok)
}

func TestValidateDegradesMalformedFieldsRatherThanFailing(t *testing.T) {
	f, err := testdata.Load("degraded")
	require.NoError(t, err)
	cfg := toConfiguration(t, f)

	_, err = cfg.Validate()
	require.NoError(t, err)
	require.Equal(t, DefaultConfiguration().SlotCount, cfg.SlotCount)
	require.Equal(t, DefaultConfiguration().SlotByteSize, cfg.SlotByteSize)
	require.True(t, cfg.Modes[ModeConsole])
	require.False(t, cfg.Modes[LogMode(255)], "unrecognized mode must be dropped")
}

func TestValidateRejectsInvalidDefaultLevel(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.DefaultLevel = LogLevel(200)

	_, err := cfg.Validate()
	require.Error(t, err)
	var mwErr *Error
	require.ErrorAs(t, err, &mwErr)
	require.Equal(t, KindConfiguration, mwErr.Kind)
}

func TestValidateFallsBackToConsoleWhenNoModesSurvive(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Modes = map[LogMode]bool{LogMode(255): true}

	_, err := cfg.Validate()
	require.NoError(t, err)
	require.True(t, cfg.Modes[ModeConsole])
	require.Len(t, cfg.Modes, 1)
}
