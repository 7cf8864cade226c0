// Package logger owns the process-wide zap logger: human-readable output
// while developing, JSON in release, with the verbosity overridable from
// the service config.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// InitLogger builds the global logger. mode picks the encoder family;
// level, when non-empty, overrides the mode's default verbosity (so a
// debug-mode run can still be quieted to "info", and a release run can be
// opened up to "debug" while chasing a room bug).
func InitLogger(mode, level string) {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.OutputPaths = []string{"stdout"}

	if level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(parsed)
		} else {
			// An unparseable level falls back to the mode default rather
			// than failing startup.
			defer func() {
				Log.Warn("ignoring invalid log level", zap.String("level", level))
			}()
		}
	}

	var err error
	Log, err = config.Build()
	if err != nil {
		os.Exit(1)
	}
	zap.ReplaceGlobals(Log)
}

// ForRoom returns a child logger carrying the room id, so every line a
// room emits is correlated without re-tagging each call site.
func ForRoom(roomID string) *zap.Logger {
	return Log.With(zap.String("roomID", roomID))
}
