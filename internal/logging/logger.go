// Package logging builds the diagnostic zap logger and the colored console
// used for user-facing notices.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the diagnostic logger.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// File receives the log in addition to stderr when set.
	File string
	// Console selects the human readable encoder instead of JSON.
	Console bool
}

// New builds a production zap logger. Without Verbose only warnings and
// errors are written so normal command output stays clean.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if opts.Console {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	config.DisableStacktrace = !opts.Verbose
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	if opts.File != "" {
		config.OutputPaths = append(config.OutputPaths, opts.File)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("diffsense"), nil
}

// Sync flushes the logger, ignoring the error stderr returns on some
// platforms.
func Sync(logger *zap.Logger) {
	if logger != nil {
		_ = logger.Sync()
	}
}
