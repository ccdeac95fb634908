// Package logging builds the zap logger shared by the CLI and the analyzers.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w. Only warnings and errors are
// shown unless verbose is set, which enables debug output.
func New(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core).Named("tally")
}
