// Package debug holds the process-wide debug logger used by the compiler
// and the client when no logger is supplied.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger  atomic.Pointer[slog.Logger]
	enabled atomic.Bool
)

func init() {
	Init(false)
}

// Init enables or disables debug output on os.Stderr. When disabled, every
// record is discarded.
func Init(enable bool) {
	InitWithWriter(os.Stderr, enable)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, enable bool) {
	enabled.Store(enable)

	if !enable {
		logger.Store(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelError + 1,
		})))
		return
	}
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	return enabled.Load()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the current logger. Callers that keep the result do not
// observe a later Init.
func Logger() *slog.Logger {
	return logger.Load()
}
