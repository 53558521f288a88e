package logger

import (
	"io"
	"log/slog"
	"os"
)

// EnvTestDebug enables debug logging in tests when set.
const EnvTestDebug = "TEST_DEBUG"

// NewTestLogger creates a quiet logger for tests: WARN and above, unless
// TEST_DEBUG is set.
func NewTestLogger() *slog.Logger {
	return NewTestLoggerTo(os.Stdout)
}

// NewTestLoggerTo is NewTestLogger writing to w, for tests that inspect log output.
func NewTestLoggerTo(w io.Writer) *slog.Logger {
	cfg := Config{Level: slog.LevelWarn, Format: "text"}
	if os.Getenv(EnvTestDebug) != "" {
		cfg.Level = slog.LevelDebug
	}
	return NewLoggerTo(w, cfg)
}
