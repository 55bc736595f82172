package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger on stderr so command output on
// stdout stays clean.
func NewLogger(appEnv string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, appEnv)
}

// NewLoggerTo builds a logger writing to w. Development gets a console writer
// at debug level, "cli" only surfaces warnings, everything else is JSON at
// info level.
func NewLoggerTo(w io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch appEnv {
	case "development":
		level = zerolog.DebugLevel
	case "cli":
		level = zerolog.WarnLevel
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" || appEnv == "cli" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}

	return logger
}

// NopLogger discards everything; used as the default for optional loggers.
func NopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// Logger aliases the zerolog.Logger so callers outside the infra package can
// depend on the logging contract without importing the third-party module
// directly.
type Logger = zerolog.Logger
