package metadata

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// SetupLogger configures the zerolog logger backing the Recorder.
// JSON to stderr by default; pretty enables human-readable console output.
func SetupLogger(level string, pretty bool, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	var output io.Writer = out
	if pretty {
		output = zerolog.ConsoleWriter{Out: out}
	}

	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
