package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to stderr, keeping stdout free for
// command output. dev uses a human-friendly console writer.
func NewLogger(dev, verbose bool) zerolog.Logger {
	return newLogger(os.Stderr, dev, verbose)
}

func newLogger(w io.Writer, dev, verbose bool) zerolog.Logger {
	if dev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
