// Package logging builds the zerolog logger used by every component.
// Output goes to stderr; stdout is reserved for transcripts and listings.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const FieldComponent = "component"

// Options configures New.
type Options struct {
	Level   string
	Verbose bool
	NoColor bool
	Output  io.Writer
}

// New creates a console logger. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	cw := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.NoColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// WithComponent tags a logger with a component name.
func WithComponent(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}

// Nop returns a disabled logger for tests and library defaults.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
