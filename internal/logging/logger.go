// Package logging builds the zerolog loggers shared by the CLI and the
// library packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config controls logger construction.
type Config struct {
	Level  string    // debug, info, warn, error, disabled (default: warn)
	Format string    // console or json (default: console)
	Writer io.Writer // destination (default: os.Stderr)
}

// ParseLevel maps a level name to a zerolog level. Empty names mean warn.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: invalid level %q", name)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("logging: invalid level %q", name)
	}
	return lvl, nil
}

// New returns a logger writing to cfg.Writer. Invalid levels fall back to
// warn and unknown formats to console; use Validate beforehand to reject
// them.
func New(cfg Config) zerolog.Logger {
	out := cfg.Writer
	if out == nil {
		out = os.Stderr
	}

	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}

	if !strings.EqualFold(strings.TrimSpace(cfg.Format), FormatJSON) {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(out),
		}
	}

	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("app", "calculators").
		Logger()
}

// Validate reports whether level and format are understood by New.
func Validate(level, format string) error {
	if _, err := ParseLevel(level); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("logging: invalid format %q, must be one of: console, json", format)
	}
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
