// Package logging configures the process-wide zerolog logger shared by the
// shoes binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure sends log.Logger to a console writer on stderr and sets the
// global level. level may be any zerolog level name; an empty level means
// info, or debug when verbose is set.
func Configure(level string, verbose bool) error {
	return configure(os.Stderr, level, verbose)
}

func configure(out io.Writer, level string, verbose bool) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	})

	lvl, err := ParseLevel(level, verbose)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// ParseLevel resolves a --log-level value, falling back to the --verbose
// switch when it is empty.
func ParseLevel(level string, verbose bool) (zerolog.Level, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		if verbose {
			return zerolog.DebugLevel, nil
		}
		return zerolog.InfoLevel, nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
