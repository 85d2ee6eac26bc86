// Package logging builds the structured loggers used across flint.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level
// (debug, info, warn, error).
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          "flint",
	}), nil
}

// Discard returns a logger that drops everything. Used as the default when
// callers do not supply one.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
