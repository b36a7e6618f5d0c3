package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel maps debug, info, warn or error to a pterm log level.
func ParseLevel(level string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return pterm.LogLevelDebug, nil
	case "", "info":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	default:
		return pterm.LogLevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New returns a slog logger rendered by pterm onto w. An unknown level
// falls back to info.
func New(level string, w io.Writer) *slog.Logger {
	lvl, _ := ParseLevel(level)
	logger := pterm.DefaultLogger.
		WithLevel(lvl).
		WithWriter(w).
		WithTime(false)
	return slog.New(pterm.NewSlogHandler(logger))
}
