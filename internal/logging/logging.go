// Package logging builds the pipeline's component loggers on a shared
// structured JSON handler with a configurable minimum level.
package logging

import (
	"io"
	"log"
	"log/slog"
	"strings"

	"mpfeed/config"
)

// Factory hands out per-component loggers backed by one slog handler.
type Factory struct {
	handler slog.Handler
}

// New creates a factory writing JSON records to w. The minimum level comes
// from general.log_level; general.debug forces the debug level.
func New(w io.Writer, cfg config.GeneralConfig) *Factory {
	opts := &slog.HandlerOptions{Level: LevelFor(cfg)}
	return &Factory{handler: slog.NewJSONHandler(w, opts)}
}

// LevelFor resolves the configured log level.
func LevelFor(cfg config.GeneralConfig) slog.Level {
	if cfg.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a standard logger for one pipeline component. Every
// record flows through the shared handler tagged with the component name, so
// callers keep the plain log.Logger interface the services expect.
func (f *Factory) Component(name string) *log.Logger {
	h := f.handler.WithAttrs([]slog.Attr{slog.String("component", name)})
	return slog.NewLogLogger(h, slog.LevelInfo)
}
