package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/config"
)

// Logger wraps slog.Logger with node server specific functionality.
//
// It provides structured logging with default fields, level-based filtering
// and a runtime debug switch driven by the host's debug_enable parameter.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger

	// level is shared by every logger derived through With, so SetDebug
	// affects the whole tree.
	level *slog.LevelVar
	base  slog.Level
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for production, text for development)
//   - Log level filtering
//   - Default fields (service name, version)
//   - Output destination
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	return newWithWriter(cfg, version, output)
}

// newWithWriter builds a Logger writing to output. Split out so tests can
// capture log lines.
func newWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	base := parseLevel(cfg.Level)
	level := new(slog.LevelVar)
	level.Set(base)

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "isy-inventory"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		base:   base,
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a new Logger with additional default attributes.
//
// The returned logger shares the level switch of its parent.
//
// Example:
//
//	isyLogger := logger.With("component", "isy")
//	isyLogger.Info("fetched") // Includes component=isy
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
		base:   l.base,
	}
}

// SetDebug switches debug output on or off at runtime.
//
// Enabling lowers the threshold to debug; disabling restores the level
// from configuration.
func (l *Logger) SetDebug(enabled bool) {
	if enabled {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(l.base)
}

// DebugEnabled reports whether debug records are currently emitted.
func (l *Logger) DebugEnabled() bool {
	return l.level.Level() <= slog.LevelDebug
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in JSON format at info level.
// It should only be used during early startup before config is available.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
