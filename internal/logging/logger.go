package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console receives human or JSON output; defaults to stderr.
	Console io.Writer
	// Color forces level coloring on the console handler. When nil it is
	// enabled only if Console is a terminal.
	Color *bool
	// File, when set, receives JSON records through a rotating sink.
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int
	Development    bool
}

// Logger bundles the slog logger with the resources it owns.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *lumberjack.Logger
}

// New constructs a logger using the provided options.
func New(opts Options) (*Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(opts.Level))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var primary slog.Handler
	switch format {
	case "json":
		primary = newJSONHandler(console, levelVar, addSource)
	case "console":
		color := isTerminal(console)
		if opts.Color != nil {
			color = *opts.Color
		}
		primary = newConsoleHandler(console, levelVar, addSource, color)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out := &Logger{level: levelVar}
	handlers := []slog.Handler{primary}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		out.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    defaultInt(opts.FileMaxSizeMB, 10),
			MaxBackups: defaultInt(opts.FileMaxBackups, 3),
			Compress:   true,
		}
		handlers = append(handlers, newJSONHandler(out.file, levelVar, addSource))
	}
	out.Logger = slog.New(newTeeHandler(handlers...))
	return out, nil
}

// DebugEnabled reports whether debug records are emitted.
func (l *Logger) DebugEnabled() bool {
	return l.level.Level() <= slog.LevelDebug
}

// Close releases the rotating file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a textual level to slog; unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
