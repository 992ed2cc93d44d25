package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the log sink.
type Options struct {
	Level string
	// File, when set, receives a copy of every record and is rotated at MaxSizeMB.
	File      string
	MaxSizeMB int
}

// New constructs a JSON slog logger. The returned func closes the file sink, if any.
func New(opts Options) (*slog.Logger, func()) {
	level := parseLevel(opts.Level)
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = parseLevel(env)
	}

	var out io.Writer = os.Stdout
	cleanup := func() {}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB,
			Compress: true,
		}
		out = io.MultiWriter(os.Stdout, file)
		cleanup = func() { _ = file.Close() }
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "stryde"), cleanup
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
