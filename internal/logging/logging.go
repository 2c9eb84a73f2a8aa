package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go.
type Options struct {
	// Level accepts "debug", "info", "warn", "error" (case-insensitive).
	// Unrecognized values mean info.
	Level string
	// File, when set, receives a copy of every record and is rotated by size.
	File string
}

// Setup creates a configured *slog.Logger, sets it as the default, and
// returns it with a close func that flushes the log file, if any.
func Setup(opts Options) (*slog.Logger, func() error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, rotator)
		closeFn = rotator.Close
	}

	logger := New(w, opts.Level)
	slog.SetDefault(logger)
	return logger, closeFn
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
