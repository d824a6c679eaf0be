// Package logging builds the process logger. Logs go to a rotated file
// because the terminal belongs to the UI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level      string
	File       string // empty disables the log file
	MaxSizeMB  int
	MaxBackups int

	// Verbose forces debug level and mirrors records to Mirror.
	Verbose bool
	Mirror  io.Writer
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a text logger and the closer for its file. The closer is
// never nil.
func New(opts Options) (*slog.Logger, io.Closer) {
	lvl := new(slog.LevelVar)
	lvl.Set(ParseLevel(opts.Level))
	if opts.Verbose {
		lvl.Set(slog.LevelDebug)
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
			}
			writers = append(writers, lj)
			closer = lj
		}
	}
	if opts.Verbose && opts.Mirror != nil {
		writers = append(writers, opts.Mirror)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), closer
}
