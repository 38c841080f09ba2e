// Package logger provides the structured slog logger for the service.
// All logs are written in JSON format, either to stderr or to a rotating
// file under the data directory.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and at what level logs are written.
type Options struct {
	// Level is the minimum level to emit.
	Level slog.Level
	// ToFile writes to <Dir>/courier.log with rotation instead of stderr.
	ToFile bool
	// Dir is the log directory, created if missing. Only used with ToFile.
	Dir string
}

// New creates a JSON slog.Logger per opts. When file logging is enabled the
// file is rotated at 20 MB, keeping up to 5 backups for 28 days.
func New(opts Options) (*slog.Logger, error) {
	var w io.Writer = os.Stderr
	if opts.ToFile {
		if err := os.MkdirAll(opts.Dir, 0750); err != nil {
			return nil, fmt.Errorf("creating log directory %q: %w", opts.Dir, err)
		}
		w = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "courier.log"),
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(handler), nil
}
