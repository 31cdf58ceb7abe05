// Package logging wires zerolog to rotating file sinks.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control where log entries go.
type Options struct {
	Dir     string
	Level   string
	Console bool
}

// New builds a logger writing every entry to combined.log and error-or-worse entries to
// error.log. When Console is set entries are also pretty-printed to stderr.
// The returned closer flushes and closes the file sinks.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return zerolog.Nop(), nil, err
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	combined := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "combined.log"),
		MaxSize:    10,
		MaxBackups: 5,
	}
	errs := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "error.log"),
		MaxSize:    10,
		MaxBackups: 5,
	}

	writers := []io.Writer{
		combined,
		MinLevelWriter{Writer: errs, Min: zerolog.ErrorLevel},
	}
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, multiCloser{combined, errs}, nil
}

// MinLevelWriter drops entries below Min.
type MinLevelWriter struct {
	Writer io.Writer
	Min    zerolog.Level
}

func (w MinLevelWriter) Write(p []byte) (int, error) {
	return w.Writer.Write(p)
}

func (w MinLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < w.Min {
		return len(p), nil
	}
	return w.Writer.Write(p)
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
