package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFilePath is the default log file, relative to the working directory.
const LogFilePath = "logs/tree.log"

// DefaultMaxLines caps how many lines are kept for the terminal.
const DefaultMaxLines = 500

// Options configures a Logger. With Output nil, records go to a rotated file
// at Path.
type Options struct {
	Path     string
	Level    slog.Level
	MaxLines int
	Output   io.Writer
}

// Logger stores recent lines in memory for the terminal and writes every
// record to a log file on disk. Slog returns a structured logger for the rest
// of the program; its records at Info and above also show up in Lines.
type Logger struct {
	mu    sync.Mutex
	lines []string
	max   int

	file   *slog.Logger
	slog   *slog.Logger
	closer io.Closer
}

// New returns a Logger and ensures the log directory exists.
func New(opts Options) *Logger {
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	l := &Logger{max: opts.MaxLines}

	out := opts.Output
	if out == nil {
		path := opts.Path
		if path == "" {
			path = LogFilePath
		}
		_ = os.MkdirAll(filepath.Dir(path), 0755)
		lj := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		out = lj
		l.closer = lj
	}

	fileHandler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level})
	lineHandler := slog.NewTextHandler(lineWriter{l}, &slog.HandlerOptions{
		Level: max(opts.Level, slog.LevelInfo),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	l.file = slog.New(fileHandler)
	l.slog = slog.New(teeHandler{fileHandler, lineHandler})
	return l
}

// Slog returns the structured logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Log appends a line for the terminal and records it in the log file. Each
// entry is prefixed with [timestamp] using computer time.
func (l *Logger) Log(line string) {
	l.append(line)
	l.file.Info("terminal", "line", line)
}

func (l *Logger) append(line string) {
	stamped := "[" + time.Now().Format("15:04:05") + "] " + line
	l.mu.Lock()
	l.lines = append(l.lines, stamped)
	if n := len(l.lines) - l.max; n > 0 {
		l.lines = append(l.lines[:0], l.lines[n:]...)
	}
	l.mu.Unlock()
}

// Lines returns a copy of all stored lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel maps debug, info, warn and error to a slog level. Unknown names
// yield Info.
func ParseLevel(s string) slog.Level {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lv
}

type lineWriter struct{ l *Logger }

func (w lineWriter) Write(p []byte) (int, error) {
	w.l.append(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// teeHandler sends each record to every handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, lv slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, lv) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
