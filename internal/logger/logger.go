package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
)

// Logger is the logging surface shared by scribe's packages.
//
// Info, Warning and Error are internal and go to the debug log file.
// InfoToUser, WarningToUser, Success and StatusMessage always reach the
// terminal, which is the only notification surface scribe has.
type Logger interface {
	Info(format string, args ...any)
	// Warning reaches the terminal only in verbose mode.
	Warning(format string, args ...any)
	// Error always reaches stderr.
	Error(format string, args ...any)
	InfoToUser(format string, args ...any)
	WarningToUser(format string, args ...any)
	Success(format string, args ...any)
	// StatusMessage is printed as is and never recorded.
	StatusMessage(format string, args ...any)
	Close() error
}

// line is how one message kind appears on the terminal.
type line struct {
	prefix string
	color  *color.Color
	stderr bool
}

var (
	infoLine    = line{prefix: "ℹ️  ", color: color.New(color.FgCyan)}
	successLine = line{prefix: "✅ ", color: color.New(color.FgGreen)}
	warningLine = line{prefix: "⚠️  ", color: color.New(color.FgYellow)}
	errorLine   = line{prefix: "❌ ", color: color.New(color.FgRed, color.Bold), stderr: true}

	// setupLine reports problems with the log file itself.
	setupLine = line{prefix: warningLine.prefix, color: warningLine.color, stderr: true}
)

// DefaultLogger records debug entries with slog and prints colored lines
// for the user. One mutex guards both, so the scheduler loop and the git
// worker can share an instance.
type DefaultLogger struct {
	mu      sync.Mutex
	records *slog.Logger
	enabled bool
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New builds a logger. With enabled set, debug records are appended to
// logFile; if that file cannot be opened they fall back to stderr.
func New(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	l := &DefaultLogger{enabled: enabled, verbose: verbose, stdout: stdout, stderr: stderr}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if !enabled {
		l.records = slog.New(slog.NewTextHandler(stderr, opts))
		return l
	}

	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.print(setupLine, fmt.Sprintf("Failed to create log directory: %v", err))
		}
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.records = slog.New(slog.NewTextHandler(stderr, opts))
		l.print(setupLine, fmt.Sprintf("Failed to open log file: %v, using stderr instead", err))
		return l
	}

	l.file = f
	l.records = slog.New(slog.NewTextHandler(f, opts).WithAttrs([]slog.Attr{slog.Int("pid", os.Getpid())}))
	_, _ = fmt.Fprintf(stdout, "🔍 Debug logging enabled. Logs will be written to: %s\n", logFile)
	l.records.Info("scribe debug logging started")
	return l
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return New(false, "", false, io.Discard, io.Discard)
}

func (l *DefaultLogger) Info(format string, args ...any) {
	l.emit(slog.LevelInfo, nil, format, args)
}

func (l *DefaultLogger) Warning(format string, args ...any) {
	if l.verbose {
		l.emit(slog.LevelWarn, &warningLine, format, args)
		return
	}
	l.emit(slog.LevelWarn, nil, format, args)
}

func (l *DefaultLogger) Error(format string, args ...any) {
	l.emit(slog.LevelError, &errorLine, format, args)
}

func (l *DefaultLogger) InfoToUser(format string, args ...any) {
	l.emit(slog.LevelInfo, &infoLine, format, args)
}

func (l *DefaultLogger) WarningToUser(format string, args ...any) {
	l.emit(slog.LevelWarn, &warningLine, format, args)
}

func (l *DefaultLogger) Success(format string, args ...any) {
	l.emit(slog.LevelInfo, &successLine, format, args)
}

func (l *DefaultLogger) StatusMessage(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close syncs and closes the debug log file. Calling it again is a no-op.
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// emit records msg when debug logging is on and, when out is set, prints
// it to the terminal.
func (l *DefaultLogger) emit(level slog.Level, out *line, format string, args []any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enabled {
		l.records.Log(context.Background(), level, msg)
	}
	if out != nil {
		l.print(*out, msg)
	}
}

func (l *DefaultLogger) print(out line, msg string) {
	w := l.stdout
	if out.stderr {
		w = l.stderr
	}
	_, _ = out.color.Fprintf(w, "%s%s\n", out.prefix, msg)
}
