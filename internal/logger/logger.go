// Package logger provides leveled logging for docrag.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow the ingestion and
// retrieval pipeline. Warnings and errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry with the verbose toggle used by the CLI.
// A Logger is safe for concurrent use.
type Logger struct {
	mu    *sync.RWMutex
	base  *logrus.Logger
	entry *logrus.Entry
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// New creates a logger writing text lines to w at Info level.
func New(w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		DisableQuote:           true,
	})
	return &Logger{
		mu:    &sync.RWMutex{},
		base:  base,
		entry: logrus.NewEntry(base),
	}
}

// Default returns the process-wide logger writing to stderr.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLog = New(os.Stderr)
	})
	return defaultLog
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger {
	return New(io.Discard)
}

// SetVerbose enables or disables debug output.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v {
		l.base.SetLevel(logrus.DebugLevel)
		return
	}
	l.base.SetLevel(logrus.InfoLevel)
}

// IsVerbose returns true if verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base.IsLevelEnabled(logrus.DebugLevel)
}

// SetOutput sets the output writer. Useful for testing.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.base.SetOutput(w)
}

// WithField returns a child logger that attaches key=value to every line.
// The child shares level and output with its parent.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{
		mu:    l.mu,
		base:  l.base,
		entry: l.entry.WithField(key, value),
	}
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.entry.Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.base.IsLevelEnabled(logrus.DebugLevel) {
		fmt.Fprintf(l.base.Out, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.entry.Infof(format, args...)
}

// Warn prints a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.entry.Warnf(format, args...)
}

// Error prints an error message.
func (l *Logger) Error(format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.entry.Errorf(format, args...)
}
