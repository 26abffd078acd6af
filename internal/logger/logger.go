// Package logger wraps charmbracelet/log so every package logs through one configured instance.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	current = newLogger(os.Stderr, log.InfoLevel)
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	return l
}

// Configure sets the level and destination. An empty file keeps stderr. The returned closer
// releases the log file, if any.
func Configure(level, file string) (io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		out = f
		closer = f
	}

	SetOutput(out, ParseLevel(level))
	return closer, nil
}

// SetOutput swaps the destination, mainly for tests that want to inspect log lines.
func SetOutput(w io.Writer, level log.Level) {
	mu.Lock()
	current = newLogger(w, level)
	mu.Unlock()
}

// ParseLevel converts a textual level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// With returns a child logger carrying a component prefix.
func With(prefix string) *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current.WithPrefix(prefix)
}

func Debug(msg interface{}, keyvals ...interface{}) { get().Debug(msg, keyvals...) }

func Info(msg interface{}, keyvals ...interface{}) { get().Info(msg, keyvals...) }

func Warn(msg interface{}, keyvals ...interface{}) { get().Warn(msg, keyvals...) }

func Error(msg interface{}, keyvals ...interface{}) { get().Error(msg, keyvals...) }

// Fatal logs and exits the process.
func Fatal(msg interface{}, keyvals ...interface{}) { get().Fatal(msg, keyvals...) }

func get() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
