// internal/utils/logger.go

// Package utils holds small cross-cutting helpers, chiefly the levelled
// logger injected into every component at construction time.
package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger defines the interface for logging throughout the application.
// Components receive a Logger at construction; there are no package-level
// logger singletons.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel converts a level name from configuration into a LogLevel.
// Unknown names fall back to InfoLevel.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// StdLogger writes formatted log lines to an io.Writer.
type StdLogger struct {
	level  LogLevel
	out    io.Writer
	fields map[string]interface{}
	mu     *sync.Mutex
}

// NewLogger creates a logger writing to stderr at the given level.
func NewLogger(level LogLevel) Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a logger writing to the given writer.
func NewLoggerTo(out io.Writer, level LogLevel) Logger {
	return &StdLogger{
		level:  level,
		out:    out,
		fields: make(map[string]interface{}),
		mu:     &sync.Mutex{},
	}
}

func (l *StdLogger) Debug(msg string)                       { l.log(DebugLevel, msg) }
func (l *StdLogger) Debugf(format string, a ...interface{}) { l.log(DebugLevel, fmt.Sprintf(format, a...)) }
func (l *StdLogger) Info(msg string)                        { l.log(InfoLevel, msg) }
func (l *StdLogger) Infof(format string, a ...interface{})  { l.log(InfoLevel, fmt.Sprintf(format, a...)) }
func (l *StdLogger) Warn(msg string)                        { l.log(WarnLevel, msg) }
func (l *StdLogger) Warnf(format string, a ...interface{})  { l.log(WarnLevel, fmt.Sprintf(format, a...)) }
func (l *StdLogger) Error(msg string)                       { l.log(ErrorLevel, msg) }
func (l *StdLogger) Errorf(format string, a ...interface{}) { l.log(ErrorLevel, fmt.Sprintf(format, a...)) }

// WithField returns a child logger carrying an extra structured field.
func (l *StdLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a child logger carrying extra structured fields.
func (l *StdLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &StdLogger{
		level:  l.level,
		out:    l.out,
		fields: merged,
		mu:     l.mu,
	}
}

func (l *StdLogger) log(level LogLevel, msg string) {
	if level < l.level {
		return
	}

	levelStr := [...]string{"DEBUG", "INFO", "WARN", "ERROR"}[level]
	line := fmt.Sprintf("[%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), levelStr, msg)
	if len(l.fields) > 0 {
		line += " " + formatFields(l.fields)
	}

	l.mu.Lock()
	fmt.Fprintln(l.out, line)
	l.mu.Unlock()
}

// formatFields renders fields in deterministic key order.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NopLogger returns a logger that discards all messages. Useful as a
// default in tests.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string)                             {}
func (nopLogger) Debugf(string, ...interface{})            {}
func (nopLogger) Info(string)                              {}
func (nopLogger) Infof(string, ...interface{})             {}
func (nopLogger) Warn(string)                              {}
func (nopLogger) Warnf(string, ...interface{})             {}
func (nopLogger) Error(string)                             {}
func (nopLogger) Errorf(string, ...interface{})            {}
func (nopLogger) WithField(string, interface{}) Logger     { return nopLogger{} }
func (nopLogger) WithFields(map[string]interface{}) Logger { return nopLogger{} }
