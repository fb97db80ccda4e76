// Package logger provides a small leveled logger for molparse.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return ""
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a Level.
// "warning", "off" and "none" are also accepted.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "none", "off":
		return LevelNone, nil
	}
	return LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

// sink is shared by a logger and every logger derived from it with With.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// Logger writes leveled lines of the form
//
//	[15:04:05] molparse [INFO] message key=value
type Logger struct {
	sink   *sink
	prefix string
	fields string
}

const defaultPrefix = "molparse"

var defaultLogger = New(os.Stderr, LevelInfo)

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// New creates a new logger.
func New(output io.Writer, level Level) *Logger {
	return &Logger{
		sink:   &sink{level: level, output: output},
		prefix: defaultPrefix,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, LevelNone)
}

// With returns a logger that appends the given key/value pairs to every
// line. It shares level and output with l.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{
		sink:   l.sink,
		prefix: l.prefix,
		fields: l.fields + formatFields(kv),
	}
}

// Named returns a logger whose prefix is extended with name, e.g.
// "molparse.engine".
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		sink:   l.sink,
		prefix: l.prefix + "." + name,
		fields: l.fields,
	}
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level != LevelNone && level >= l.Level()
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

func (l *Logger) log(level Level, msg string, kv []any) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	_, _ = fmt.Fprintf(l.sink.output, "[%s] %s [%s] %s%s%s\n",
		timestamp, l.prefix, level.String(), msg, l.fields, formatFields(kv))
}

// formatFields renders pairs as " k=v k2=v2". A trailing key without a
// value is rendered with "<missing>".
func formatFields(kv []any) string {
	if len(kv) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(kv); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteByte('=')
		if i+1 < len(kv) {
			sb.WriteString(formatValue(kv[i+1]))
		} else {
			sb.WriteString("<missing>")
		}
	}
	return sb.String()
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Debug logs a debug message with optional key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(LevelDebug, msg, kv)
}

// Info logs an info message.
func (l *Logger) Info(msg string, kv ...any) {
	l.log(LevelInfo, msg, kv)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(LevelWarn, msg, kv)
}

// Error logs an error message.
func (l *Logger) Error(msg string, kv ...any) {
	l.log(LevelError, msg, kv)
}

// Package-level convenience functions.

// Debug logs a debug message using the default logger.
func Debug(msg string, kv ...any) {
	defaultLogger.Debug(msg, kv...)
}

// Info logs an info message using the default logger.
func Info(msg string, kv ...any) {
	defaultLogger.Info(msg, kv...)
}

// Warn logs a warning message using the default logger.
func Warn(msg string, kv ...any) {
	defaultLogger.Warn(msg, kv...)
}

// Error logs an error message using the default logger.
func Error(msg string, kv ...any) {
	defaultLogger.Error(msg, kv...)
}

// SetLevel sets the level of the default logger.
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output of the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// Disable disables all logging.
func Disable() {
	defaultLogger.SetLevel(LevelNone)
}
