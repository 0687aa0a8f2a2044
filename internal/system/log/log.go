// Package log provides the structured logger shared across the service.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LoggerKeyComponentName is the field used to tag log lines with the emitting component.
const LoggerKeyComponentName = "component"

// Field is a single structured log attribute.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field holding an arbitrary value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Error creates the conventional "error" field.
func Error(err error) Field {
	if err == nil {
		return Field{Key: logrus.ErrorKey, Value: nil}
	}
	return Field{Key: logrus.ErrorKey, Value: err.Error()}
}

// Logger wraps a logrus entry so call sites can pass typed fields.
type Logger struct {
	entry *logrus.Entry
}

var (
	instance *Logger
	once     sync.Once
)

// GetLogger returns the process-wide logger, creating a JSON logger at info level on first use.
func GetLogger() *Logger {
	once.Do(func() {
		if instance == nil {
			base := logrus.New()
			base.SetFormatter(&logrus.JSONFormatter{})
			base.SetOutput(os.Stdout)
			base.SetLevel(logrus.InfoLevel)
			instance = &Logger{entry: logrus.NewEntry(base)}
		}
	})
	return instance
}

// Configure applies level, format and output to the process-wide logger.
func Configure(level, format string, out io.Writer) error {
	logger := GetLogger()
	base := logger.entry.Logger

	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		base.SetLevel(parsed)
	}

	switch strings.ToLower(format) {
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "", "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	if out != nil {
		base.SetOutput(out)
	}
	return nil
}

// NewLogger wraps an existing logrus logger. Mainly used by tests to capture output.
func NewLogger(base *logrus.Logger) *Logger {
	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a child logger carrying the given fields on every line.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{entry: l.entry.WithFields(toLogrusFields(fields))}
}

// Level returns the current log level name.
func (l *Logger) Level() string {
	return l.entry.Logger.GetLevel().String()
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Fatal(msg)
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
