// Package logging provides structured JSON logging for the geodiversity
// tools.
//
// Log entries are single JSON objects written to a configurable writer,
// one per line, suitable for ingestion by log collectors. The zero cost
// of a suppressed level is one comparison.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string ("debug", "info", "warn",
// "error") into a Level. Unknown strings return InfoLevel and an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Fields holds structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger writes structured JSON log entries.
//
// A Logger is safe for concurrent use. Entries below the configured
// level are dropped.
type Logger struct {
	level  Level
	output io.Writer
	tool   string
	mu     sync.Mutex
}

// entry is the wire form of a single log line.
type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Tool      string    `json:"tool"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
	File      string    `json:"file,omitempty"`
	Line      int       `json:"line,omitempty"`
}

// New creates a Logger for the named tool writing to stderr.
func New(tool string, level Level) *Logger {
	return &Logger{
		level:  level,
		output: os.Stderr,
		tool:   tool,
	}
}

// Default returns an Info-level stderr logger under the "geodiv" tool name.
func Default() *Logger {
	return New("geodiv", InfoLevel)
}

// SetOutput redirects log output to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetLevel sets the minimum level that will be written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs a debug message with structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(DebugLevel, message, fields, nil)
}

// Info logs an informational message with structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(InfoLevel, message, fields, nil)
}

// Warn logs a warning with structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(WarnLevel, message, fields, nil)
}

// Error logs an error message. The error's text is attached to the entry
// along with the caller's file and line.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(ErrorLevel, message, fields, err)
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	l.mu.Lock()
	minLevel := l.level
	l.mu.Unlock()
	if level < minLevel {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Tool:      l.tool,
		Message:   message,
		Fields:    fields,
	}

	if level >= ErrorLevel {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.File = file
			e.Line = line
		}
		if err != nil {
			e.Error = err.Error()
		}
	}

	data, marshalErr := json.Marshal(e)
	if marshalErr != nil {
		// Fields contained something unmarshalable; degrade to plain text
		// rather than dropping the message.
		l.mu.Lock()
		defer l.mu.Unlock()
		fmt.Fprintf(l.output, "%s [%s] %s (marshal failed: %v)\n",
			e.Timestamp.Format(time.RFC3339), e.Level, message, marshalErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(data)
	l.output.Write([]byte("\n"))
}

// WithFields returns a ContextLogger that attaches the given fields to
// every entry it writes.
//
// Example:
//
//	runLog := log.WithFields(logging.Fields{"run_id": id, "metric": "A_SHDI"})
//	runLog.Info("catalog built", logging.Fields{"zones": n})
func (l *Logger) WithFields(fields Fields) *ContextLogger {
	return &ContextLogger{
		logger: l,
		fields: fields,
	}
}

// ContextLogger wraps a Logger with a fixed set of context fields.
type ContextLogger struct {
	logger *Logger
	fields Fields
}

// Debug logs a debug message with the context fields merged in.
func (c *ContextLogger) Debug(message string, fields Fields) {
	c.logger.Debug(message, c.mergeFields(fields))
}

// Info logs an informational message with the context fields merged in.
func (c *ContextLogger) Info(message string, fields Fields) {
	c.logger.Info(message, c.mergeFields(fields))
}

// Warn logs a warning with the context fields merged in.
func (c *ContextLogger) Warn(message string, fields Fields) {
	c.logger.Warn(message, c.mergeFields(fields))
}

// Error logs an error with the context fields merged in.
func (c *ContextLogger) Error(message string, fields Fields, err error) {
	c.logger.Error(message, c.mergeFields(fields), err)
}

// mergeFields merges per-call fields over the context fields. Per-call
// values win on key collision.
func (c *ContextLogger) mergeFields(fields Fields) Fields {
	merged := make(Fields, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}
