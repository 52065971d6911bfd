package logger

import (
	"io"
	"log"
	"os"
)

// Logger provides simplified logging with prefixes. A nil *Logger discards
// everything, so components can take one as an optional dependency.
type Logger struct {
	prefix string
	out    *log.Logger
	debug  bool
}

// New creates a new logger with a prefix writing to stderr.
func New(prefix string) *Logger {
	return NewWithWriter(prefix, os.Stderr)
}

// NewWithWriter creates a new logger with a prefix writing to w.
func NewWithWriter(prefix string, w io.Writer) *Logger {
	return &Logger{
		prefix: "[" + prefix + "]",
		out:    log.New(w, "", log.LstdFlags),
	}
}

// SetDebug enables or disables Debug output.
func (l *Logger) SetDebug(on bool) {
	if l != nil {
		l.debug = on
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.output("INFO", msg, nil, args)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.output("WARN", msg, nil, args)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, args ...interface{}) {
	l.output("ERROR", msg, err, args)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.output("DEBUG", msg, nil, args)
}

func (l *Logger) output(level, msg string, err error, args []interface{}) {
	if l == nil {
		return
	}
	switch {
	case err != nil && len(args) > 0:
		l.out.Printf("%s %s: %s - %v %v", l.prefix, level, msg, err, args)
	case err != nil:
		l.out.Printf("%s %s: %s - %v", l.prefix, level, msg, err)
	case len(args) > 0:
		l.out.Printf("%s %s: %s %v", l.prefix, level, msg, args)
	default:
		l.out.Printf("%s %s: %s", l.prefix, level, msg)
	}
}
