// Package logging provides the level-filtered logger shared by flowguide components.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger prefixes every line with a timestamp, level and component name.
// A nil *Logger discards everything.
type Logger struct {
	logger    *log.Logger
	level     LogLevel
	component string
}

func New(logger *log.Logger, level LogLevel) *Logger {
	return &Logger{logger: logger, level: level}
}

// NewWriter builds a Logger writing to w with no stdlib prefix or flags.
func NewWriter(w io.Writer, level LogLevel) *Logger {
	return New(log.New(w, "", 0), level)
}

// With returns a copy tagged with component.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	cp := *l
	cp.component = component
	return &cp
}

func (l *Logger) Enabled(level LogLevel) bool {
	return l != nil && level >= l.level
}

func (l *Logger) Logf(level LogLevel, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.logger.Printf("%s %s %s: %s", time.Now().Format(time.RFC3339), level, l.component, msg)
		return
	}
	l.logger.Printf("%s %s %s", time.Now().Format(time.RFC3339), level, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.Logf(LogLevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.Logf(LogLevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Logf(LogLevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.Logf(LogLevelError, format, args...) }
