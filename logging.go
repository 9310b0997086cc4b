package vertexshim

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log messages by severity.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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
	default:
		return fmt.Sprintf("Level(%d)", int8(l))
	}
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type Logger interface {
	Enabled(level Level) bool
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes debug and info to one writer and warnings and errors
// to another. Loggers created with Named share the parent's writers and level.
type DefaultLogger struct {
	shared *loggerState
	prefix string
}

type loggerState struct {
	mu    sync.Mutex
	level Level
	out   *log.Logger
	err   *log.Logger
}

func NewDefaultLogger(prefix string, level Level) *DefaultLogger {
	return newLoggerTo(prefix, level, os.Stdout, os.Stderr)
}

func newLoggerTo(prefix string, level Level, out, errOut io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		shared: &loggerState{
			level: level,
			out:   log.New(out, "", flags),
			err:   log.New(errOut, "", flags),
		},
		prefix: prefix,
	}
}

// NewLogger builds the default logger described by cfg. Debug overrides
// the configured level.
func NewLogger(cfg Config) *DefaultLogger {
	return NewDefaultLogger(cfg.LogPrefix, cfg.Level())
}

// Named returns a logger whose prefix is extended by name.
func (l *DefaultLogger) Named(name string) *DefaultLogger {
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "/" + name
	}
	return &DefaultLogger{shared: l.shared, prefix: prefix}
}

func (l *DefaultLogger) Prefix() string { return l.prefix }

func (l *DefaultLogger) SetLevel(level Level) {
	l.shared.mu.Lock()
	l.shared.level = level
	l.shared.mu.Unlock()
}

func (l *DefaultLogger) Enabled(level Level) bool {
	l.shared.mu.Lock()
	defer l.shared.mu.Unlock()
	return level >= l.shared.level
}

func (l *DefaultLogger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	} else {
		msg = fmt.Sprintf("%s: %s", level, msg)
	}
	if level >= LevelWarn {
		l.shared.err.Print(msg)
		return
	}
	l.shared.out.Print(msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// Nop logger

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Enabled(Level) bool                { return false }
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}
