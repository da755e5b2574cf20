// Package logging implements the leveled, per-subsystem logger shared by
// every other package in this module. It favors an explicit *Logger value
// passed to constructors over a package-global singleton so that more than
// one console.Console (as in tests) never shares mutable log state.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Level is a logging verbosity level.
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ParseLevel converts a string such as "debug" into a Level, defaulting to
// LevelInfo for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "off":
		return LevelOff
	case "error":
		return LevelError
	case "warn":
		return LevelWarn
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	default:
		return LevelInfo
	}
}

// Subsystem identifies which component emitted a log line, so each can be
// enabled independently at the same Level.
type Subsystem string

const (
	SubsystemCPU     Subsystem = "CPU"
	SubsystemPPU     Subsystem = "PPU"
	SubsystemAPU     Subsystem = "APU"
	SubsystemMapper  Subsystem = "MAPPER"
	SubsystemGeneral Subsystem = "INFO"
)

// Logger is a small leveled logger with independent per-subsystem gates,
// in the spirit of the original console's CPU/PPU/APU/mapper trace flags.
type Logger struct {
	level   Level
	writer  io.Writer
	closer  io.Closer
	enabled map[Subsystem]bool
}

// New creates a Logger writing to stdout at the given level with no
// per-subsystem tracing enabled.
func New(level Level) *Logger {
	return &Logger{
		level:  level,
		writer: os.Stdout,
		enabled: map[Subsystem]bool{
			SubsystemGeneral: true,
		},
	}
}

// NewFile creates a Logger writing to the named file, truncating it.
func NewFile(level Level, path string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("logging: failed to create log file: %w", err)
	}
	l := New(level)
	l.writer = f
	l.closer = f
	return l, nil
}

// Discard is a Logger that drops everything; tests construct consoles with
// this to avoid stdout noise.
func Discard() *Logger {
	l := New(LevelOff)
	l.writer = io.Discard
	return l
}

// Enable turns on tracing for a given subsystem; its output is still
// gated by the logger's level.
func (l *Logger) Enable(s Subsystem) {
	if l == nil {
		return
	}
	l.enabled[s] = true
}

// Disable turns off tracing for a given subsystem.
func (l *Logger) Disable(s Subsystem) {
	if l == nil {
		return
	}
	l.enabled[s] = false
}

// Close releases the underlying file, if any.
func (l *Logger) Close() {
	if l == nil || l.closer == nil {
		return
	}
	l.closer.Close()
}

func (l *Logger) log(minLevel Level, s Subsystem, format string, args ...interface{}) {
	if l == nil || l.level < minLevel || !l.enabled[s] {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.writer, "[%s] %s: %s\n", ts, s, fmt.Sprintf(format, args...))
}

// CPU logs a CPU-subsystem trace line at Debug level.
func (l *Logger) CPU(format string, args ...interface{}) { l.log(LevelDebug, SubsystemCPU, format, args...) }

// PPU logs a PPU-subsystem trace line at Trace level.
func (l *Logger) PPU(format string, args ...interface{}) { l.log(LevelTrace, SubsystemPPU, format, args...) }

// APU logs an APU-subsystem trace line at Debug level.
func (l *Logger) APU(format string, args ...interface{}) { l.log(LevelDebug, SubsystemAPU, format, args...) }

// Mapper logs a mapper-subsystem trace line at Debug level.
func (l *Logger) Mapper(format string, args ...interface{}) {
	l.log(LevelDebug, SubsystemMapper, format, args...)
}

// Info logs a general informational line.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, SubsystemGeneral, format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, SubsystemGeneral, format, args...)
}

// Error logs an error. Errors are never suppressed by per-subsystem gates.
func (l *Logger) Error(format string, args ...interface{}) {
	if l == nil || l.level < LevelError {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.writer, "[%s] ERROR: %s\n", ts, fmt.Sprintf(format, args...))
}
