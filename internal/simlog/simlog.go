// Package simlog provides the leveled logging facade used across the
// simulator. It keeps the teacher's (ehrlich-b-go-ublk/internal/logging)
// small Debug/Info/Warn/Error + Printf-style API, but backs it with
// github.com/rs/zerolog instead of a hand-rolled log.Logger, following the
// rest of the retrieval pack's convention of wrapping a real structured
// logger behind one facade (joeycumines-go-utilpkg/logiface-zerolog does
// the same thing for a different facade shape).
package simlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level mirrors the teacher's LogLevel enum.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger wraps a zerolog.Logger with the level-gated helper methods the
// rest of this codebase calls.
type Logger struct {
	zl zerolog.Logger
}

// Config holds logger construction parameters, mirroring the teacher's
// logging.Config{Level, Output}.
type Config struct {
	Level  Level
	Output io.Writer
}

// DefaultConfig returns sensible defaults: Info level, stderr, console
// writer (human-readable, matching the teacher's plain-text output).
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Output: os.Stderr}
}

// New constructs a Logger from Config, defaulting a nil Config.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	zl := zerolog.New(cw).With().Timestamp().Logger().Level(cfg.Level.zerolog())
	return &Logger{zl: zl}
}

// With returns a child logger with a component field set, analogous to
// zerolog's sub-logger pattern used throughout the pack's logiface wrappers.
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(zerolog.DebugLevel, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(zerolog.InfoLevel, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(zerolog.WarnLevel, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(zerolog.ErrorLevel, msg, args...) }

func (l *Logger) log(level zerolog.Level, msg string, args ...any) {
	ev := l.zl.WithLevel(level)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}

// Debugf/Infof/Warnf/Errorf are printf-style conveniences, matching the
// teacher's Logger.Debugf/Infof/Warnf/Errorf.
func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Printf is kept for drop-in compatibility with code written against the
// teacher's Logger.Printf convenience (maps to Info).
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Default returns the process-wide default logger, creating it on first use.
func Default() *Logger {
	defaultMu.RLock()
	if defaultLogger != nil {
		defer defaultMu.RUnlock()
		return defaultLogger
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
