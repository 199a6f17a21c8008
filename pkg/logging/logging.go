// Package logging is the structured logging facade used across tts-eval.
// Components never talk to zap directly; they take a Logger and derive
// scoped children with WithFields.
package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a set of structured key/value pairs attached to a log entry
type Fields map[string]any

// Logger is the logging interface shared by every component
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type zapLogger struct {
	z *zap.Logger
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// NewLogger builds a zap backed logger. Format is "json" or "console".
func NewLogger(level, format string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

// NewFromZap wraps an existing zap logger
func NewFromZap(z *zap.Logger) Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &zapLogger{z: z}
}

// NewDefaultLogger returns the process default logger (info level, console)
func NewDefaultLogger() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		built, err := NewLogger("info", "console")
		if err != nil {
			built = NewFromZap(zap.NewNop())
		}
		defaultLogger = built
	}
	return defaultLogger
}

// SetDefault replaces the logger returned by NewDefaultLogger
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// WithFields derives a child of the default logger
func WithFields(fields Fields) Logger {
	return NewDefaultLogger().WithFields(fields)
}

// Error logs an error on the default logger
func Error(err error, msg string, fields ...Fields) {
	NewDefaultLogger().Error(err, msg, fields...)
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.z.Debug(msg, toZap(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.z.Info(msg, toZap(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.z.Warn(msg, toZap(fields)...)
}

func (l *zapLogger) Error(err error, msg string, fields ...Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	l.z.Error(msg, zf...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{z: l.z.With(toZap([]Fields{fields})...)}
}

// toZap flattens the field sets in key order so entries are stable
func toZap(sets []Fields) []zap.Field {
	if len(sets) == 0 {
		return nil
	}
	var out []zap.Field
	for _, set := range sets {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, zap.Any(k, set[k]))
		}
	}
	return out
}
