package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide log sink
type Options struct {
	// Verbose enables debug and info output
	Verbose bool

	// File is the log destination. Empty means stderr.
	File string
}

// Field represents a key-value pair for structured logging
type Field = zap.Field

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

// Setup installs the process-wide sink. The returned function flushes and
// releases it.
func Setup(opts Options) (func() error, error) {
	SetVerbose(opts.Verbose)

	var sink zapcore.WriteSyncer
	closer := func() error { return nil }

	if opts.File == "" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		path := expandPath(opts.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		// #nosec G304 - path comes from validated configuration
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		closer = f.Close
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encoderCfg.EncodeCaller = nil
	encoderCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), sink, level)
	UseCore(core)

	return func() error {
		_ = Current().Sync()
		return closer()
	}, nil
}

// UseCore replaces the sink with the given core. Tests use it with zaptest/observer.
func UseCore(core zapcore.Core) {
	mu.Lock()
	defer mu.Unlock()
	base = zap.New(core)
}

// Reset discards the sink
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	base = zap.NewNop()
}

// Current returns the underlying zap logger
func Current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetVerbose toggles debug output
func SetVerbose(verbose bool) {
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.WarnLevel)
}

// IsVerbose reports whether debug output is enabled
func IsVerbose() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// Level exposes the shared level so observer cores can follow it
func Level() zap.AtomicLevel {
	return level
}

// Logger provides structured logging scoped to a component
type Logger struct {
	component string
}

// New creates a new logger instance
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithComponent creates a logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) zap() *zap.Logger {
	component := l.component
	if component == "" {
		component = "main"
	}
	return Current().Named(component)
}

// Debug logs debug messages (only when verbose)
func (l *Logger) Debug(msg string, fields ...Field) {
	l.zap().Debug(msg, fields...)
}

// Info logs informational messages (only when verbose)
func (l *Logger) Info(msg string, fields ...Field) {
	l.zap().Info(msg, fields...)
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, fields ...Field) {
	l.zap().Warn(msg, fields...)
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, fields ...Field) {
	l.zap().Error(msg, fields...)
}

// Helper functions for common field types
func F(key string, value interface{}) Field {
	return zap.Any(key, value)
}

func Count(value int) Field {
	return zap.Int("count", value)
}

func Duration(d time.Duration) Field {
	return zap.Duration("duration", d)
}

func Error(err error) Field {
	return zap.Error(err)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
