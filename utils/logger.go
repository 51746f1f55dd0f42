package utils

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLogLevel maps a config value to a level, defaulting to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger is a levelled printf-style logger on top of zap
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewLogger creates a new logger with the specified level. Output goes to
// stderr because stdout carries the MCP protocol.
func NewLogger(level LogLevel) *Logger {
	l, err := newFileLogger(level, "stderr")
	if err != nil {
		return newCoreLogger(zapcore.NewNopCore(), zap.NewAtomicLevelAt(level.zapLevel()))
	}
	return l
}

func newFileLogger(level LogLevel, path string) (*Logger, error) {
	atom := zap.NewAtomicLevelAt(level.zapLevel())

	cfg := zap.NewProductionConfig()
	cfg.Level = atom
	cfg.Encoding = "console"
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar(), level: atom}, nil
}

func newCoreLogger(core zapcore.Core, atom zap.AtomicLevel) *Logger {
	return &Logger{sugar: zap.New(core).Sugar(), level: atom}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// WithFields returns a new logger with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Logger{sugar: l.sugar.With(kv...), level: l.level}
}

// WithField returns a new logger with a single field added
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(key, value), level: l.level}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// Writer adapts the logger for libraries that want an io.Writer. Each
// write becomes one INFO entry.
func (l *Logger) Writer() io.Writer {
	return zap.NewStdLog(l.sugar.Desugar()).Writer()
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Global logger instance
var Log = NewLogger(INFO)

// InitLogger replaces the global logger. An empty file keeps stderr.
func InitLogger(level string, file string) error {
	path := "stderr"
	if file != "" {
		path = file
	}
	l, err := newFileLogger(ParseLogLevel(level), path)
	if err != nil {
		return err
	}
	Log = l
	return nil
}
