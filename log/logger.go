// Package log provides structured logging with transfer context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for transport and protocol paths
//     (high performance, structured fields)
//   - SugaredLogger: Printf-style logging for CLI/debug surfaces
//     (convenience over performance)
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
// Packages that accept a *Logger treat nil as "no logging".
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging with worker context. All entries
// carry the worker id so interleaved transfers remain attributable.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI and debug surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger for the given worker.
// Output defaults to os.Stderr.
func NewLogger(workerID string) *Logger {
	return newLoggerWithWriter(workerID, zapcore.InfoLevel, os.Stderr)
}

// NewLoggerAt creates a logger for the given worker at an explicit level.
func NewLoggerAt(workerID string, level zapcore.Level) *Logger {
	return newLoggerWithWriter(workerID, level, os.Stderr)
}

// NewNop returns a logger that discards everything. Useful as an
// explicit placeholder where nil would be ambiguous.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithOutput returns a new logger with a different output writer.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

// With returns a child logger carrying additional context fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zap: l.zap.With(fields...)}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

func newLoggerWithWriter(workerID string, level zapcore.Level, w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	zapLogger := zap.New(core).With(zap.String("worker_id", workerID))
	return &Logger{zap: zapLogger}
}

// Debug logs a debug message. Nil-receiver safe.
func (l *Logger) Debug(message string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.zap.Debug(message, fields...)
}

// Info logs an info message. Nil-receiver safe.
func (l *Logger) Info(message string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.zap.Info(message, fields...)
}

// Warn logs a warning message. Nil-receiver safe.
func (l *Logger) Warn(message string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.zap.Warn(message, fields...)
}

// Error logs an error message. Nil-receiver safe.
func (l *Logger) Error(message string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.zap.Error(message, fields...)
}

// Sugar returns a SugaredLogger for printf-style logging.
// Use for CLI/debug surfaces where convenience matters more than performance.
func (l *Logger) Sugar() *SugaredLogger {
	if l == nil {
		return &SugaredLogger{sugar: zap.NewNop().Sugar()}
	}
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
