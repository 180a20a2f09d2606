package logger

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midiroute/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of Uber's zap.
type ZapLogger struct {
	logger atomic.Pointer[zap.Logger]
	level  zap.AtomicLevel
}

func newZapLogger(l *zap.Logger, level zap.AtomicLevel) *ZapLogger {
	z := &ZapLogger{level: level}
	z.logger.Store(l)
	return z
}

// NewZapLogger creates a production zap logger writing JSON to stderr.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	return newZapLogger(logger, level)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() contracts.Logger {
	return newZapLogger(zap.NewNop(), zap.NewAtomicLevel())
}

// Wrap adapts an existing zap logger. The level of the wrapped core still
// applies; SetLevel can only raise the threshold above it.
func Wrap(l *zap.Logger) contracts.Logger {
	return newZapLogger(l.WithOptions(zap.AddCallerSkip(1)), zap.NewAtomicLevelAt(zapcore.DebugLevel))
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
	os.Exit(1)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination rebuilds the underlying logger to write to the console or to
// the first given file path.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {
	cfg := zap.NewProductionConfig()
	cfg.Level = z.level
	switch dest {
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			z.Warn("File log destination requested without a path; keeping current destination")
			return
		}
		cfg.OutputPaths = []string{filePath[0]}
		cfg.ErrorOutputPaths = []string{filePath[0]}
	default:
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z.Error("Failed to change log destination", z.Field().Error("error", err))
		return
	}
	old := z.logger.Swap(logger)
	_ = old.Sync()
}

// Sync flushes buffered log entries.
func (z *ZapLogger) Sync() error {
	return z.logger.Load().Sync()
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}
	ce := z.logger.Load().Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(fields)...)
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []contracts.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(zapField); ok && f.key != "" {
			out = append(out, f.field)
		}
	}
	return out
}

// zapField implements contracts.Field
type zapField struct {
	key   string
	field zap.Field
}

func (zapField) Bool(key string, val bool) contracts.Field {
	return zapField{key, zap.Bool(key, val)}
}

func (zapField) Int(key string, val int) contracts.Field {
	return zapField{key, zap.Int(key, val)}
}

func (zapField) Float64(key string, val float64) contracts.Field {
	return zapField{key, zap.Float64(key, val)}
}

func (zapField) String(key string, val string) contracts.Field {
	return zapField{key, zap.String(key, val)}
}

func (zapField) Time(key string, val time.Time) contracts.Field {
	return zapField{key, zap.Time(key, val)}
}

func (zapField) Int64(key string, val int64) contracts.Field {
	return zapField{key, zap.Int64(key, val)}
}

func (zapField) Error(key string, val error) contracts.Field {
	return zapField{key, zap.NamedError(key, val)}
}

func (zapField) Uint64(key string, val uint64) contracts.Field {
	return zapField{key, zap.Uint64(key, val)}
}

func (zapField) Uint8(key string, val uint8) contracts.Field {
	return zapField{key, zap.Uint8(key, val)}
}

func (zapField) Bytes(key string, val []byte) contracts.Field {
	return zapField{key, zap.Binary(key, val)}
}
