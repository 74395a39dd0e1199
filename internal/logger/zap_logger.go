package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/octetta/gomidio/sdk/contracts"
)

// zapLogger adapts contracts.Logger to go.uber.org/zap: a console-only
// counterpart of StandardLogger backed by a real structured logging library
// instead of fmt.Println.
type zapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewZapLogger builds the zap-backed contracts.Logger referenced (but never
// implemented) by the teacher's client bootstrap. Console output, ISO8601
// timestamps, InfoLevel default.
func NewZapLogger() contracts.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		level,
	)

	return &zapLogger{
		base:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level: level,
	}
}

func (l *zapLogger) Info(msg string, fields ...contracts.Field) {
	l.base.Info(msg, toZapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...contracts.Field) {
	l.base.Error(msg, toZapFields(fields)...)
}

func (l *zapLogger) Debug(msg string, fields ...contracts.Field) {
	l.base.Debug(msg, toZapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...contracts.Field) {
	l.base.Warn(msg, toZapFields(fields)...)
}

func (l *zapLogger) Fatal(msg string, fields ...contracts.Field) {
	l.base.Fatal(msg, toZapFields(fields)...)
}

func (l *zapLogger) Field() contracts.Field {
	return &zapField{}
}

func (l *zapLogger) SetLevel(level contracts.LogLevel) {
	l.level.SetLevel(toZapLevel(level))
}

// SetDestination is a no-op for the zap logger beyond console: the console
// encoder already writes to a locked os.Stdout sink, and file rotation is
// out of scope for this module's logging needs. StandardLogger remains the
// dependency-free option for callers that need file output.
func (l *zapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) {}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// zapField implements contracts.Field by building up a slice of zap.Field
// values, matching the fluent style the Field interface exposes.
type zapField struct {
	fields []zap.Field
}

func (f *zapField) append(field zap.Field) contracts.Field {
	return &zapField{fields: append(append([]zap.Field{}, f.fields...), field)}
}

func (f *zapField) Bool(key string, val bool) contracts.Field       { return f.append(zap.Bool(key, val)) }
func (f *zapField) Int(key string, val int) contracts.Field         { return f.append(zap.Int(key, val)) }
func (f *zapField) Float64(key string, val float64) contracts.Field { return f.append(zap.Float64(key, val)) }
func (f *zapField) String(key string, val string) contracts.Field   { return f.append(zap.String(key, val)) }
func (f *zapField) Time(key string, val time.Time) contracts.Field  { return f.append(zap.Time(key, val)) }
func (f *zapField) Int64(key string, val int64) contracts.Field     { return f.append(zap.Int64(key, val)) }
func (f *zapField) Error(key string, val error) contracts.Field     { return f.append(zap.NamedError(key, val)) }
func (f *zapField) Uint64(key string, val uint64) contracts.Field   { return f.append(zap.Uint64(key, val)) }
func (f *zapField) Uint8(key string, val uint8) contracts.Field     { return f.append(zap.Uint8(key, val)) }

func toZapFields(fields []contracts.Field) []zap.Field {
	var out []zap.Field
	for _, f := range fields {
		if zf, ok := f.(*zapField); ok {
			out = append(out, zf.fields...)
		}
	}
	return out
}
