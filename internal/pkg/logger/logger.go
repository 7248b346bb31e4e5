// Package logger provides a global, Sugared Zap logger that emits JSON to
// stdout. Loggers can be enriched with key/value pairs and carried in a
// context; every entry written with a context that holds an active span is
// tagged with its trace and span ids.
package logger

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// baseLogger is the process-wide logger configured by Init.
	baseLogger *zap.SugaredLogger

	// initBaseLoggerOnce guards the one-time configuration of baseLogger.
	initBaseLoggerOnce sync.Once
)

// ctxKeyType is the unexported type of the context key holding a derived logger.
type ctxKeyType struct{}

var ctxKey = ctxKeyType{}

// Init configures the global logger at the given minimum level ("debug",
// "info", "warn", "error"). Only the first successful call takes effect.
//
// Returns an error if the level cannot be parsed.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	initBaseLoggerOnce.Do(func() {
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			lvl,
		)
		baseLogger = zap.New(core).Sugar()
	})

	return nil
}

// Sync flushes buffered entries. Call it on shutdown. It panics if Init was
// never called.
func Sync() error {
	return baseLogger.Sync()
}

// deriveFromCtx returns the logger stored in ctx (or the base logger) with
// keysAndValues attached.
func deriveFromCtx(ctx context.Context, keysAndValues ...any) *zap.SugaredLogger {
	l, ok := ctx.Value(ctxKey).(*zap.SugaredLogger)
	if !ok {
		l = baseLogger
	}

	if l == nil || len(keysAndValues) == 0 {
		return l
	}
	return l.With(keysAndValues...)
}

// Derive returns a child context whose logger carries keysAndValues on every
// entry logged through it.
func Derive(ctx context.Context, keysAndValues ...any) context.Context {
	return context.WithValue(ctx, ctxKey, deriveFromCtx(ctx, keysAndValues...))
}

// log writes one entry through the context logger. Entries are dropped if the
// logger was never initialized.
func log(ctx context.Context, level zapcore.Level, msg string, keysAndValues ...any) {
	l := deriveFromCtx(ctx)
	if l == nil {
		return
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		keysAndValues = append(keysAndValues,
			"trace.id", sc.TraceID().String(),
			"span.id", sc.SpanID().String(),
		)
	}

	l.Logw(level, msg, keysAndValues...)
}

// Debug logs a debug-level message with optional key/value context.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.DebugLevel, msg, keysAndValues...)
}

// Info logs an info-level message with optional key/value context.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.InfoLevel, msg, keysAndValues...)
}

// Warn logs a warn-level message with optional key/value context.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.WarnLevel, msg, keysAndValues...)
}

// Error logs an error-level message with optional key/value context.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	log(ctx, zapcore.ErrorLevel, msg, keysAndValues...)
}
