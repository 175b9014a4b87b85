package logger

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Define context key for request ID
type contextKey string

const requestIDKey contextKey = "request_id"

var (
	mu  sync.RWMutex
	log = zap.NewNop()
)

func init() {
	Init("info")
}

// GetRequestID retrieves request_id from context, returns empty string if missing
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID returns a new context with the given request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func parseLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Init sets up the global JSON logger writing to stdout
func Init(logLevel string) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parseLevel(logLevel))
	config.Encoding = "json"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "log_level"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.StacktraceKey = ""
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stdout"}

	built, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return
	}
	SetLogger(built)
}

// SetLogger replaces the global logger. Used by tests to observe output.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	log = l
	mu.Unlock()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func withRequestID(ctx context.Context, fields []zap.Field) []zap.Field {
	if reqID := GetRequestID(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	return fields
}

// CONTEXT-AWARE LOGGING //

// CtxInfo logs an info message with request ID
func CtxInfo(ctx context.Context, msg string, fields ...zap.Field) {
	current().Info(msg, withRequestID(ctx, fields)...)
}

// CtxError logs an error with request ID and error detail
func CtxError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = withRequestID(ctx, fields)
	current().Error(msg, append(fields, zap.Error(err))...)
}

// CtxDebug logs debug messages
func CtxDebug(ctx context.Context, msg string, fields ...zap.Field) {
	current().Debug(msg, withRequestID(ctx, fields)...)
}

// CtxWarn logs warnings
func CtxWarn(ctx context.Context, msg string, fields ...zap.Field) {
	current().Warn(msg, withRequestID(ctx, fields)...)
}

// NON-CONTEXT LOGGING //

func Info(msg string, fields ...zap.Field) {
	current().Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	current().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	current().Warn(msg, fields...)
}

func Error(msg string, err error, fields ...zap.Field) {
	current().Error(msg, append(fields, zap.Error(err))...)
}

// Sync flushes buffered log entries.
func Sync() error {
	return current().Sync()
}
