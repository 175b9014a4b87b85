package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// helper to install an observed logger at debug level
func setupTestLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestGetRequestID(t *testing.T) {
	// valid request ID
	ctxWithID := context.WithValue(context.Background(), requestIDKey, "id123")
	assert.Equal(t, "id123", GetRequestID(ctxWithID))

	// no request ID returns empty string
	assert.Empty(t, GetRequestID(context.Background()))

	// request ID with wrong type returns empty string
	ctxWrongType := context.WithValue(context.Background(), requestIDKey, 42)
	assert.Empty(t, GetRequestID(ctxWrongType))
}

func TestCtxLogging_InjectsRequestID(t *testing.T) {
	logs := setupTestLogger(t)

	ctx := WithRequestID(context.Background(), "req-edge")
	CtxInfo(ctx, "info with reqid")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "info with reqid", entry.Message)
	assert.Equal(t, "req-edge", entry.ContextMap()["request_id"])
}

func TestCtxLogging_NoRequestID(t *testing.T) {
	logs := setupTestLogger(t)

	CtxWarn(context.Background(), "warn without reqid")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.NotContains(t, entry.ContextMap(), "request_id")
}

func TestCtxError_IncludesErrorAndRequestID(t *testing.T) {
	logs := setupTestLogger(t)

	ctx := WithRequestID(context.Background(), "req-error")
	CtxError(ctx, "error occurred", errors.New("fatal error"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "fatal error", fields["error"])
	assert.Equal(t, "req-error", fields["request_id"])
}

func TestNonContextLogging(t *testing.T) {
	logs := setupTestLogger(t)

	Info("info message", zap.String("k", "v"))
	Debug("debug message")
	Warn("warn message")
	Error("error message", errors.New("fail"))

	require.Equal(t, 4, logs.Len())
	assert.Equal(t, "v", logs.All()[0].ContextMap()["k"])
	assert.Equal(t, zapcore.DebugLevel, logs.All()[1].Level)
	assert.Equal(t, "fail", logs.All()[3].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestInit_DoesNotPanic(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })
	assert.NotPanics(t, func() {
		Init("debug")
		Info("after init")
	})
}
