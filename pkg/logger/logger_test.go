package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLoggerReportsErrorsBeforeInit(t *testing.T) {
	assert.True(t, L().Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))
}

func TestFallbackWritesStartupFailure(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	var buf bytes.Buffer
	Set(newFallback(zapcore.AddSync(&buf)))

	Info("not shown")
	Error("startup failed", zap.Error(errors.New("missing required config: database.dsn")))

	out := buf.String()
	assert.NotContains(t, out, "not shown")
	assert.Contains(t, out, `"msg":"startup failed"`)
	assert.Contains(t, out, "database.dsn")
}
