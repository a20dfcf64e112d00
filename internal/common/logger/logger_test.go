package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "test"})

	log.Warn("delivery failed", map[string]interface{}{
		"applicationId": "app-1",
		"error":         errors.New("connection refused"),
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "delivery failed", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "test", ctx["component"])
	assert.Equal(t, "app-1", ctx["applicationId"])
	assert.Equal(t, "connection refused", ctx["error"])
}

func TestNew_LevelParsing(t *testing.T) {
	l := New("warn", "console", "stderr")
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l = New("debug", "json", "")
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
