package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New("warn", "development")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = New("debug", "production")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "development")
	assert.Error(t, err)
}
