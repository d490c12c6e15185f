package bootstrap

import (
	"careers-ui-suite/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(&config.Config{AppConfig: &config.AppConfig{LogLevel: "warn"}})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = newLogger(&config.Config{AppConfig: &config.AppConfig{LogLevel: "loud"}})
	require.Error(t, err)
}

func TestAppGraph(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TRACE_ENABLED", "false")

	var suite *Suite
	require.NoError(t, fx.ValidateApp(Module, fx.Populate(&suite)))
}
