package logger

import (
	"codenest_backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestApplyConfigSwitchesLevel(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zap.InfoLevel) })

	ApplyConfig(&config.Config{Server: config.ServerConfig{Mode: "debug"}})
	assert.Equal(t, zap.DebugLevel, CurrentLevel())

	ApplyConfig(&config.Config{Server: config.ServerConfig{Mode: "release"}})
	assert.Equal(t, zap.InfoLevel, CurrentLevel())
}
