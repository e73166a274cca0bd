package configwatcher

import (
	"codenest_backend/internal/config"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configTemplate = `server:
  mode: %s
jwt:
  secret: watcher-test-secret-watcher-test-secret
database:
  driver: postgres
storage:
  type: minio
`

func writeConfig(t *testing.T, path, mode string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(configTemplate, mode)), 0644))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "debug")

	var lastMode atomic.Value
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(cfg *config.Config) {
			lastMode.Store(cfg.Server.Mode)
		})
	}()

	// 等待 watcher 完成注册
	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, "release")

	assert.Eventually(t, func() bool {
		mode, _ := lastMode.Load().(string)
		return mode == "release"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchMissingFile(t *testing.T) {
	err := Watch(context.Background(), t.TempDir(), func(*config.Config) {})
	assert.Error(t, err)
}
