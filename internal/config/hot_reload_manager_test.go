package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHotReload(t *testing.T) (*HotReloadManager, Manager, string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	base, err := NewManager(configPath)
	require.NoError(t, err)

	hr, err := NewHotReloadManager(base, configPath, zap.NewNop())
	require.NoError(t, err)
	return hr, base, configPath
}

// TestHotReloadManager_CreatesDefault 文件不存在时写入默认配置
func TestHotReloadManager_CreatesDefault(t *testing.T) {
	hr, _, configPath := newHotReload(t)
	defer hr.Stop()

	cfg, err := hr.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL)

	_, err = os.Stat(configPath)
	assert.NoError(t, err)
}

// TestHotReloadManager_ReloadsServerChange 外部修改 server 段后回调收到新配置
func TestHotReloadManager_ReloadsServerChange(t *testing.T) {
	hr, base, _ := newHotReload(t)
	defer hr.Stop()

	changes := make(chan *Config, 10)
	hr.OnConfigChange(func(cfg *Config) { changes <- cfg })

	next := DefaultConfig()
	next.Server.BaseURL = "http://other:9999"
	require.NoError(t, base.Save(next))

	select {
	case cfg := <-changes:
		assert.Equal(t, "http://other:9999", cfg.Server.BaseURL)
	case <-time.After(2 * time.Second):
		t.Fatal("config change was not delivered")
	}

	assert.Eventually(t, func() bool {
		cfg, err := hr.Load()
		return err == nil && cfg.Server.BaseURL == "http://other:9999"
	}, time.Second, 20*time.Millisecond)
}

func TestHotReloadManager_UpdateServer(t *testing.T) {
	hr, _, _ := newHotReload(t)
	defer hr.Stop()

	changes := make(chan *Config, 10)
	hr.OnConfigChange(func(cfg *Config) { changes <- cfg })

	require.NoError(t, hr.UpdateServer(ServerConfig{BaseURL: "http://jupyter", Token: "tok"}))

	cfg, err := hr.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Server.Token)

	select {
	case cfg := <-changes:
		assert.Equal(t, "http://jupyter", cfg.Server.BaseURL)
	case <-time.After(time.Second):
		t.Fatal("callback not called")
	}
}

// TestHotReloadManager_KeepsConfigOnBadFile 删除或写坏文件时保留内存中的配置
func TestHotReloadManager_KeepsConfigOnBadFile(t *testing.T) {
	hr, _, configPath := newHotReload(t)
	defer hr.Stop()

	require.NoError(t, hr.UpdateRemote("github.com", RemoteConfig{Username: "ann"}))

	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0600))
	time.Sleep(300 * time.Millisecond)
	cfg, err := hr.Load()
	require.NoError(t, err)
	assert.Equal(t, "ann", cfg.Remotes["github.com"].Username)

	require.NoError(t, os.Remove(configPath))
	time.Sleep(300 * time.Millisecond)
	cfg, err = hr.Load()
	require.NoError(t, err)
	assert.Equal(t, "ann", cfg.Remotes["github.com"].Username)
}

func TestHotReloadManager_CallbackPanic(t *testing.T) {
	hr, _, _ := newHotReload(t)
	defer hr.Stop()

	hr.OnConfigChange(func(*Config) { panic("test panic") })
	called := make(chan struct{}, 10)
	hr.OnConfigChange(func(*Config) { called <- struct{}{} })

	require.NoError(t, hr.UpdateRemote("panic.test", RemoteConfig{Username: "x"}))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("normal callback not called")
	}
}

func TestHotReloadManager_StopCleanup(t *testing.T) {
	hr, base, _ := newHotReload(t)

	called := make(chan struct{}, 10)
	hr.OnConfigChange(func(*Config) { called <- struct{}{} })
	require.NoError(t, hr.Stop())

	require.NoError(t, base.Save(&Config{Version: "99.0.0"}))
	select {
	case <-called:
		t.Fatal("callback called after Stop")
	case <-time.After(300 * time.Millisecond):
	}
}
