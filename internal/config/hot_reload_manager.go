package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/penwyp/gitpane/internal/errors"
)

// reloadDebounce 等待文件写入稳定的时间
const reloadDebounce = 100 * time.Millisecond

// HotReloadManager keeps the configuration in memory and reloads it when the
// file changes. The interactive header registers a callback to rebuild its
// API client when the server section changes on disk.
type HotReloadManager struct {
	base       Manager
	configPath string
	watcher    *fsnotify.Watcher
	logger     *zap.Logger

	current atomic.Pointer[Config]

	callbacksMu sync.RWMutex
	callbacks   []func(*Config)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewHotReloadManager creates a hot reload manager on top of base. A missing
// file is created with the default configuration.
func NewHotReloadManager(base Manager, configPath string, logger *zap.Logger) (*HotReloadManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := loadOrCreate(base)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create file watcher", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &HotReloadManager{
		base:       base,
		configPath: filepath.Clean(configPath),
		watcher:    watcher,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	m.current.Store(cfg)

	if err := m.watch(); err != nil {
		cancel()
		watcher.Close()
		return nil, err
	}
	return m, nil
}

func loadOrCreate(base Manager) (*Config, error) {
	cfg, err := base.Load()
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to load initial config", err)
	}
	if err := base.CreateDefaultConfig(); err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to create default config", err)
	}
	cfg, err = base.Load()
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "failed to load default config", err)
	}
	return cfg, nil
}

// Load returns the in-memory config.
func (m *HotReloadManager) Load() (*Config, error) {
	cfg := m.current.Load()
	if cfg == nil {
		return nil, errors.New(errors.ErrTypeConfig, "no config loaded")
	}
	return cfg, nil
}

// Save writes cfg and publishes it.
func (m *HotReloadManager) Save(cfg *Config) error {
	if err := m.base.Save(cfg); err != nil {
		return err
	}
	m.publish(cfg)
	return nil
}

// CreateDefaultConfig 重置为默认配置
func (m *HotReloadManager) CreateDefaultConfig() error {
	if err := m.base.CreateDefaultConfig(); err != nil {
		return err
	}
	return m.refresh()
}

// UpdateServer updates the server section
func (m *HotReloadManager) UpdateServer(server ServerConfig) error {
	if err := m.base.UpdateServer(server); err != nil {
		return err
	}
	return m.refresh()
}

// UpdateRemote updates a remote config
func (m *HotReloadManager) UpdateRemote(host string, remote RemoteConfig) error {
	if err := m.base.UpdateRemote(host, remote); err != nil {
		return err
	}
	return m.refresh()
}

// OnConfigChange registers a callback invoked with every new config.
// Callbacks run on their own goroutine.
func (m *HotReloadManager) OnConfigChange(callback func(*Config)) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Stop stops watching and releases the watcher.
func (m *HotReloadManager) Stop() error {
	m.cancel()

	m.debounceMu.Lock()
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceMu.Unlock()

	<-m.done
	return m.watcher.Close()
}

// refresh 重新读取磁盘配置并发布
func (m *HotReloadManager) refresh() error {
	cfg, err := m.base.Load()
	if err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to reload config", err)
	}
	m.publish(cfg)
	return nil
}

func (m *HotReloadManager) publish(cfg *Config) {
	m.current.Store(cfg)

	m.callbacksMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbacksMu.RUnlock()

	for _, cb := range callbacks {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("Config change callback panic", zap.Any("panic", r))
				}
			}()
			cb(cfg)
		}(cb)
	}
}

// watch 监听配置文件所在目录，原子写入表现为 rename/create 事件
func (m *HotReloadManager) watch() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to create config directory", err)
	}
	if err := m.watcher.Add(dir); err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to watch config directory", err)
	}
	go m.loop()
	return nil
}

func (m *HotReloadManager) loop() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != m.configPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				m.schedule(event.Op.String())
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}

// schedule 合并短时间内的多次变更
func (m *HotReloadManager) schedule(op string) {
	m.debounceMu.Lock()
	defer m.debounceMu.Unlock()

	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.logger.Debug("Config file changed", zap.String("op", op), zap.String("path", m.configPath))
	m.debounceTimer = time.AfterFunc(reloadDebounce, m.reload)
}

func (m *HotReloadManager) reload() {
	cfg, err := m.base.Load()
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Info("Config file removed, keeping current config")
			return
		}
		m.logger.Warn("Failed to reload config, keeping current config", zap.Error(err))
		return
	}
	m.publish(cfg)
}
