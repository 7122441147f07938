package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format represents the configuration file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const yamlHeader = `# gitpane configuration
# server.base_url points at the notebook server hosting the git extension.
# Environment variables GITPANE_BASE_URL and GITPANE_TOKEN override the server section.

`

// fileManager supports both JSON and YAML configuration files
type fileManager struct {
	configPath string
	format     Format
	mu         sync.Mutex
}

// NewManager creates a config manager. The format follows the file
// extension; unknown extensions use YAML.
func NewManager(configPath string) (Manager, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	format := FormatYAML
	if strings.ToLower(filepath.Ext(configPath)) == ".json" {
		format = FormatJSON
	}

	return &fileManager{
		configPath: configPath,
		format:     format,
	}, nil
}

// Load loads the configuration file in either JSON or YAML format
func (m *fileManager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// load 需要调用方持有锁
func (m *fileManager) load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err // 保留原始错误以便 os.IsNotExist 判断
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return m.decode(data)
}

// decode 先按文件格式解析，失败后尝试另一种格式
func (m *fileManager) decode(data []byte) (*Config, error) {
	var config Config
	switch m.format {
	case FormatJSON:
		if err := json.Unmarshal(data, &config); err != nil {
			var fallback Config
			if yaml.Unmarshal(data, &fallback) == nil {
				return &fallback, nil
			}
			return nil, fmt.Errorf("failed to parse config as JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			var fallback Config
			if json.Unmarshal(data, &fallback) == nil {
				return &fallback, nil
			}
			return nil, fmt.Errorf("failed to parse config as YAML: %w", err)
		}
	}
	return &config, nil
}

func (m *fileManager) encode(config *Config) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch m.format {
	case FormatJSON:
		data, err = json.MarshalIndent(config, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(config)
	default:
		return nil, fmt.Errorf("unknown format: %s", m.format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save saves the configuration file in the appropriate format
func (m *fileManager) Save(config *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(config)
}

func (m *fileManager) save(config *Config) error {
	data, err := m.encode(config)
	if err != nil {
		return err
	}
	return m.writeAtomic(data)
}

// writeAtomic 写入临时文件后 rename
func (m *fileManager) writeAtomic(data []byte) error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// token 可能写入配置文件，权限收紧为 0600
	tmpFile := m.configPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tmpFile, m.configPath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig creates a default configuration file
func (m *fileManager) CreateDefaultConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.encode(DefaultConfig())
	if err != nil {
		return err
	}
	if m.format == FormatYAML {
		data = append([]byte(yamlHeader), data...)
	}
	return m.writeAtomic(data)
}

// UpdateServer replaces the server section, creating the file if needed.
func (m *fileManager) UpdateServer(server ServerConfig) error {
	return m.update(func(config *Config) {
		config.Server = server
	})
}

// UpdateRemote updates a specific remote configuration
func (m *fileManager) UpdateRemote(host string, remoteConfig RemoteConfig) error {
	return m.update(func(config *Config) {
		if config.Remotes == nil {
			config.Remotes = make(map[string]RemoteConfig)
		}
		config.Remotes[host] = remoteConfig
	})
}

// update 在锁内完成读取、修改与写回
func (m *fileManager) update(fn func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	config, err := m.load()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		config = DefaultConfig()
	}

	fn(config)
	return m.save(config)
}
