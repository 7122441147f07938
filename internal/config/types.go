package config

import (
	"time"
)

// Config 配置文件结构
type Config struct {
	Version string                  `json:"version" yaml:"version"`
	Server  ServerConfig            `json:"server" yaml:"server"`
	Author  AuthorConfig            `json:"author" yaml:"author"`
	Log     LogConfig               `json:"log" yaml:"log"`
	Remotes map[string]RemoteConfig `json:"remotes,omitempty" yaml:"remotes,omitempty"`
}

// ServerConfig 是宿主 notebook 服务器的连接设置
type ServerConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"` // 例如 http://localhost:8888
	Token   string `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration，例如 "30s"
}

// TimeoutDuration parses Timeout. An empty value yields fallback.
func (s ServerConfig) TimeoutDuration(fallback time.Duration) (time.Duration, error) {
	if s.Timeout == "" {
		return fallback, nil
	}
	return time.ParseDuration(s.Timeout)
}

// AuthorConfig 提交作者；两者均为空时 commit 不发送作者字段
type AuthorConfig struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// LogConfig 日志设置
type LogConfig struct {
	File  string `json:"file,omitempty" yaml:"file,omitempty"` // 交互界面下的日志文件
	Debug bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// RemoteConfig 远程主机设置，按 host 索引
type RemoteConfig struct {
	Username string `json:"username,omitempty" yaml:"username,omitempty"` // 凭据对话框预填的用户名
}

// Manager 配置管理器接口
type Manager interface {
	// Load 加载配置文件
	Load() (*Config, error)

	// Save 保存配置文件（原子操作）
	Save(config *Config) error

	// CreateDefaultConfig 创建默认配置
	CreateDefaultConfig() error

	// UpdateServer 更新服务器连接设置
	UpdateServer(server ServerConfig) error

	// UpdateRemote 更新指定 host 的配置
	UpdateRemote(host string, config RemoteConfig) error
}

// Default values.
const (
	DefaultVersion = "1.0.0"
	DefaultBaseURL = "http://localhost:8888"
	DefaultTimeout = 30 * time.Second
)

// DefaultConfig returns the configuration written by CreateDefaultConfig.
func DefaultConfig() *Config {
	return &Config{
		Version: DefaultVersion,
		Server: ServerConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout.String(),
		},
	}
}
