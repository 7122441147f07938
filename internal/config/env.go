package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// 环境变量，优先级高于配置文件
const (
	EnvConfigPath  = "GITPANE_CONFIG"
	EnvBaseURL     = "GITPANE_BASE_URL"
	EnvToken       = "GITPANE_TOKEN"
	EnvTimeout     = "GITPANE_TIMEOUT"
	EnvAuthorName  = "GITPANE_AUTHOR_NAME"
	EnvAuthorEmail = "GITPANE_AUTHOR_EMAIL"
)

// DefaultPath returns $XDG_CONFIG_HOME/gitpane/config.yaml, falling back
// to ~/.config/gitpane/config.yaml. GITPANE_CONFIG wins when set.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gitpane", "config.yaml"), nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the GITPANE_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Server.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		cfg.Server.Timeout = v
	}
	if v := os.Getenv(EnvAuthorName); v != "" {
		cfg.Author.Name = v
	}
	if v := os.Getenv(EnvAuthorEmail); v != "" {
		cfg.Author.Email = v
	}
}
