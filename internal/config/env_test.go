package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, " http://env:8888 ")
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvAuthorName, "Env Author")
	t.Setenv(EnvAuthorEmail, "")

	cfg := sampleConfig()
	ApplyEnv(cfg)

	assert.Equal(t, "http://env:8888", cfg.Server.BaseURL)
	assert.Equal(t, "env-token", cfg.Server.Token)
	assert.Equal(t, "45s", cfg.Server.Timeout, "empty variables keep the file value")
	assert.Equal(t, "Env Author", cfg.Author.Name)
	assert.Equal(t, "ann@example.com", cfg.Author.Email)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GITPANE_TOKEN=from-file\nGITPANE_AUTHOR_NAME=Dot Env\n"), 0600))

	// 已存在的变量不被覆盖
	t.Setenv(EnvToken, "from-shell")
	t.Setenv(EnvAuthorName, "")
	require.NoError(t, os.Unsetenv(EnvAuthorName))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from-shell", os.Getenv(EnvToken))
	assert.Equal(t, "Dot Env", os.Getenv(EnvAuthorName))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "gitpane", "config.yaml"), p)

	t.Setenv(EnvConfigPath, "/etc/gitpane.json")
	p, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/gitpane.json", p)
}
