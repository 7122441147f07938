package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitpane.log")

	l := NewWithFile(true, path)
	l.Debug("hello from test")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestNewRotatingWriter_EnvOverrides(t *testing.T) {
	t.Setenv("GITPANE_LOG_MAX_SIZE", "5")
	t.Setenv("GITPANE_LOG_MAX_BACKUPS", "0")

	w := newRotatingWriter("x.log")
	assert.Equal(t, 5, w.MaxSize)
	assert.Equal(t, 0, w.MaxBackups)

	t.Setenv("GITPANE_LOG_MAX_SIZE", "nope")
	w = newRotatingWriter("x.log")
	assert.Equal(t, 1, w.MaxSize)
}
