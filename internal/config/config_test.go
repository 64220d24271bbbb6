package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultStarCount, cfg.Scene.StarCount)
	assert.Equal(t, float32(2.0), cfg.Animation.ColorRate)
	assert.Equal(t, float32(5.0), cfg.Animation.GlitchRate)
	assert.Greater(t, cfg.Animation.MaxFrameDelta, float32(0))
	assert.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horizon.yaml")
	data := []byte("window:\n  width: 800\nanimation:\n  glitch_rate: 8\n  color_rate: -1\nserver:\n  timeout: 5s\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, DefaultHeight, cfg.Window.Height, "unset fields keep defaults")
	assert.Equal(t, float32(8), cfg.Animation.GlitchRate)
	assert.Equal(t, float32(DefaultColorRate), cfg.Animation.ColorRate, "non-positive rates are normalized")
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [1, 2"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Scene.StarCount = 123

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 123, loaded.Scene.StarCount)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HORIZON_LISTEN", ":9999")
	t.Setenv("HORIZON_DEBUG", "true")
	t.Setenv("HORIZON_BACKEND", "http://localhost:8080")
	t.Setenv("API_KEY", "fallback")
	t.Setenv("GEMINI_API_KEY", "primary")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "http://localhost:8080", cfg.Server.Backend)
	assert.Equal(t, "primary", cfg.Server.APIKey)
}

func TestNormalizedCopies(t *testing.T) {
	cfg := &Config{}
	n := cfg.Normalized()

	assert.Equal(t, float32(DefaultColorRate), n.Animation.ColorRate)
	assert.Equal(t, DefaultWidth, n.Window.Width)
	assert.Zero(t, cfg.Animation.ColorRate)
	assert.Zero(t, cfg.Window.Width)
}

func TestApplyEnv_APIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "fallback", cfg.Server.APIKey)
}
