package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scriptreel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvOutput, "")
	t.Setenv(EnvTempDir, "")

	path := writeConfig(t, `
narration:
  wpm: 180
pexels:
  hd_only: false
  timeout: 5s
output:
  fps: 30
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 180, cfg.Narration.WPM)
	assert.Equal(t, 2, cfg.Narration.MinSeconds, "unset keys keep defaults")
	assert.False(t, cfg.Pexels.HDOnly)
	assert.Equal(t, 5*time.Second, cfg.Pexels.Timeout)
	assert.Equal(t, 30, cfg.Output.FPS)
	assert.Equal(t, 1, cfg.Pexels.PerPage)
	assert.Equal(t, "pt_core_news_sm", cfg.Keywords.Model)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "secret-key")
	t.Setenv(EnvOutput, "/srv/out/final.mp4")
	t.Setenv(EnvTempDir, "/srv/tmp")

	path := writeConfig(t, "pexels:\n  api_key: from-file\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.Pexels.APIKey)
	assert.Equal(t, "/srv/out/final.mp4", cfg.Output.Path)
	assert.Equal(t, "/srv/tmp", cfg.TempDir)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvOutput, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.TempDir(), OutputFileName), cfg.Output.Path)
	assert.Equal(t, 24, cfg.Output.FPS)
	assert.Empty(t, cfg.Pexels.APIKey)
	assert.Equal(t, cfg.Pexels.RequestsPerHour, float64(cfg.Pexels.Burst))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := writeConfig(t, `
narration:
  wpm: 400
pexels:
  per_page: 0
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narration.wpm")
	assert.Contains(t, err.Error(), "pexels.per_page")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "narration: [oops")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvOutput, "")

	cfg := Default()
	cfg.Narration.WPM = 120
	cfg.Keywords.Model = "en_core_web_sm"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, loaded.Narration.WPM)
	assert.Equal(t, "en_core_web_sm", loaded.Keywords.Model)
	assert.Equal(t, cfg.Pexels.Timeout, loaded.Pexels.Timeout)
}

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Narration.WPM = 200

	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))

	fallback := FromContext(context.Background())
	assert.Equal(t, 150, fallback.Narration.WPM)
}
