package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "es", cfg.Locale)
	assert.Equal(t, 15, cfg.Remote.PollIntervalSec)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadConfigRemote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `backend: remote
locale: en
remote:
  base_url: https://example.supabase.co
  anon_key: public-key
  poll_interval_sec: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "https://example.supabase.co", cfg.Remote.BaseURL)
	assert.Equal(t, "public-key", cfg.Remote.AnonKey)
	assert.Equal(t, 5, cfg.Remote.PollIntervalSec)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: cloud\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRemoteRequiresBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: remote\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &AppConfig{
		Backend: BackendRemote,
		DBPath:  "/tmp/x.db",
		Locale:  "en",
		Remote: RemoteConfig{
			BaseURL:         "https://example.supabase.co",
			AnonKey:         "k",
			PollIntervalSec: 30,
		},
	}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backend, loaded.Backend)
	assert.Equal(t, cfg.Remote.BaseURL, loaded.Remote.BaseURL)
	assert.Equal(t, 30, loaded.Remote.PollIntervalSec)
}
