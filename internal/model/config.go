package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Backend selection constants.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// RemoteConfig holds the connection settings for the hosted backend service.
type RemoteConfig struct {
	// BaseURL is the root URL of the service (e.g. https://xyz.supabase.co).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// AnonKey is the public API key sent with every request.
	AnonKey string `mapstructure:"anon_key" yaml:"anon_key"`

	// PollIntervalSec is how often the change watcher re-checks the
	// tasks table for rows modified by other clients.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// Backend selects where users and tasks live: "local" or "remote".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// DBPath is the SQLite database file used by the local backend.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// Locale controls calendar labels ("es" or "en").
	Locale string `mapstructure:"locale" yaml:"locale"`

	Remote RemoteConfig `mapstructure:"remote" yaml:"remote"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/dayplan/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "dayplan", "config.yaml")
}

// defaultDBPath places the local database next to the config file.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "dayplan.db")
	}
	return filepath.Join(home, ".config", "dayplan", "dayplan.db")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendLocal,
		DBPath:  defaultDBPath(),
		Locale:  "es",
		Remote: RemoteConfig{
			PollIntervalSec: 15,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("backend", BackendLocal)
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("locale", "es")
	v.SetDefault("remote.poll_interval_sec", 15)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Backend != BackendLocal && cfg.Backend != BackendRemote {
		return nil, fmt.Errorf("config %s: unknown backend %q", path, cfg.Backend)
	}
	if cfg.Backend == BackendRemote && cfg.Remote.BaseURL == "" {
		return nil, fmt.Errorf("config %s: remote backend requires remote.base_url", path)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("db_path", cfg.DBPath)
	v.Set("locale", cfg.Locale)
	v.Set("remote", cfg.Remote)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
