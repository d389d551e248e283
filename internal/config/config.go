package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig holds settings for the remote snapshot store.
type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Username       string `mapstructure:"username"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Currency       string `mapstructure:"currency"`
	Theme          string `mapstructure:"theme"`
	DateFormat     string `mapstructure:"date_format"`
	DefaultAccount string `mapstructure:"default_account"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads configuration from file and env. Env var overrides use prefix FINBOOK_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "finbook", "finbook.db"))
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.username", "")
	v.SetDefault("remote.timeout_seconds", 30)
	v.SetDefault("ui.currency", "EUR")
	v.SetDefault("ui.theme", "system")
	v.SetDefault("ui.date_format", "02/01/2006")
	v.SetDefault("ui.default_account", "")
	v.SetDefault("log.debug", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("FINBOOK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "finbook"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FINBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The remote password never goes through here; it lives in the secrets store.
func Save(cfg Config) error {
	path := os.Getenv("FINBOOK_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "finbook", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("remote.base_url", cfg.Remote.BaseURL)
	v.Set("remote.username", cfg.Remote.Username)
	v.Set("remote.timeout_seconds", cfg.Remote.TimeoutSeconds)
	v.Set("ui.currency", cfg.UI.Currency)
	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.default_account", cfg.UI.DefaultAccount)
	v.Set("log.debug", cfg.Log.Debug)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
