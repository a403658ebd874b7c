// Package config loads client settings from defaults, an optional
// config.yaml in the data directory and BLOCKNOTES_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir string `mapstructure:"data_dir"`
	API     struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"api"`
	Editor struct {
		SaveDelay time.Duration `mapstructure:"save_delay"`
	} `mapstructure:"editor"`
	Session struct {
		KeepAlive string `mapstructure:"keepalive"`
	} `mapstructure:"session"`
}

// DBPath is the SQLite file holding local state.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "blocknotes.db")
}

// SecretsDir holds the session cookie where no OS keychain is available.
func (c *Config) SecretsDir() string {
	return filepath.Join(c.DataDir, "secrets")
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "blocknotes")
}

// Load reads the configuration. dataDir overrides the default data
// directory when non-empty (it is where config.yaml is looked up).
func Load(dataDir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("api.base_url", "http://127.0.0.1:8080")
	v.SetDefault("editor.save_delay", time.Second)
	v.SetDefault("session.keepalive", "@every 5m")

	v.SetEnvPrefix("BLOCKNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dataDir != "" {
		v.Set("data_dir", dataDir)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.BaseURL == "" {
		return nil, errors.New("config: api.base_url is empty")
	}
	if cfg.Editor.SaveDelay <= 0 {
		cfg.Editor.SaveDelay = time.Second
	}
	return &cfg, nil
}
