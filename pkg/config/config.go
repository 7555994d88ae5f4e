// Package config loads icl-ctl settings from a YAML file and ICL_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/icl-sdk/icl-go/pkg/connection"
	"github.com/icl-sdk/icl-go/pkg/manager"
	"github.com/icl-sdk/icl-go/pkg/transport"
)

// Config holds the client settings.
type Config struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ShutdownOnStop bool          `mapstructure:"shutdown_on_stop"`

	AutoReconnect bool                     `mapstructure:"auto_reconnect"`
	Backoff       connection.BackoffConfig `mapstructure:"backoff"`

	LogLevel    string `mapstructure:"log_level"`
	ProtocolLog string `mapstructure:"protocol_log"`

	Discovery DiscoveryConfig `mapstructure:"discovery"`

	// ConfigPath is the file the settings were read from, empty when none
	// was found.
	ConfigPath string `mapstructure:"-"`
}

// DiscoveryConfig holds the mDNS settings.
type DiscoveryConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Interface string        `mapstructure:"interface"`
}

// Defaults.
const (
	EnvPrefix             = "ICL"
	DefaultRequestTimeout = 30 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultLogLevel       = "info"
	DefaultBrowseTimeout  = 5 * time.Second
	defaultConfigName     = "icl.yaml"
)

// DefaultConfigPath returns ~/.config/icl/icl.yaml.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(dir, "icl", defaultConfigName)
}

// Load reads the configuration. An explicit configPath must exist; when
// it is empty the default path is used if present. ICL_ environment
// variables override file values, with "." in nested keys written as "_"
// (ICL_BACKOFF_MAX).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("address", transport.DefaultURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("shutdown_on_stop", false)
	v.SetDefault("auto_reconnect", false)
	v.SetDefault("backoff.initial", connection.DefaultInitialBackoff)
	v.SetDefault("backoff.max", connection.DefaultMaxBackoff)
	v.SetDefault("backoff.multiplier", connection.DefaultMultiplier)
	v.SetDefault("backoff.jitter", connection.DefaultJitter)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("protocol_log", "")
	v.SetDefault("discovery.timeout", DefaultBrowseTimeout)
	v.SetDefault("discovery.interface", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath()); err == nil {
			path = DefaultConfigPath()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Address)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("address must be a ws:// or wss:// URL, got %q", c.Address)
	}
	if u.Host == "" {
		return errors.New("address has no host")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ManagerConfig returns the device manager settings.
func (c *Config) ManagerConfig() manager.Config {
	return manager.Config{
		Address:        c.Address,
		RequestTimeout: c.RequestTimeout,
		AutoReconnect:  c.AutoReconnect,
		Backoff:        c.Backoff,
		ShutdownOnStop: c.ShutdownOnStop,
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
