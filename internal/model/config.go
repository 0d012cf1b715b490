package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// IndexConfig declares a composite index on the document store, allowing a
// query that filters on Field to be ordered by OrderBy.
type IndexConfig struct {
	Collection string `mapstructure:"collection" yaml:"collection"`
	Field      string `mapstructure:"field" yaml:"field"`
	OrderBy    string `mapstructure:"order_by" yaml:"order_by"`
}

// StoreConfig selects and configures the backing document store.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	Indexes []IndexConfig `mapstructure:"indexes" yaml:"indexes"`
}

// SyncConfig tunes subscriptions and remote writes.
type SyncConfig struct {
	PollIntervalMS int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	WriteTimeoutMS int `mapstructure:"write_timeout_ms" yaml:"write_timeout_ms"`
}

// PollInterval returns the subscription poll interval.
func (c SyncConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// WriteTimeout returns the per-write timeout.
func (c SyncConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// IdentityConfig holds the admin allow-list and keyring location.
type IdentityConfig struct {
	AdminEmails []string `mapstructure:"admin_emails" yaml:"admin_emails"`
	KeyringDir  string   `mapstructure:"keyring_dir" yaml:"keyring_dir"`
}

// NotifyConfig holds notification timing.
type NotifyConfig struct {
	AlertTTLMS          int `mapstructure:"alert_ttl_ms" yaml:"alert_ttl_ms"`
	DeadlineWindowHours int `mapstructure:"deadline_window_hours" yaml:"deadline_window_hours"`
	UrgentWindowHours   int `mapstructure:"urgent_window_hours" yaml:"urgent_window_hours"`
}

// AlertTTL returns how long an ephemeral alert stays visible.
func (c NotifyConfig) AlertTTL() time.Duration {
	return time.Duration(c.AlertTTLMS) * time.Millisecond
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig holds the debug log destination.
type LogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// DefaultConfigDir returns ~/.config/worktrack.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "worktrack")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/worktrack/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(dir, "worktrack.db"),
		},
		Sync: SyncConfig{
			PollIntervalMS: 1000,
			WriteTimeoutMS: 10000,
		},
		Identity: IdentityConfig{
			AdminEmails: []string{},
			KeyringDir:  filepath.Join(dir, "credentials"),
		},
		Notify: NotifyConfig{
			AlertTTLMS:          3000,
			DeadlineWindowHours: 48,
			UrgentWindowHours:   24,
		},
		Display: DisplayConfig{Theme: "default"},
		Log:     LogConfig{File: filepath.Join(dir, "debug.log")},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("store.dsn", def.Store.DSN)
	v.SetDefault("sync.poll_interval_ms", def.Sync.PollIntervalMS)
	v.SetDefault("sync.write_timeout_ms", def.Sync.WriteTimeoutMS)
	v.SetDefault("identity.keyring_dir", def.Identity.KeyringDir)
	v.SetDefault("notify.alert_ttl_ms", def.Notify.AlertTTLMS)
	v.SetDefault("notify.deadline_window_hours", def.Notify.DeadlineWindowHours)
	v.SetDefault("notify.urgent_window_hours", def.Notify.UrgentWindowHours)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Sync.PollIntervalMS <= 0 {
		return fmt.Errorf("sync.poll_interval_ms must be positive")
	}
	if c.Notify.UrgentWindowHours > c.Notify.DeadlineWindowHours {
		return fmt.Errorf("notify.urgent_window_hours exceeds deadline window")
	}
	return nil
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

	v.Set("store", cfg.Store)
	v.Set("sync", cfg.Sync)
	v.Set("identity", cfg.Identity)
	v.Set("notify", cfg.Notify)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
