package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig holds the HTTP API listen settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AIConfig holds settings for the external model analyzer.
type AIConfig struct {
	// Enabled selects the external model analyzer. When false, or when no
	// API key is available, the rule-based analyzer is used alone.
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single analysis call before falling back to
	// the rule-based analyzer.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns TimeoutSec as a duration.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// TriageConfig holds rule-based policy settings.
type TriageConfig struct {
	// Signature closes every canned draft reply.
	Signature string `mapstructure:"signature" yaml:"signature"`
}

// IMAPConfig holds the mailbox polled by the IMAP source. The password is
// read from the keyring, never from this file.
type IMAPConfig struct {
	Host            string `mapstructure:"host" yaml:"host"`
	Port            string `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	TLS             bool   `mapstructure:"tls" yaml:"tls"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	LookbackDays    int    `mapstructure:"lookback_days" yaml:"lookback_days"`
	Limit           int    `mapstructure:"limit" yaml:"limit"`
}

// Configured reports whether enough settings exist to connect.
func (c IMAPConfig) Configured() bool {
	return c.Host != "" && c.Username != ""
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
	File        string `mapstructure:"file" yaml:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	AI     AIConfig     `mapstructure:"ai" yaml:"ai"`
	Triage TriageConfig `mapstructure:"triage" yaml:"triage"`
	IMAP   IMAPConfig   `mapstructure:"imap" yaml:"imap"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// envPrefix namespaces environment overrides, e.g. TRIAGE_SERVER_ADDR.
const envPrefix = "triage"

// DefaultConfigDir returns ~/.config/mailtriage.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mailtriage")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailtriage/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		Store:  StoreConfig{Path: filepath.Join(dir, "triage.db")},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		AI: AIConfig{
			Enabled:    true,
			Model:      "claude-sonnet-4-5-20250929",
			MaxTokens:  1500,
			TimeoutSec: 30,
		},
		Triage: TriageConfig{
			Signature: "Best regards,\nGabriela\nTPRM Security Annex Lead | Nestlé",
		},
		IMAP: IMAPConfig{
			Port:            "993",
			TLS:             true,
			PollIntervalSec: 300,
			LookbackDays:    7,
			Limit:           50,
		},
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(dir, "triage.log"),
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so that keys missing from
// the file, or overridden only through the environment, resolve.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("ai.enabled", d.AI.Enabled)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.timeout_sec", d.AI.TimeoutSec)
	v.SetDefault("triage.signature", d.Triage.Signature)
	v.SetDefault("imap.host", "")
	v.SetDefault("imap.port", d.IMAP.Port)
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.tls", d.IMAP.TLS)
	v.SetDefault("imap.poll_interval_sec", d.IMAP.PollIntervalSec)
	v.SetDefault("imap.lookback_days", d.IMAP.LookbackDays)
	v.SetDefault("imap.limit", d.IMAP.Limit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults apply. Environment variables
// prefixed with TRIAGE_ override both, and an optional .env file in the
// working directory is loaded first.
func LoadConfig(path string) (*AppConfig, error) {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.AI.TimeoutSec <= 0 {
		cfg.AI.TimeoutSec = 30
	}
	if cfg.IMAP.PollIntervalSec <= 0 {
		cfg.IMAP.PollIntervalSec = 300
	}
	if cfg.IMAP.LookbackDays <= 0 {
		cfg.IMAP.LookbackDays = 7
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

	v.Set("store", cfg.Store)
	v.Set("server", cfg.Server)
	v.Set("ai", cfg.AI)
	v.Set("triage", cfg.Triage)
	v.Set("imap", cfg.IMAP)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
