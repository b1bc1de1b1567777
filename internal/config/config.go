package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Config is the top-level dermwatch configuration.
type Config struct {
	Store    Store    `mapstructure:"store"`
	Quota    Quota    `mapstructure:"quota"`
	Analysis Analysis `mapstructure:"analysis"`
	AI       AI       `mapstructure:"ai"`
	Server   Server   `mapstructure:"server"`
	Log      Log      `mapstructure:"log"`
	Output   Output   `mapstructure:"output"`
}

// Store selects the record database.
type Store struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// Quota configures the daily AI usage limit.
type Quota struct {
	DailyLimit int    `mapstructure:"daily_limit"`
	Backend    string `mapstructure:"backend"` // "store" or "redis"
	RedisAddr  string `mapstructure:"redis_addr"`
}

// Analysis configures the record window and prompt.
type Analysis struct {
	WindowDays int    `mapstructure:"window_days"`
	MinRecords int    `mapstructure:"min_records"`
	Language   string `mapstructure:"language"`
}

// AI configures the text-generation service.
type AI struct {
	Provider          string        `mapstructure:"provider"` // "gemini" or "anthropic"
	Model             string        `mapstructure:"model"`
	Endpoint          string        `mapstructure:"endpoint"`
	Temperature       float64       `mapstructure:"temperature"`
	MaxOutputTokens   int           `mapstructure:"max_output_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Server configures the HTTP transport.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Log configures the global logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Output defines terminal output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Secrets are read from the environment only, never from the config file.
type Secrets struct {
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	JWTSecret       string `envconfig:"DERMWATCH_JWT_SECRET"`
	SessionToken    string `envconfig:"DERMWATCH_SESSION_TOKEN"`
	UserID          string `envconfig:"DERMWATCH_USER_ID"`
}

// APIKey returns the key for the given AI provider.
func (s Secrets) APIKey(provider string) string {
	if provider == "anthropic" {
		return s.AnthropicAPIKey
	}
	return s.GeminiAPIKey
}

// LoadSecrets reads Secrets from the environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("loading secrets: %w", err)
	}
	return &s, nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies DERMWATCH_* environment overrides and returns a validated Config
// with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.driver", DefaultStore.Driver)
	v.SetDefault("store.dsn", "")
	v.SetDefault("quota.daily_limit", DefaultQuota.DailyLimit)
	v.SetDefault("quota.backend", DefaultQuota.Backend)
	v.SetDefault("quota.redis_addr", DefaultQuota.RedisAddr)
	v.SetDefault("analysis.window_days", DefaultAnalysis.WindowDays)
	v.SetDefault("analysis.min_records", DefaultAnalysis.MinRecords)
	v.SetDefault("analysis.language", DefaultAnalysis.Language)
	v.SetDefault("ai.provider", DefaultAI.Provider)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.endpoint", "")
	v.SetDefault("ai.temperature", DefaultAI.Temperature)
	v.SetDefault("ai.max_output_tokens", DefaultAI.MaxOutputTokens)
	v.SetDefault("ai.requests_per_minute", DefaultAI.RequestsPerMinute)
	v.SetDefault("ai.timeout", DefaultAI.Timeout)
	v.SetDefault("server.addr", DefaultServer.Addr)
	v.SetDefault("server.allow_origins", []string{})
	v.SetDefault("server.shutdown_timeout", DefaultServer.ShutdownTimeout)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.pretty", false)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Store.DSN == "" && cfg.Store.Driver == "sqlite" {
		cfg.Store.DSN = DBPath()
	}
	if cfg.Store.Driver == "sqlite" {
		cfg.Store.DSN = expandPath(cfg.Store.DSN)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings and limits.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn: required for postgres")
	}
	switch c.Quota.Backend {
	case "store", "redis":
	default:
		return fmt.Errorf("quota.backend: unknown backend %q", c.Quota.Backend)
	}
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("quota.daily_limit: must be positive, got %d", c.Quota.DailyLimit)
	}
	if c.Analysis.WindowDays <= 0 {
		return fmt.Errorf("analysis.window_days: must be positive, got %d", c.Analysis.WindowDays)
	}
	if c.Analysis.MinRecords <= 0 {
		return fmt.Errorf("analysis.min_records: must be positive, got %d", c.Analysis.MinRecords)
	}
	switch c.AI.Provider {
	case "gemini", "anthropic":
	default:
		return fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider)
	}
	return nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
