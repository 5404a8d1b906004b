// Package config loads the plandash configuration from an optional YAML
// file, PLANDASH_* environment variables and command line flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sander-remitly/plandash/internal/validate"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "PLANDASH"

// Config holds all configuration for plandash
type Config struct {
	Port    int           `mapstructure:"port"`
	DB      string        `mapstructure:"db"`
	Env     string        `mapstructure:"env"`
	Service ServiceConfig `mapstructure:"service"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Format  FormatConfig  `mapstructure:"format"`
	Upload  UploadConfig  `mapstructure:"upload"`
}

// ServiceConfig locates the optimization service
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BreakerConfig tunes the circuit breaker in front of the optimization service
type BreakerConfig struct {
	Failures    uint32        `mapstructure:"failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// RedisConfig holds the read-through cache settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

// LogConfig holds logging configuration options
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// FormatConfig holds presentation settings
type FormatConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// UploadConfig limits spreadsheet uploads
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// defaults are applied before the file, env and flags
var defaults = map[string]interface{}{
	"port":                   8080,
	"db":                     "./data/plandash.db",
	"env":                    "production",
	"service.base_url":       "http://localhost:8000",
	"service.timeout":        30 * time.Second,
	"breaker.failures":       5,
	"breaker.open_timeout":   30 * time.Second,
	"redis.enabled":          false,
	"redis.addr":             "localhost:6379",
	"redis.password":         "",
	"log.level":              "info",
	"log.format":             "",
	"format.currency_symbol": "$",
	"upload.max_bytes":       validate.MaxSpreadsheetBytes,
}

// legacyEnv maps unprefixed environment variables onto config keys
var legacyEnv = map[string]string{
	"env":            "ENV",
	"redis.enabled":  "REDIS_ENABLED",
	"redis.addr":     "REDIS_ADDR",
	"redis.password": "REDIS_PASSWORD",
}

// Load builds the configuration. configPath may be empty. Flags that were
// set on the command line override every other source.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps flag names onto config keys
var flagKeys = map[string]string{
	"port":        "port",
	"db":          "db",
	"service-url": "service.base_url",
	"log-level":   "log.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("error binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// WriteTimeout bounds writing one API response. It leaves room for the
// optimization service call and is unbounded when service.timeout is 0.
func (c *Config) WriteTimeout() time.Duration {
	if c.Service.Timeout == 0 {
		return 0
	}
	return c.Service.Timeout + 15*time.Second
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid service.base_url %q", c.Service.BaseURL)
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout must not be negative")
	}
	if c.Upload.MaxBytes <= 0 || c.Upload.MaxBytes > validate.MaxSpreadsheetBytes {
		return fmt.Errorf("upload.max_bytes must be between 1 and %d", validate.MaxSpreadsheetBytes)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	return nil
}

// Development reports whether ENV selects the development profile
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}
