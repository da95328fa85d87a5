// Package config provides configuration loading for the Genesis client.
//
// Values are layered: defaults, then an optional YAML file, then GENESIS_*
// environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marians/genesisclient/internal/core"
	"github.com/marians/genesisclient/internal/export"
)

// Store kinds.
const (
	StoreLocal = "local"
	StoreS3    = "s3"
)

// Config holds client configuration.
type Config struct {
	Site     string `yaml:"site"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	Transport TransportConfig `yaml:"transport"`
	Parser    ParserConfig    `yaml:"parser"`
	Export    ExportConfig    `yaml:"export"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig holds HTTP transport settings.
type TransportConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit"`
}

// Timeout returns the request timeout.
func (t TransportConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSecs) * time.Second
}

// ParserConfig holds catalog parser settings.
type ParserConfig struct {
	CollapseWhitespace bool `yaml:"collapse_whitespace"`
}

// ExportConfig holds export extractor settings.
type ExportConfig struct {
	Strategy string `yaml:"strategy"`
}

// StoreConfig selects where downloaded tables are written.
type StoreConfig struct {
	Kind      string `yaml:"kind"`
	Dir       string `yaml:"dir"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			TimeoutSecs: 60,
			MaxRetries:  0,
			RateLimit:   5,
		},
		Export: ExportConfig{
			Strategy: string(export.StrategyLegacy),
		},
		Store: StoreConfig{
			Kind:   StoreLocal,
			Dir:    ".",
			UseSSL: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads path (if non-empty and present) over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Site = getEnv("GENESIS_SITE", c.Site)
	c.Username = getEnv("GENESIS_USERNAME", c.Username)
	c.Password = getEnv("GENESIS_PASSWORD", c.Password)

	c.Transport.TimeoutSecs = getEnvInt("GENESIS_TIMEOUT_SECS", c.Transport.TimeoutSecs)
	c.Transport.MaxRetries = getEnvInt("GENESIS_MAX_RETRIES", c.Transport.MaxRetries)
	c.Transport.RateLimit = getEnvFloat("GENESIS_RATE_LIMIT", c.Transport.RateLimit)

	c.Parser.CollapseWhitespace = getEnvBool("GENESIS_COLLAPSE_WHITESPACE", c.Parser.CollapseWhitespace)
	c.Export.Strategy = getEnv("GENESIS_EXPORT_STRATEGY", c.Export.Strategy)

	c.Store.Kind = getEnv("GENESIS_STORE_KIND", c.Store.Kind)
	c.Store.Dir = getEnv("GENESIS_STORE_DIR", c.Store.Dir)
	c.Store.Endpoint = getEnv("GENESIS_STORE_ENDPOINT", c.Store.Endpoint)
	c.Store.Bucket = getEnv("GENESIS_STORE_BUCKET", c.Store.Bucket)
	c.Store.Prefix = getEnv("GENESIS_STORE_PREFIX", c.Store.Prefix)
	c.Store.Region = getEnv("GENESIS_STORE_REGION", c.Store.Region)
	c.Store.AccessKey = getEnv("GENESIS_STORE_ACCESS_KEY", c.Store.AccessKey)
	c.Store.SecretKey = getEnv("GENESIS_STORE_SECRET_KEY", c.Store.SecretKey)
	c.Store.UseSSL = getEnvBool("GENESIS_STORE_USE_SSL", c.Store.UseSSL)

	c.Logging.Level = getEnv("GENESIS_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("GENESIS_LOG_FORMAT", c.Logging.Format)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := core.LookupSite(c.Site); err != nil {
		return err
	}
	if _, err := export.ParseStrategy(c.Export.Strategy); err != nil {
		return err
	}
	if c.Transport.TimeoutSecs < 0 || c.Transport.MaxRetries < 0 || c.Transport.RateLimit < 0 {
		return &core.ConfigurationError{Field: "transport", Message: "timeout, retries and rate limit must not be negative"}
	}

	switch strings.ToLower(c.Store.Kind) {
	case StoreLocal, "":
	case StoreS3:
		if c.Store.Endpoint == "" || c.Store.Bucket == "" {
			return &core.ConfigurationError{Field: "store", Message: "s3 store requires endpoint and bucket"}
		}
	default:
		return &core.ConfigurationError{Field: "store.kind", Message: fmt.Sprintf("unknown store kind %q", c.Store.Kind)}
	}

	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return &core.ConfigurationError{Field: "logging.format", Message: fmt.Sprintf("unknown log format %q", c.Logging.Format)}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
