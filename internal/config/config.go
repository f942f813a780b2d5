// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Amazon  AmazonConfig  `yaml:"amazon"`
	Ebay    EbayConfig    `yaml:"ebay"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	ReadTimeout  time.Duration    `yaml:"read_timeout"`
	WriteTimeout time.Duration    `yaml:"write_timeout"`
	RateLimit    InboundRateLimit `yaml:"rate_limit"`
}

// InboundRateLimit throttles API requests per client IP. A zero
// per_second disables it.
type InboundRateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// AmazonConfig selects and configures an Amazon product data provider.
type AmazonConfig struct {
	Provider string         `yaml:"provider"` // paapi, rapidapi
	PAAPI    PAAPIConfig    `yaml:"paapi"`
	RapidAPI RapidAPIConfig `yaml:"rapidapi"`
}

// PAAPIConfig defines Product Advertising API credentials.
type PAAPIConfig struct {
	AccessKey  string          `yaml:"access_key"`
	SecretKey  string          `yaml:"secret_key"`
	PartnerTag string          `yaml:"partner_tag"`
	Region     string          `yaml:"region"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RapidAPIConfig defines RapidAPI marketplace gateway credentials.
type RapidAPIConfig struct {
	APIKey    string          `yaml:"api_key"`
	APIHost   string          `yaml:"api_host"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// EbayConfig defines eBay Finding API settings.
type EbayConfig struct {
	AppID     string          `yaml:"app_id"`
	GlobalID  string          `yaml:"global_id"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines token bucket settings for one provider.
type RateLimitConfig struct {
	Capacity        float64 `yaml:"capacity"`
	RefillPerSecond float64 `yaml:"refill_per_second"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyAmazonDefaults(&cfg.Amazon)
	applyEbayDefaults(&cfg.Ebay)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.RateLimit.PerSecond > 0 && s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = int(s.RateLimit.PerSecond) * 2
	}
}

func applyAmazonDefaults(a *AmazonConfig) {
	if a.Provider == "" {
		a.Provider = "paapi"
	}
	if a.PAAPI.Region == "" {
		a.PAAPI.Region = "us-east-1"
	}
	// PA-API starts every account at one request per second.
	applyRateLimitDefaults(&a.PAAPI.RateLimit, 1, 1)
	applyRateLimitDefaults(&a.RapidAPI.RateLimit, 10, 5)
}

func applyEbayDefaults(e *EbayConfig) {
	if e.GlobalID == "" {
		e.GlobalID = "EBAY-US"
	}
	// 5000 calls/day works out to roughly one call every 17 seconds.
	applyRateLimitDefaults(&e.RateLimit, 1, 0.058)
}

func applyRateLimitDefaults(r *RateLimitConfig, capacity, refill float64) {
	if r.Capacity == 0 {
		r.Capacity = capacity
	}
	if r.RefillPerSecond == 0 {
		r.RefillPerSecond = refill
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Amazon.Provider {
	case "paapi", "rapidapi":
	default:
		errs = append(
			errs,
			fmt.Errorf("amazon.provider must be one of: paapi, rapidapi (got %q)", cfg.Amazon.Provider),
		)
	}

	for name, rl := range map[string]RateLimitConfig{
		"amazon.paapi.rate_limit":    cfg.Amazon.PAAPI.RateLimit,
		"amazon.rapidapi.rate_limit": cfg.Amazon.RapidAPI.RateLimit,
		"ebay.rate_limit":            cfg.Ebay.RateLimit,
	} {
		if rl.Capacity < 1 {
			errs = append(errs, fmt.Errorf("%s.capacity must be at least 1 (got %g)", name, rl.Capacity))
		}
		if rl.RefillPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("%s.refill_per_second must be positive (got %g)", name, rl.RefillPerSecond))
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(
			errs,
			fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level),
		)
	}

	return errors.Join(errs...)
}
