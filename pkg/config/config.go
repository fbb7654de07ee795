package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	kverrors "kvault/pkg/errors"
)

// Config holds all configuration for the kvault client.
type Config struct {
	// Address is the base URL of the kvault server.
	Address string `yaml:"address" json:"address"`

	// Token authenticates every request; sent in the TokenHeader header.
	Token string `yaml:"token" json:"token"`

	// TokenHeader is the header name carrying the auth token.
	TokenHeader string `yaml:"token_header" json:"token_header"`

	// Timeout bounds each individual request attempt.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// TLSSkipVerify disables server certificate verification. Development only.
	TLSSkipVerify bool `yaml:"tls_skip_verify" json:"tls_skip_verify"`

	// Headers are sent on every request; per-call headers override them.
	Headers map[string]string `yaml:"headers" json:"headers"`

	// Retry configures the retry policy for idempotent requests.
	// Nil disables retry wrapping entirely: every request is a single attempt.
	Retry *RetryConfig `yaml:"retry" json:"retry"`

	// RateLimit throttles outgoing requests. Nil disables throttling.
	RateLimit *RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RetryConfig holds the retry policy parameters.
type RetryConfig struct {
	// Attempts is the total attempt budget, including the first call.
	Attempts int `yaml:"attempts" json:"attempts"`
	// Base is the delay after the first failed attempt; doubles per attempt.
	Base time.Duration `yaml:"base" json:"base"`
	// MaxWait caps the backoff delay, jitter included.
	MaxWait time.Duration `yaml:"max_wait" json:"max_wait"`
	// JitterFactor is the fraction of the delay added as randomness (0.0-1.0).
	JitterFactor float64 `yaml:"jitter_factor" json:"jitter_factor"`
	// RetryableErrors lists the error kinds to retry. Empty means the default
	// set: connection and server.
	RetryableErrors []string `yaml:"retryable_errors" json:"retryable_errors"`
}

// RateLimitConfig holds client-side throttling parameters.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with sensible defaults. The default retry
// policy mirrors the server's guidance: two total attempts, 50ms base delay,
// two second cap.
func DefaultConfig() *Config {
	return &Config{
		Address:     "https://127.0.0.1:8300",
		TokenHeader: "X-KVault-Token",
		Timeout:     60 * time.Second,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Retry: &RetryConfig{
			Attempts:        2,
			Base:            50 * time.Millisecond,
			MaxWait:         2 * time.Second,
			JitterFactor:    0.25,
			RetryableErrors: []string{string(kverrors.KindConnection), string(kverrors.KindServer)},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration from KVAULT_* environment variables.
func (c *Config) LoadFromEnv() error {
	if addr := os.Getenv("KVAULT_ADDR"); addr != "" {
		c.Address = addr
	}
	if token := os.Getenv("KVAULT_TOKEN"); token != "" {
		c.Token = token
	}
	if timeout := os.Getenv("KVAULT_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid KVAULT_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if skip := os.Getenv("KVAULT_TLS_SKIP_VERIFY"); skip != "" {
		c.TLSSkipVerify = strings.ToLower(skip) == "true"
	}
	if attempts := os.Getenv("KVAULT_RETRY_ATTEMPTS"); attempts != "" {
		n, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid KVAULT_RETRY_ATTEMPTS: %w", err)
		}
		if c.Retry == nil {
			c.Retry = DefaultConfig().Retry
		}
		c.Retry.Attempts = n
	}
	if level := os.Getenv("KVAULT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations; a missing file is not an error in that case.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func findConfigFile() string {
	locations := []string{
		".kvault.yaml",
		".kvault.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "kvault", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "kvault", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".kvault.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// MergeFlags merges command line flag values into the configuration.
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if addr, ok := flags["address"].(string); ok && addr != "" {
		c.Address = addr
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Token = token
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if attempts, ok := flags["retry-attempts"].(int); ok && attempts > 0 {
		if c.Retry == nil {
			c.Retry = DefaultConfig().Retry
		}
		c.Retry.Attempts = attempts
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	} else if u, err := url.Parse(c.Address); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, errors.New("server address must be an http or https URL"))
	}

	if c.TokenHeader == "" {
		errs = append(errs, errors.New("token header name is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if c.Retry != nil {
		if c.Retry.Attempts < 1 {
			errs = append(errs, errors.New("retry attempts must be at least 1"))
		}
		if c.Retry.Base < 0 {
			errs = append(errs, errors.New("retry base delay cannot be negative"))
		}
		if c.Retry.MaxWait <= 0 {
			errs = append(errs, errors.New("retry max wait must be positive"))
		}
		if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
			errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
		}
		for _, name := range c.Retry.RetryableErrors {
			if !kverrors.ValidKind(name) {
				errs = append(errs, fmt.Errorf("unknown retryable error kind: %q", name))
			}
		}
	}

	if c.RateLimit != nil && c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence:
// command line flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".kvault.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
