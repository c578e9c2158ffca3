package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/com-weather/internal/client"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	Env      string
	LogLevel string

	ServerPort string

	// Empty endpoints run that resource in fallback-only mode.
	FeedURL      string
	WeatherURL   string
	FetchTimeout time.Duration // 0 = platform default

	RequestTimeout time.Duration

	RateLimitRPS   int // 0 disables the limiter
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Endpoints struct {
		FeedURL    string `yaml:"feed_url"`
		WeatherURL string `yaml:"weather_url"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"endpoints"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS   *int `yaml:"rate_limit_rps"`
		RateLimitBurst int  `yaml:"rate_limit_burst"`
		CircuitBreaker struct {
			Enabled          bool   `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout         string `yaml:"timeout"`
		InFlightTimeout string `yaml:"inflight_timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from the working directory. See LoadDir.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadDir(cwd)
}

// LoadDir loads dir/.env (if present, without overriding set variables), then
// dir/config/{ENV_NAME}.yaml (default dev). A missing YAML file is not an
// error: everything defaults and both resources serve fallback content.
// FEED_URL, WEATHER_URL, FETCH_TIMEOUT, SERVER_PORT and LOG_LEVEL override the file;
// FEED_URL or WEATHER_URL set to "" clears that endpoint.
func LoadDir(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	configPath := filepath.Join(dir, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{Env: env}
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	cfg.ServerPort = envOr("SERVER_PORT", fc.Server.Port)
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.FeedURL = endpointEnvOr("FEED_URL", fc.Endpoints.FeedURL)
	cfg.WeatherURL = endpointEnvOr("WEATHER_URL", fc.Endpoints.WeatherURL)

	cfg.FetchTimeout = parseDurationOrZero(fc.Endpoints.Timeout, 10*time.Second)
	if v := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.RateLimitRPS = 50
	if fc.Reliability.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.Reliability.RateLimitRPS
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cb := fc.Reliability.CircuitBreaker
	cfg.CircuitBreakerEnabled = cb.Enabled
	cfg.CircuitBreakerFailureThreshold = cb.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = cb.SuccessThreshold
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 2
	}
	cfg.CircuitBreakerTimeout = parseDuration(cb.Timeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = 100 * time.Millisecond

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClientConfig returns the endpoint configuration for the feed client.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		FeedURL:    c.FeedURL,
		WeatherURL: c.WeatherURL,
		Timeout:    c.FetchTimeout,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

// endpointEnvOr is envOr except that a variable set to "" still wins, so
// FEED_URL= switches a YAML-configured resource to fallback-only.
func endpointEnvOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(fallback)
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate rejects malformed endpoints (a typo must not silently become
// fallback-only mode) and keeps RequestTimeout above FetchTimeout.
func validate(cfg *Config) error {
	if err := client.ValidateEndpoint(cfg.FeedURL); err != nil {
		return fmt.Errorf("endpoints.feed_url: %w", err)
	}
	if err := client.ValidateEndpoint(cfg.WeatherURL); err != nil {
		return fmt.Errorf("endpoints.weather_url: %w", err)
	}
	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("endpoints.timeout must not be negative, got %s", cfg.FetchTimeout)
	}
	if cfg.FetchTimeout > 0 && cfg.RequestTimeout <= cfg.FetchTimeout {
		cfg.RequestTimeout = cfg.FetchTimeout + time.Second
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("reliability.rate_limit_rps must not be negative, got %d", cfg.RateLimitRPS)
	}
	return nil
}
