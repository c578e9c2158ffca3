package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{"ENV_NAME", "FEED_URL", "WEATHER_URL", "FETCH_TIMEOUT", "SERVER_PORT", "LOG_LEVEL"}

// clearEnv unsets every variable Load consults and restores them after t.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, dir, env, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", env+".yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadDir_NoFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.FeedURL != "" || cfg.WeatherURL != "" {
		t.Errorf("endpoints = %q, %q, want empty", cfg.FeedURL, cfg.WeatherURL)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS != 50 || cfg.RateLimitBurst != 100 {
		t.Errorf("rate limit = %d/%d, want 50/100", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.CircuitBreakerEnabled {
		t.Error("CircuitBreakerEnabled = true, want false by default")
	}
	if cfg.ShutdownTimeout != 30*time.Second || cfg.ShutdownInFlightTimeout != 10*time.Second {
		t.Errorf("shutdown timeouts = %v, %v", cfg.ShutdownTimeout, cfg.ShutdownInFlightTimeout)
	}
}

func TestLoadDir_ReadsYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", `
server:
  port: "9090"
endpoints:
  feed_url: https://campus.example.edu/feed.json
  weather_url: https://campus.example.edu/weather.json
  timeout: 3s
request:
  timeout: 8s
reliability:
  rate_limit_rps: 0
  rate_limit_burst: 20
  circuit_breaker:
    enabled: true
    failure_threshold: 4
    success_threshold: 1
    timeout: 45s
shutdown:
  timeout: 12s
  inflight_timeout: 4s
`)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.FeedURL != "https://campus.example.edu/feed.json" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.WeatherURL != "https://campus.example.edu/weather.json" {
		t.Errorf("WeatherURL = %q", cfg.WeatherURL)
	}
	if cfg.FetchTimeout != 3*time.Second || cfg.RequestTimeout != 8*time.Second {
		t.Errorf("timeouts = %v, %v, want 3s, 8s", cfg.FetchTimeout, cfg.RequestTimeout)
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("RateLimitRPS = %d, want 0 (disabled)", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want 20", cfg.RateLimitBurst)
	}
	if !cfg.CircuitBreakerEnabled || cfg.CircuitBreakerFailureThreshold != 4 ||
		cfg.CircuitBreakerSuccessThreshold != 1 || cfg.CircuitBreakerTimeout != 45*time.Second {
		t.Errorf("circuit breaker = %v/%d/%d/%v", cfg.CircuitBreakerEnabled, cfg.CircuitBreakerFailureThreshold,
			cfg.CircuitBreakerSuccessThreshold, cfg.CircuitBreakerTimeout)
	}
	if cfg.ShutdownTimeout != 12*time.Second || cfg.ShutdownInFlightTimeout != 4*time.Second {
		t.Errorf("shutdown timeouts = %v, %v", cfg.ShutdownTimeout, cfg.ShutdownInFlightTimeout)
	}

	cc := cfg.ClientConfig()
	if cc.FeedURL != cfg.FeedURL || cc.WeatherURL != cfg.WeatherURL || cc.Timeout != cfg.FetchTimeout {
		t.Errorf("ClientConfig() = %+v", cc)
	}
}

func TestLoadDir_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "staging", `
server:
  port: "9090"
endpoints:
  feed_url: https://campus.example.edu/feed.json
`)
	t.Setenv("ENV_NAME", "staging")
	t.Setenv("FEED_URL", "http://localhost:9000/feed")
	t.Setenv("WEATHER_URL", "http://localhost:9000/weather")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("FETCH_TIMEOUT", "0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.Env != "staging" {
		t.Errorf("Env = %q, want staging", cfg.Env)
	}
	if cfg.FeedURL != "http://localhost:9000/feed" {
		t.Errorf("FeedURL = %q, want env value", cfg.FeedURL)
	}
	if cfg.WeatherURL != "http://localhost:9000/weather" {
		t.Errorf("WeatherURL = %q, want env value", cfg.WeatherURL)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want 7070", cfg.ServerPort)
	}
	if cfg.FetchTimeout != 0 {
		t.Errorf("FetchTimeout = %v, want 0 (platform default)", cfg.FetchTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadDir_EmptyEndpointEnvDisablesYAMLEndpoint(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", `
endpoints:
  feed_url: https://campus.example.edu/feed.json
  weather_url: https://campus.example.edu/weather.json
`)
	t.Setenv("FEED_URL", "")

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.FeedURL != "" {
		t.Errorf("FeedURL = %q, want empty (fallback-only)", cfg.FeedURL)
	}
	if cfg.WeatherURL != "https://campus.example.edu/weather.json" {
		t.Errorf("WeatherURL = %q, want YAML value", cfg.WeatherURL)
	}
}

func TestLoadDir_DotEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WEATHER_URL=https://campus.example.edu/w.json\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.WeatherURL != "https://campus.example.edu/w.json" {
		t.Errorf("WeatherURL = %q, want value from .env", cfg.WeatherURL)
	}
}

func TestLoadDir_RequestTimeoutRaisedAboveFetchTimeout(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, "dev", "endpoints:\n  timeout: 20s\nrequest:\n  timeout: 5s\n")

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.RequestTimeout != 21*time.Second {
		t.Errorf("RequestTimeout = %v, want 21s", cfg.RequestTimeout)
	}
}

func TestLoadDir_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{name: "feed url without scheme", yaml: "endpoints:\n  feed_url: campus.example.edu/feed\n", wantErr: "feed_url"},
		{name: "weather url bad scheme", yaml: "endpoints:\n  weather_url: ftp://campus.example.edu/w\n", wantErr: "weather_url"},
		{name: "negative timeout", yaml: "endpoints:\n  timeout: -1s\n", wantErr: "timeout"},
		{name: "negative rps", yaml: "reliability:\n  rate_limit_rps: -3\n", wantErr: "rate_limit_rps"},
		{name: "bad FETCH_TIMEOUT", env: map[string]string{"FETCH_TIMEOUT": "soon"}, wantErr: "FETCH_TIMEOUT"},
		{name: "malformed yaml", yaml: "endpoints: [\n", wantErr: "parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			if tt.yaml != "" {
				writeEnvFile(t, dir, "dev", tt.yaml)
			}

			cfg, err := LoadDir(dir)
			if err == nil {
				t.Fatalf("LoadDir() expected error, got config %+v", cfg)
			}
			if cfg != nil {
				t.Errorf("LoadDir() expected nil config on error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadDir() error = %v, want message containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"2m", time.Second, 2 * time.Minute},
		{"bogus", time.Second, time.Second},
		{"0s", time.Second, time.Second},
		{"-5s", time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := parseDurationOrZero("0s", time.Second); got != 0 {
		t.Errorf("parseDurationOrZero(\"0s\") = %v, want 0", got)
	}
}
