// Package config loads service configuration from a YAML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all jewgo-api configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Turnstile TurnstileConfig `yaml:"turnstile"`
	Backend   BackendConfig   `yaml:"backend"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// CORSOrigins lists allowed Origin values; "*" allows any.
	CORSOrigins []string `yaml:"cors_origins"`

	// Timezone is the default IANA zone for open-now evaluation when a
	// venue record does not carry its own.
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig configures the SQL store. Driver is "postgres" in
// production; "sqlite" is supported for local development and tests.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// AuthConfig configures sessions. TTLs are Go duration strings.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	SessionTTL string `yaml:"session_ttl"`
	GuestTTL   string `yaml:"guest_ttl"`

	// CookieDomain scopes the session cookie; empty means host-only.
	CookieDomain string `yaml:"cookie_domain"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// TurnstileConfig configures Cloudflare Turnstile verification for guest
// sessions. When disabled, guest sessions are minted without verification
// (local development only).
type TurnstileConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SecretKey    string `yaml:"secret_key"`
	VerifyURL    string `yaml:"verify_url"`
	TimeoutHuman string `yaml:"timeout"`
}

// BackendConfig configures the legacy upstream proxy.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`

	// CacheTTL bounds how long GET responses are replayed from memory.
	CacheTTL        string `yaml:"cache_ttl"`
	CacheMaxEntries int    `yaml:"cache_max_entries"`
}

// RateLimitConfig holds per-scope token bucket settings. Rates are tokens
// per minute.
type RateLimitConfig struct {
	Bulk   BucketConfig `yaml:"bulk"`
	Review BucketConfig `yaml:"review"`
	Auth   BucketConfig `yaml:"auth"`
	Guest  BucketConfig `yaml:"guest"`
}

// BucketConfig is one token bucket: sustained rate plus burst headroom.
type BucketConfig struct {
	PerMinute float64 `yaml:"per_minute"`
	Burst     float64 `yaml:"burst"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
			Timezone:    "America/New_York",
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			DSN:          "",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			SessionTTL: "24h",
			GuestTTL:   "2h",
		},
		Turnstile: TurnstileConfig{
			Enabled:      true,
			VerifyURL:    "https://challenges.cloudflare.com/turnstile/v0/siteverify",
			TimeoutHuman: "10s",
		},
		Backend: BackendConfig{
			Timeout:         "30s",
			CacheTTL:        "60s",
			CacheMaxEntries: 512,
		},
		RateLimit: RateLimitConfig{
			Bulk:   BucketConfig{PerMinute: 5, Burst: 5},
			Review: BucketConfig{PerMinute: 3, Burst: 3},
			Auth:   BucketConfig{PerMinute: 10, Burst: 10},
			Guest:  BucketConfig{PerMinute: 6, Burst: 6},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file is not an error: defaults plus environment
// are often enough for development.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. These win over
// file values so deployments can keep secrets out of the config file.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitAndTrim(origins)
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if secret := os.Getenv("TURNSTILE_SECRET_KEY"); secret != "" {
		c.Turnstile.SecretKey = secret
	}
	if v := os.Getenv("TURNSTILE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Turnstile.Enabled = b
		}
	}
	if url := os.Getenv("BACKEND_URL"); url != "" {
		c.Backend.BaseURL = url
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks that the configuration can actually run a server.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn (or DATABASE_URL) is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Turnstile.Enabled && c.Turnstile.SecretKey == "" {
		return fmt.Errorf("turnstile.secret_key is required while turnstile is enabled")
	}
	for name, raw := range map[string]string{
		"auth.session_ttl":  c.Auth.SessionTTL,
		"auth.guest_ttl":    c.Auth.GuestTTL,
		"backend.timeout":   c.Backend.Timeout,
		"backend.cache_ttl": c.Backend.CacheTTL,
		"turnstile.timeout": c.Turnstile.TimeoutHuman,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, raw)
		}
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("server.timezone: %w", err)
	}
	return nil
}

// SessionDuration returns the parsed session TTL.
func (c AuthConfig) SessionDuration() time.Duration { return durationOr(c.SessionTTL, 24*time.Hour) }

// GuestDuration returns the parsed guest-session TTL.
func (c AuthConfig) GuestDuration() time.Duration { return durationOr(c.GuestTTL, 2*time.Hour) }

// TimeoutDuration returns the parsed upstream request timeout.
func (c BackendConfig) TimeoutDuration() time.Duration { return durationOr(c.Timeout, 30*time.Second) }

// CacheTTLDuration returns the parsed proxy cache TTL.
func (c BackendConfig) CacheTTLDuration() time.Duration { return durationOr(c.CacheTTL, time.Minute) }

// TimeoutDuration returns the parsed siteverify timeout.
func (c TurnstileConfig) TimeoutDuration() time.Duration {
	return durationOr(c.TimeoutHuman, 10*time.Second)
}

// PerSecond converts the configured per-minute rate to tokens per second.
func (b BucketConfig) PerSecond() float64 { return b.PerMinute / 60 }

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
