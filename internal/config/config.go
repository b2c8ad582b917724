// Package config loads runtime configuration from the environment via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Development-only secrets. Production deployments must override both.
const (
	InsecureDevSecret    = "dev-secret"
	InsecureDevJWTSecret = "jwt-secret"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SecretKey is the general application secret.
	SecretKey string `mapstructure:"SECRET_KEY"`
	// JWTSecret signs access tokens (HS256).
	JWTSecret    string `mapstructure:"JWT_SECRET_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// TokenRequireActive rejects tokens of deactivated or missing users on every request.
	TokenRequireActive bool   `mapstructure:"TOKEN_REQUIRE_ACTIVE"`
	PasswordAlgorithm  string `mapstructure:"PASSWORD_ALGORITHM"`
	BcryptCost         int    `mapstructure:"BCRYPT_COST"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxyHeaders bool   `mapstructure:"TRUST_PROXY_HEADERS"`
	Env               string `mapstructure:"APP_ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFormat         string `mapstructure:"LOG_FORMAT"`

	RateLimit RateLimitConfig `mapstructure:",squash"`
}

// RateLimitConfig holds per-client request budgets. Zero disables a single limit.
type RateLimitConfig struct {
	Enabled    bool `mapstructure:"RATE_LIMIT_ENABLED"`
	PerDay     int  `mapstructure:"RATE_LIMIT_PER_DAY"`
	PerHour    int  `mapstructure:"RATE_LIMIT_PER_HOUR"`
	Register   int  `mapstructure:"RATE_LIMIT_REGISTER_PER_MINUTE"`
	Login      int  `mapstructure:"RATE_LIMIT_LOGIN_PER_MINUTE"`
	Read       int  `mapstructure:"RATE_LIMIT_READ_PER_MINUTE"`
	Update     int  `mapstructure:"RATE_LIMIT_UPDATE_PER_MINUTE"`
	Deactivate int  `mapstructure:"RATE_LIMIT_DEACTIVATE_PER_MINUTE"`
}

var defaults = map[string]any{
	"PORT":                             "8080",
	"DATABASE_URL":                     "sqlite:users.db",
	"SECRET_KEY":                       InsecureDevSecret,
	"JWT_SECRET_KEY":                   InsecureDevJWTSecret,
	"JWT_ISSUER":                       "account-service",
	"JWT_ACCESS_TTL":                   "15m",
	"TOKEN_REQUIRE_ACTIVE":             true,
	"PASSWORD_ALGORITHM":               "bcrypt",
	"BCRYPT_COST":                      12,
	"CORS_ALLOWED_ORIGINS":             "*",
	"TRUST_PROXY_HEADERS":              false,
	"APP_ENV":                          "development",
	"LOG_LEVEL":                        "info",
	"LOG_FORMAT":                       "json",
	"RATE_LIMIT_ENABLED":               true,
	"RATE_LIMIT_PER_DAY":               200,
	"RATE_LIMIT_PER_HOUR":              50,
	"RATE_LIMIT_REGISTER_PER_MINUTE":   5,
	"RATE_LIMIT_LOGIN_PER_MINUTE":      5,
	"RATE_LIMIT_READ_PER_MINUTE":       20,
	"RATE_LIMIT_UPDATE_PER_MINUTE":     10,
	"RATE_LIMIT_DEACTIVATE_PER_MINUTE": 5,
}

// Load reads configuration from the environment and performs minimal validation.
// The .env file is loaded by the caller (see cmd/server) before Load runs.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.trim()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) trim() {
	c.Port = strings.TrimSpace(c.Port)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.JWTIssuer = strings.TrimSpace(c.JWTIssuer)
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// Validate checks required fields and refuses development secrets in production.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT must be set")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}
	if c.SecretKey == "" {
		return errors.New("config: SECRET_KEY must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET_KEY must be set")
	}
	if c.IsProduction() && c.UsesInsecureSecrets() {
		return errors.New("config: SECRET_KEY and JWT_SECRET_KEY must be overridden when APP_ENV=production")
	}
	if _, err := time.ParseDuration(c.JWTAccessTTL); err != nil {
		return fmt.Errorf("config: invalid JWT_ACCESS_TTL %q: %w", c.JWTAccessTTL, err)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	switch strings.ToLower(c.PasswordAlgorithm) {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("config: unsupported PASSWORD_ALGORITHM %q", c.PasswordAlgorithm)
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// AccessTTL parses JWTAccessTTL. Returns 15m if unset or invalid.
func (c Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// CORSOrigins splits CORSAllowedOrigins on commas; empty means "*".
func (c Config) CORSOrigins() []string {
	return parseCSV(c.CORSAllowedOrigins)
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesInsecureSecrets reports whether either secret still has its development default.
func (c Config) UsesInsecureSecrets() bool {
	return c.SecretKey == InsecureDevSecret || c.JWTSecret == InsecureDevJWTSecret
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
