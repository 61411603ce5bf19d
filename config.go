package authcore

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/pkalnins/authcore/jwt"
	"github.com/pkalnins/authcore/password"
)

// Config is the immutable engine configuration. It is cloned at Build
// time; nothing reads it from ambient global state afterwards.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Account  AccountConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig carries the two signing keys and token lifetimes. AccessKey
// and RefreshKey must be present and distinct; each variant only ever
// verifies against its own key.
type JWTConfig struct {
	AccessKey  []byte
	RefreshKey []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the bcrypt work factor.
type PasswordConfig struct {
	Cost int
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls signup and the activation policy.
//
// RequireActive makes login reject records whose Active flag is false.
// It defaults to false: the historical behavior is that a deactivated
// account with correct credentials still authenticates, and flipping
// that is an explicit operator decision, not a silent one.
type AccountConfig struct {
	Enabled       bool
	RequireActive bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes the optional Redis throttles. All throttling is
// off by default; enabling any of it makes a Redis client mandatory at
// Build.
type SecurityConfig struct {
	EnableLoginThrottle     bool
	EnableIPThrottle        bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	EnableRefreshThrottle   bool
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 15m access tokens,
// 180d refresh tokens, bcrypt cost 12, signup enabled, throttles off,
// audit and metrics off. Signing keys are not defaulted and must be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  jwt.DefaultAccessTTL,
			RefreshTTL: jwt.DefaultRefreshTTL,
		},
		Password: PasswordConfig{
			Cost: password.DefaultCost,
		},
		Account: AccountConfig{
			Enabled: true,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   time.Minute,
			MaxRefreshAttempts:      10,
			RefreshCooldownDuration: time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessKey = append([]byte(nil), cfg.JWT.AccessKey...)
	out.JWT.RefreshKey = append([]byte(nil), cfg.JWT.RefreshKey...)
	return out
}

// Validate checks the configuration the way Build will. A config that
// fails here must keep the process from serving traffic.
func (c *Config) Validate() error {
	if len(c.JWT.AccessKey) == 0 {
		return errors.New("JWT.AccessKey is required")
	}
	if len(c.JWT.RefreshKey) == 0 {
		return errors.New("JWT.RefreshKey is required")
	}
	if bytes.Equal(c.JWT.AccessKey, c.JWT.RefreshKey) {
		return errors.New("JWT access and refresh keys must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT TTLs must be positive")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT.Leeway out of range")
	}
	if c.Password.Cost < 0 {
		return errors.New("Password.Cost must not be negative")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security.MaxLoginAttempts must be positive")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security.LoginCooldownDuration must be positive")
		}
	}
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 {
			return errors.New("Security.MaxRefreshAttempts must be positive")
		}
		if c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("Security.RefreshCooldownDuration must be positive")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive")
	}

	return nil
}

type envConfig struct {
	AccessKey     string        `env:"AUTH_ACCESS_TOKEN_KEY,notEmpty"`
	RefreshKey    string        `env:"AUTH_REFRESH_TOKEN_KEY,notEmpty"`
	AccessTTL     time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"4320h"`
	BcryptCost    int           `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	RequireActive bool          `env:"AUTH_REQUIRE_ACTIVE_ACCOUNTS" envDefault:"false"`
}

// ConfigFromEnv loads configuration from process environment variables.
// A missing signing key is a startup-fatal configuration error: callers
// must treat a non-nil error as "do not serve traffic", never as a
// per-request condition.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := defaultConfig()
	cfg.JWT.AccessKey = []byte(ec.AccessKey)
	cfg.JWT.RefreshKey = []byte(ec.RefreshKey)
	cfg.JWT.AccessTTL = ec.AccessTTL
	cfg.JWT.RefreshTTL = ec.RefreshTTL
	cfg.Password.Cost = ec.BcryptCost
	cfg.Account.RequireActive = ec.RequireActive

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
