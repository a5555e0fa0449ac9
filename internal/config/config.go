// Package config manages the configuration stored in config.json in the data
// directory.
package config

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the configuration file inside the data directory.
const FileName = "config.json"

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config stores all configuration.
// Loaded from config.json, created with defaults if missing.
type Config struct {
	// JWTSecret is the secret used to sign session tokens.
	// Auto-generated if empty on first load.
	JWTSecret []byte `json:"jwt_secret"`

	// Locale is used to format dates, e.g. "en_US" or "fr_FR".
	Locale string `json:"locale"`

	// PageSize is the number of posts per page.
	PageSize int `json:"page_size"`

	// SeedFile optionally replaces the built-in sample content. Relative paths
	// are resolved against the data directory.
	SeedFile string `json:"seed_file,omitempty"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `json:"rate_limits"`

	// Storage selects where local storage lives.
	Storage Storage `json:"storage"`
}

// RateLimits defines rate limiting configuration (requests per minute).
type RateLimits struct {
	// AuthRatePerMin limits sign in and sign up attempts per email.
	// 0 means unlimited.
	AuthRatePerMin int `json:"auth_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.AuthRatePerMin < 0 {
		return errors.New("auth_rate_per_min must be non-negative")
	}
	return nil
}

// DefaultRateLimits returns the default rate limits.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		AuthRatePerMin: 5,
	}
}

// Storage selects the local storage backend.
type Storage struct {
	// Backend is one of "file", "memory" or "redis".
	Backend string `json:"backend"`

	// RedisAddr is the host:port of the Redis server. Only used by the redis
	// backend.
	RedisAddr string `json:"redis_addr,omitempty"`

	// RedisPrefix is prepended to every key.
	RedisPrefix string `json:"redis_prefix,omitempty"`
}

// Validate checks the backend settings.
func (s *Storage) Validate() error {
	switch s.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if s.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	return nil
}

// DefaultStorage returns the default storage settings.
func DefaultStorage() Storage {
	return Storage{
		Backend:     BackendFile,
		RedisPrefix: "voltage:",
	}
}

// Default returns a configuration with every default set except JWTSecret.
func Default() Config {
	return Config{
		Locale:     "en_US",
		PageSize:   5,
		RateLimits: DefaultRateLimits(),
		Storage:    DefaultStorage(),
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return errors.New("jwt_secret is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if c.Locale == "" {
		return errors.New("locale is required")
	}
	if c.PageSize <= 0 {
		return errors.New("page_size must be positive")
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// SeedPath returns SeedFile resolved against dataDir, or "" when unset.
func (c *Config) SeedPath(dataDir string) string {
	if c.SeedFile == "" || filepath.IsAbs(c.SeedFile) {
		return c.SeedFile
	}
	return filepath.Join(dataDir, c.SeedFile)
}

// Load loads configuration from dataDir/config.json.
// Creates the file with defaults if it doesn't exist.
// Auto-generates JWTSecret if empty.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, FileName)

	cfg := Default()
	missing := false
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	switch {
	case errors.Is(err, os.ErrNotExist):
		missing = true
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	}

	// Auto-generate JWT secret if missing
	modified := false
	if len(cfg.JWTSecret) == 0 {
		cfg.JWTSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.JWTSecret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		modified = true
	}

	if modified || missing {
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/config.json.
func (c *Config) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dataDir, FileName), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return nil
}
