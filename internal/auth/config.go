package auth

import (
	"fmt"
	"os"
	"time"
)

// APIKey is one configured client credential. Hash is the bcrypt hash of
// the key secret; raw secrets never appear in the config file.
type APIKey struct {
	Name  string   `yaml:"name"`
	Hash  string   `yaml:"hash"`
	Roles []string `yaml:"roles,omitempty"`
}

type Config struct {
	Enabled   bool          `yaml:"enabled"`
	JWTSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
	APIKeys   []APIKey      `yaml:"apiKeys"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		TokenTTL: time.Hour,
	}
}

func (c *Config) ApplyDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FACETD_AUTH_ENABLED"); v != "" {
		c.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("FACETD_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwtSecret must be at least 32 bytes when auth is enabled")
	}
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.apiKeys must not be empty when auth is enabled")
	}
	seen := map[string]bool{}
	for _, k := range c.APIKeys {
		if k.Name == "" || k.Hash == "" {
			return fmt.Errorf("auth.apiKeys entries need both name and hash")
		}
		if seen[k.Name] {
			return fmt.Errorf("duplicate api key name %q", k.Name)
		}
		seen[k.Name] = true
	}
	return nil
}
