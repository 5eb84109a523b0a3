// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/facetbase/facetd/internal/auth"
	"github.com/facetbase/facetd/internal/catalog"
	"github.com/facetbase/facetd/internal/events"
	"github.com/facetbase/facetd/internal/server"
	storage "github.com/facetbase/facetd/internal/storage/config"
	"github.com/facetbase/facetd/pkg/facet"
)

// Config holds the application configuration
type Config struct {
	Server  server.Config  `yaml:"server"`
	Storage storage.Config `yaml:"storage"`
	Events  events.Config  `yaml:"events"`
	Auth    auth.Config    `yaml:"auth"`
	Logging LoggingConfig  `yaml:"logging"`

	// Catalog declares the collections, their fields and facet bindings.
	Catalog catalog.Catalog `yaml:"catalog"`
}

// Load loads configuration from files and environment variables.
// Order: defaults -> config.yml -> config.local.yml -> ApplyEnvOverrides -> Validate
func Load() (*Config, error) {
	cfg := &Config{
		Server:  server.DefaultConfig(),
		Storage: storage.DefaultConfig(),
		Events:  events.DefaultConfig(),
		Auth:    auth.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
	}

	loadFile("config/config.yml", cfg)
	loadFile("config/config.local.yml", cfg)

	cfg.Server.ApplyDefaults()
	cfg.Server.ApplyEnvOverrides()
	cfg.Storage.ApplyDefaults()
	cfg.Storage.ApplyEnvOverrides()
	cfg.Events.ApplyDefaults()
	cfg.Events.ApplyEnvOverrides()
	cfg.Auth.ApplyDefaults()
	cfg.Auth.ApplyEnvOverrides()
	cfg.Logging.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load for main: configuration errors are fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return cfg
}

// Validate checks every section. The catalog is validated against the
// default filter registry so that a binding whose kind cannot be resolved
// unambiguously fails at startup rather than on the first request.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if len(c.Catalog) == 0 {
		return fmt.Errorf("catalog: no collections declared")
	}
	if err := c.Catalog.Validate(facet.DefaultRegistry()); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	return nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
