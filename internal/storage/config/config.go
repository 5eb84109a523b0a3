package config

import (
	"fmt"
	"os"
)

// Backend identifiers.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Config holds the storage configuration.
type Config struct {
	Backend string      `yaml:"backend"` // memory or mongo
	Mongo   MongoConfig `yaml:"mongo"`
}

// DefaultConfig returns safe defaults for development.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "facetd",
			Collection: "documents",
		},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = defaults.Mongo.URI
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = defaults.Mongo.Database
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = defaults.Mongo.Collection
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FACETD_STORAGE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("FACETD_MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("FACETD_MONGO_DATABASE"); v != "" {
		c.Mongo.Database = v
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("storage: mongo URI is required")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("storage: mongo database is required")
		}
		return nil
	default:
		return fmt.Errorf("storage: unknown backend %q (must be %s or %s)", c.Backend, BackendMemory, BackendMongo)
	}
}
