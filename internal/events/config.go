package events

import (
	"fmt"
	"os"
)

const (
	BusMemory = "memory"
	BusNATS   = "nats"
)

// Config selects the event bus implementation.
type Config struct {
	Bus  string     `yaml:"bus"`
	NATS NATSConfig `yaml:"nats"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

func DefaultConfig() Config {
	return Config{Bus: BusMemory}
}

func (c *Config) ApplyDefaults() {
	if c.Bus == "" {
		c.Bus = BusMemory
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FACETD_EVENTS_BUS"); v != "" {
		c.Bus = v
	}
	if v := os.Getenv("FACETD_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
}

func (c *Config) Validate() error {
	switch c.Bus {
	case BusMemory, BusNATS:
		return nil
	default:
		return fmt.Errorf("unknown event bus: %q", c.Bus)
	}
}

// New builds the bus selected by the config.
func New(cfg Config) (Bus, error) {
	switch cfg.Bus {
	case BusNATS:
		return NewNATSBus(cfg.NATS.URL)
	default:
		return NewMemoryBus(), nil
	}
}
