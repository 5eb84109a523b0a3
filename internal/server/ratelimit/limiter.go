// Package ratelimit provides rate limiting for API endpoints.
package ratelimit

import (
	"time"
)

// Limiter decides whether a request identified by a key may proceed.
type Limiter interface {
	// Allow reports whether a request from the given key should be allowed.
	Allow(key string) bool

	// Reset clears the rate limit state for the given key.
	Reset(key string)
}

// Stoppable extends Limiter with a Stop method for limiters that run
// background cleanup.
type Stoppable interface {
	Limiter
	Stop()
}

// Config holds the configuration for rate limiting.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool `yaml:"enabled"`

	// Requests is the maximum number of requests allowed per window.
	Requests int `yaml:"requests"`

	// Window is the duration of the rate limiting window.
	Window time.Duration `yaml:"window"`

	// AuthRequests and AuthWindow configure the stricter limiter applied
	// to the token endpoint. Zero values fall back to Requests/Window.
	AuthRequests int           `yaml:"auth_requests"`
	AuthWindow   time.Duration `yaml:"auth_window"`
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Requests:     100,
		Window:       time.Minute,
		AuthRequests: 5,
		AuthWindow:   time.Minute,
	}
}
