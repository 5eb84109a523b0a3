package ratelimit

import (
	"sync"
	"time"
)

// memoryLimiter is an in-memory token bucket limiter. Each key holds a
// fixed-size bucket, so space and time per operation are O(1).
type memoryLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
	config  Config

	cleanupT *time.Ticker
	stopCh   chan struct{}
}

// tokenBucket tracks the available tokens for one key. Tokens refill at a
// constant rate of capacity/window.
type tokenBucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewMemoryLimiter creates an in-memory token bucket limiter.
func NewMemoryLimiter(cfg Config) Limiter {
	l := &memoryLimiter{
		buckets: make(map[string]*tokenBucket),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	// Stale buckets are cheap but still worth collecting with many
	// distinct client keys.
	l.cleanupT = time.NewTicker(cfg.Window * 2)
	go l.cleanup()

	return l
}

func (l *memoryLimiter) Allow(key string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	capacity := float64(l.config.Requests)
	fillRate := capacity / l.config.Window.Seconds()

	b, exists := l.buckets[key]
	if !exists {
		// This request consumes one token of a fresh bucket
		l.buckets[key] = &tokenBucket{
			tokens:     capacity - 1,
			lastUpdate: now,
		}
		return true
	}

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = min(capacity, b.tokens+elapsed*fillRate)
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}

	return false
}

func (l *memoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *memoryLimiter) cleanup() {
	for {
		select {
		case <-l.cleanupT.C:
			l.cleanupStale()
		case <-l.stopCh:
			l.cleanupT.Stop()
			return
		}
	}
}

// cleanupStale removes buckets whose keys have been idle for two windows.
func (l *memoryLimiter) cleanupStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	staleThreshold := l.config.Window * 2

	for key, b := range l.buckets {
		if now.Sub(b.lastUpdate) > staleThreshold {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *memoryLimiter) Stop() {
	close(l.stopCh)
}

var _ Stoppable = (*memoryLimiter)(nil)
