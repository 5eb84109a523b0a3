package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, cfg Config) Limiter {
	t.Helper()
	l := NewMemoryLimiter(cfg)
	t.Cleanup(func() {
		if s, ok := l.(Stoppable); ok {
			s.Stop()
		}
	})
	return l
}

func drain(l Limiter, key string, n int) (allowed int) {
	for i := 0; i < n; i++ {
		if l.Allow(key) {
			allowed++
		}
	}
	return allowed
}

func TestAllow_CapacityAndDenial(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 3, Window: time.Minute})

	assert.Equal(t, 3, drain(l, "client-a", 3))
	assert.False(t, l.Allow("client-a"))

	// Another key has an untouched bucket
	assert.True(t, l.Allow("client-b"))
}

func TestAllow_Disabled(t *testing.T) {
	l := newLimiter(t, Config{Enabled: false, Requests: 1, Window: time.Minute})
	assert.Equal(t, 10, drain(l, "client-a", 10))
}

func TestReset(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 1, Window: time.Minute})

	require.True(t, l.Allow("client-a"))
	require.False(t, l.Allow("client-a"))

	l.Reset("client-a")
	assert.True(t, l.Allow("client-a"))
}

// Tokens refill continuously at capacity/window, not all at once when the
// window rolls over.
func TestAllow_GradualRefill(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 10, Window: 100 * time.Millisecond})

	require.Equal(t, 10, drain(l, "client-a", 10))
	require.False(t, l.Allow("client-a"))

	time.Sleep(50 * time.Millisecond)

	got := drain(l, "client-a", 10)
	assert.GreaterOrEqual(t, got, 4)
	assert.LessOrEqual(t, got, 6)
}

func TestAllow_FullWindowRestoresBurst(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 2, Window: 40 * time.Millisecond})

	require.Equal(t, 2, drain(l, "client-a", 2))
	require.False(t, l.Allow("client-a"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, drain(l, "client-a", 3))
}

func TestAllow_Concurrent(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 100, Window: time.Minute})

	results := make(chan bool, 200)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.Allow("shared")
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 100, allowed)
}

func TestCleanupStale(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 5, Window: 20 * time.Millisecond})
	ml := l.(*memoryLimiter)

	require.True(t, l.Allow("idle"))
	require.True(t, l.Allow("busy"))

	hasBucket := func(key string) bool {
		ml.mu.RLock()
		defer ml.mu.RUnlock()
		_, ok := ml.buckets[key]
		return ok
	}
	require.True(t, hasBucket("idle"))

	// "busy" stays fresh past the stale threshold, "idle" does not
	time.Sleep(30 * time.Millisecond)
	require.True(t, l.Allow("busy"))
	time.Sleep(30 * time.Millisecond)

	ml.cleanupStale()
	assert.False(t, hasBucket("idle"))
	assert.True(t, hasBucket("busy"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 100, cfg.Requests)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, 5, cfg.AuthRequests)
	assert.Equal(t, time.Minute, cfg.AuthWindow)
}

func TestMiddleware(t *testing.T) {
	l := newLimiter(t, Config{Enabled: true, Requests: 1, Window: time.Minute})
	wrapped := Middleware(l, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("198.51.100.4:9001").Code)

	rec := do("198.51.100.4:9002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("198.51.100.5:9001").Code)
}

func TestMiddleware_NilLimiterPassesThrough(t *testing.T) {
	wrapped := Middleware(nil, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", nil)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "198.51.100.4:9001", nil, "198.51.100.4"},
		{"remote addr without port", "198.51.100.4", nil, "198.51.100.4"},
		{"forwarded-for", "10.1.1.1:9001", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "203.0.113.9"},
		{"forwarded-for chain keeps origin", "10.1.1.1:9001", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.1.1.2"}, "203.0.113.9"},
		{"real-ip", "10.1.1.1:9001", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"forwarded-for beats real-ip", "10.1.1.1:9001", map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "192.0.2.1"}, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
