package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware wraps a handler with per-client-IP rate limiting. Used for
// routes that need a limiter stricter than the server-wide one, such as the
// token endpoint.
func Middleware(limiter Limiter, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.FormatInt(int64(window.Seconds()), 10)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow(GetClientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP extracts the client IP address from the request, preferring
// the proxy headers over RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
