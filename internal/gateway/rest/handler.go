package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/facetbase/facetd/internal/auth"
	"github.com/facetbase/facetd/internal/engine"
	"github.com/facetbase/facetd/internal/server/ratelimit"
	"github.com/facetbase/facetd/pkg/facet"
	"github.com/facetbase/facetd/pkg/model"
)

// Default body size limit
const DefaultMaxBodySize = 1 << 20 // 1MB

// Default request timeout
const DefaultRequestTimeout = 30 * time.Second

// Handler exposes the engine over HTTP.
type Handler struct {
	engine *engine.Engine
	auth   *auth.Service
}

func NewHandler(eng *engine.Engine, authSvc *auth.Service) *Handler {
	if authSvc == nil {
		panic("auth service cannot be nil")
	}
	return &Handler{engine: eng, auth: authSvc}
}

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeInternalError writes an internal error response, but first checks if
// the error is due to client cancellation (returns 499 instead of 500).
func writeInternalError(w http.ResponseWriter, err error, message string) {
	if model.IsCanceled(err) {
		w.WriteHeader(499) // Client Closed Request
		return
	}
	slog.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// writeEngineError maps engine and storage errors to HTTP responses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Document not found")
	case errors.Is(err, model.ErrUnknownCollection):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Unknown collection")
	case errors.Is(err, model.ErrInvalidQuery), errors.Is(err, facet.ErrUnknownField):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		writeInternalError(w, err, "Internal storage error")
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// RegisterRoutes mounts the API on mux. The token endpoint gets its own
// rate limiter so credential stuffing cannot ride the general limit.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authLimiter ratelimit.Limiter, authWindow time.Duration) {
	// Browse and facets
	mux.HandleFunc("GET /v1/collections", withTimeout(h.protected(h.handleListCollections), DefaultRequestTimeout))
	mux.HandleFunc("GET /v1/collections/{collection}", withTimeout(h.protected(h.handleBrowse), DefaultRequestTimeout))

	// Document Operations (with body size limit for write operations)
	// Note: Request ID and panic recovery are handled by the unified server middleware
	mux.HandleFunc("GET /v1/collections/{collection}/docs/{id}", withTimeout(h.protected(h.handleGetDocument), DefaultRequestTimeout))
	mux.HandleFunc("PUT /v1/collections/{collection}/docs/{id}", withTimeout(maxBodySize(h.protected(h.handlePutDocument), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("POST /v1/collections/{collection}/docs", withTimeout(maxBodySize(h.protected(h.handleCreateDocument), DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("DELETE /v1/collections/{collection}/docs/{id}", withTimeout(h.protected(h.handleDeleteDocument), DefaultRequestTimeout))

	// Query Operations
	mux.HandleFunc("POST /v1/collections/{collection}/query", withTimeout(maxBodySize(h.protected(h.handleQuery), DefaultMaxBodySize), DefaultRequestTimeout))

	// Change streams (no withTimeout: connections are long-lived)
	mux.HandleFunc("GET /v1/collections/{collection}/watch", h.protected(h.handleWatch))
	mux.HandleFunc("GET /v1/collections/{collection}/events", h.protected(h.handleEvents))

	// Auth Operations
	if h.auth.Enabled() {
		token := withTimeout(maxBodySize(h.handleToken, DefaultMaxBodySize), DefaultRequestTimeout)
		mux.Handle("POST /v1/auth/token", ratelimit.Middleware(authLimiter, authWindow)(http.HandlerFunc(token)))
	}

	// Health Check (no auth, minimal timeout)
	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}

func (h *Handler) protected(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.auth.Middleware(handler).ServeHTTP(w, r)
	}
}
