// Package auth issues and validates the bearer tokens protecting the API.
// Clients exchange a configured api key for a short-lived HS256 token and
// present it on subsequent requests.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Context keys
type ContextKey string

const (
	ContextKeyClient ContextKey = "client"
	ContextKeyRoles  ContextKey = "roles"
)

// Claims are the JWT claims carried by issued tokens.
type Claims struct {
	Client string   `json:"client"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Token is the response of a successful key exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // Seconds
}

// TokenRequest is the key exchange payload.
type TokenRequest struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Service validates api keys, issues tokens and protects handlers.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Enabled reports whether requests must carry a token.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled
}

// Exchange verifies an api key against its bcrypt hash and returns a signed
// token. Unknown names and wrong keys produce the same error.
func (s *Service) Exchange(_ context.Context, req TokenRequest) (*Token, error) {
	var match *APIKey
	for i := range s.cfg.APIKeys {
		if s.cfg.APIKeys[i].Name == req.Name {
			match = &s.cfg.APIKeys[i]
			break
		}
	}
	if match == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(match.Hash), []byte(req.Key)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := Claims{
		Client: match.Name,
		Roles:  match.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   match.Name,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
	}, nil
}

// ValidateToken parses and verifies a token string.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token. When auth is
// disabled it passes everything through.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := s.ValidateToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClient, claims.Client)
		ctx = context.WithValue(ctx, ContextKeyRoles, claims.Roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HashKey produces the bcrypt hash of a key secret, for generating config
// entries.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
