package services

import (
	"context"
	"fmt"
	"time"

	"github.com/facetbase/facetd/internal/auth"
	"github.com/facetbase/facetd/internal/engine"
	"github.com/facetbase/facetd/internal/events"
	"github.com/facetbase/facetd/internal/gateway/rest"
	"github.com/facetbase/facetd/internal/server"
	"github.com/facetbase/facetd/internal/storage"
	storagecfg "github.com/facetbase/facetd/internal/storage/config"
	"github.com/facetbase/facetd/pkg/facet"
)

// Injection points for tests.
var (
	newBackend = func(ctx context.Context, cfg storagecfg.Config) (storage.Backend, error) {
		return storage.New(ctx, cfg)
	}
	newBus = func(cfg events.Config) (events.Bus, error) {
		return events.New(cfg)
	}
)

// Init builds the service graph. It must be called before Start.
func (m *Manager) Init(ctx context.Context) error {
	store, err := newBackend(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	m.store = store

	bus, err := newBus(m.cfg.Events)
	if err != nil {
		return fmt.Errorf("init event bus: %w", err)
	}
	m.bus = bus

	m.engine = engine.New(m.store, m.bus, m.cfg.Catalog, facet.DefaultRegistry())
	m.authSvc = auth.NewService(m.cfg.Auth)

	m.server = server.New(m.cfg.Server, m.logger)

	handler := rest.NewHandler(m.engine, m.authSvc)
	handler.RegisterRoutes(m.server.HTTPMux(), m.server.AuthRateLimiter(), m.authRateLimitWindow())

	return nil
}

// authRateLimitWindow is the Retry-After window of the token endpoint.
func (m *Manager) authRateLimitWindow() time.Duration {
	rl := m.cfg.Server.RateLimit
	if rl.AuthWindow != 0 {
		return rl.AuthWindow
	}
	if rl.Window != 0 {
		return rl.Window
	}
	return time.Minute
}
