// Package services wires the process together: storage, events, engine,
// auth and the HTTP server, in dependency order.
package services

import (
	"log/slog"

	"github.com/facetbase/facetd/internal/auth"
	"github.com/facetbase/facetd/internal/config"
	"github.com/facetbase/facetd/internal/engine"
	"github.com/facetbase/facetd/internal/events"
	"github.com/facetbase/facetd/internal/server"
	"github.com/facetbase/facetd/internal/storage"
)

type Manager struct {
	cfg    *config.Config
	logger *slog.Logger

	store   storage.Backend
	bus     events.Bus
	engine  *engine.Engine
	authSvc *auth.Service
	server  server.Service
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Engine returns the document engine. It is nil before Init.
func (m *Manager) Engine() *engine.Engine {
	return m.engine
}

func (m *Manager) AuthService() *auth.Service {
	return m.authSvc
}

func (m *Manager) Server() server.Service {
	return m.server
}
