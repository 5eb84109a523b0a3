package services

import "context"

// Start runs the HTTP server. It blocks until the context is canceled or
// the listener fails.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("Starting facetd",
		"storage", m.cfg.Storage.Backend,
		"events", m.cfg.Events.Bus,
		"auth", m.authSvc.Enabled(),
		"collections", len(m.cfg.Catalog),
	)
	return m.server.Start(ctx)
}
