package services

import "context"

// Shutdown stops the server and releases resources in reverse dependency
// order. Errors are logged, not returned: shutdown always runs to the end.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.server != nil {
		if err := m.server.Stop(ctx); err != nil {
			m.logger.Error("Error stopping server", "error", err)
		}
	}

	if m.bus != nil {
		if err := m.bus.Close(); err != nil {
			m.logger.Error("Error closing event bus", "error", err)
		}
	}

	if m.store != nil {
		if err := m.store.Close(ctx); err != nil {
			m.logger.Error("Error closing storage", "error", err)
		}
	}
}
