// Package storage provides the document storage backends and their factory.
package storage

import (
	"context"
	"fmt"

	"github.com/facetbase/facetd/internal/storage/config"
	"github.com/facetbase/facetd/internal/storage/internal/memory"
	"github.com/facetbase/facetd/internal/storage/internal/mongo"
	"github.com/facetbase/facetd/internal/storage/types"
)

// Aliases so that callers only need to import this package.
type (
	Document = types.Document
	Backend  = types.Backend
)

var (
	CalculateID = types.CalculateID
	NewDocument = types.NewDocument
	Flatten     = types.Flatten
)

// New creates a storage backend from configuration.
func New(ctx context.Context, cfg config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New()
	case config.BackendMongo:
		return mongo.New(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
