package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"flume/config"
)

// NewFromConfig creates the tenant store backend selected in the
// configuration.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig, logger *logrus.Entry) (Store, error) {
	switch cfg.Backend {
	case config.StoreBackendPostgres:
		return NewPostgresStore(ctx, cfg.Database.DSN, cfg.Database.MinConnections, cfg.Database.MaxConnections, logger)
	case config.StoreBackendObject:
		return NewObjectStore(cfg.Object, logger)
	case config.StoreBackendMemory:
		logger.Warn("using in-memory tenant store, documents will not survive a restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
