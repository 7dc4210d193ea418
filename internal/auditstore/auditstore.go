// Package auditstore wires config.AuditConfig to a concrete audit.Store,
// shared by both worker mains so the backend switch lives in one place.
package auditstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orpipe/orpipe/internal/audit"
	"github.com/orpipe/orpipe/internal/audit/postgres"
	"github.com/orpipe/orpipe/internal/audit/sqlite"
	"github.com/orpipe/orpipe/internal/config"
)

// Open selects and initializes the Job Audit Store named by cfg.Backend.
func Open(ctx context.Context, cfg config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("auditstore: postgres pool: %w", err)
		}
		store, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("auditstore: postgres init: %w", err)
		}
		return store, nil
	case "sqlite", "":
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("auditstore: sqlite init: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("auditstore: unknown backend %q", cfg.Backend)
	}
}
