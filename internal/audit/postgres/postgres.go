// Package postgres implements audit.Store using PostgreSQL, accepting an
// externally-created *pgxpool.Pool via constructor injection — the caller
// creates the pool and Store.Close closes it, matching the teacher's
// store/postgres split.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orpipe/orpipe/internal/audit"
)

// Store implements audit.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ audit.Store = (*Store)(nil)

// New wraps an already-connected pool and ensures the audit table exists.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS job_audit (
			job_id TEXT NOT NULL,
			stage TEXT NOT NULL DEFAULT '',
			agent_type TEXT NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT,
			started_at BIGINT NOT NULL,
			finished_at BIGINT,
			duration_ms BIGINT,
			PRIMARY KEY (job_id, stage)
		)`)
	if err != nil {
		return fmt.Errorf("postgres: init schema: %w", err)
	}
	return nil
}

// Start implements audit.Store.
func (s *Store) Start(ctx context.Context, rec audit.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_audit (job_id, stage, agent_type, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id, stage) DO UPDATE SET
			agent_type = excluded.agent_type,
			status = excluded.status,
			started_at = excluded.started_at`,
		rec.JobID, rec.Stage, rec.AgentType, rec.Status, rec.StartedAt)
	if err != nil {
		return fmt.Errorf("postgres: start record: %w", err)
	}
	return nil
}

// Finish implements audit.Store.
func (s *Store) Finish(ctx context.Context, jobID, stage, status, errorMessage string, finishedAt, durationMs int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE job_audit
		SET status = $1, error_message = $2, finished_at = $3, duration_ms = $4
		WHERE job_id = $5 AND stage = $6`,
		status, errorMessage, finishedAt, durationMs, jobID, stage)
	if err != nil {
		return fmt.Errorf("postgres: finish record: %w", err)
	}
	return nil
}

// Close implements audit.Store by closing the pool passed to New, whether or
// not other components share that pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
