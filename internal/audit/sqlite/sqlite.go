// Package sqlite implements audit.Store using pure-Go SQLite, matching the
// teacher's single-shared-connection idiom to avoid SQLITE_BUSY errors from
// concurrent writers.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/orpipe/orpipe/internal/audit"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store implements audit.Store backed by a local SQLite file.
type Store struct {
	db *sql.DB
}

var _ audit.Store = (*Store)(nil)

// New opens dbPath with a single shared connection, so writers within this
// process serialize instead of racing independent connections. Each worker
// process opens its own Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS job_audit (
			job_id TEXT NOT NULL,
			stage TEXT NOT NULL DEFAULT '',
			agent_type TEXT NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			duration_ms INTEGER,
			PRIMARY KEY (job_id, stage)
		)`)
	if err != nil {
		return fmt.Errorf("sqlite: init schema: %w", err)
	}
	return nil
}

// Start implements audit.Store.
func (s *Store) Start(ctx context.Context, rec audit.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_audit (job_id, stage, agent_type, status, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id, stage) DO UPDATE SET
			agent_type = excluded.agent_type,
			status = excluded.status,
			started_at = excluded.started_at`,
		rec.JobID, rec.Stage, rec.AgentType, rec.Status, rec.StartedAt)
	if err != nil {
		return fmt.Errorf("sqlite: start record: %w", err)
	}
	return nil
}

// Finish implements audit.Store.
func (s *Store) Finish(ctx context.Context, jobID, stage, status, errorMessage string, finishedAt, durationMs int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_audit
		SET status = ?, error_message = ?, finished_at = ?, duration_ms = ?
		WHERE job_id = ? AND stage = ?`,
		status, errorMessage, finishedAt, durationMs, jobID, stage)
	if err != nil {
		return fmt.Errorf("sqlite: finish record: %w", err)
	}
	return nil
}

// Close implements audit.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
