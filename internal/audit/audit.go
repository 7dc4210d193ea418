// Package audit defines the Job Audit Record and the store interface both
// workers write it through. This is operational visibility only — no file
// payloads are persisted, matching the Non-goal against durable artifact
// storage.
package audit

import "context"

// Record is one job's (or sandbox job stage's) audit trail entry.
type Record struct {
	JobID        string
	AgentType    string // one of the three agent roles, or "SANDBOX"
	Stage        string // both workers write ""; a Visualizer stage's sandbox job carries its stage in JobID
	Status       string // mirrors TASK_COMPLETED/TASK_FAILED/CODE_EXECUTED/CODE_FAILED
	ErrorMessage string
	StartedAt    int64 // unix seconds
	FinishedAt   int64 // unix seconds, zero until the job finishes
	DurationMs   int64
}

// Store persists Job Audit Records. Implementations: internal/audit/sqlite
// (modernc.org/sqlite, pure Go) and internal/audit/postgres (jackc/pgx/v5),
// selected by config.AuditConfig.Backend.
type Store interface {
	// Start records a job/stage beginning. FinishedAt/DurationMs are not
	// yet known.
	Start(ctx context.Context, rec Record) error
	// Finish updates a started record with its terminal status and timing.
	Finish(ctx context.Context, jobID, stage, status, errorMessage string, finishedAt, durationMs int64) error
	// Close releases the store's underlying connection(s).
	Close() error
}
