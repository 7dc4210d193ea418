package sqlite

import (
	"context"
	"testing"

	"github.com/orpipe/orpipe/internal/audit"
)

func TestStartAndFinish(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	rec := audit.Record{
		JobID:     "job-1",
		AgentType: "MODELER_AGENT",
		Stage:     "",
		Status:    "RUNNING",
		StartedAt: 1000,
	}
	if err := store.Start(ctx, rec); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := store.Finish(ctx, "job-1", "", "TASK_COMPLETED", "", 1005, 5000); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var status string
	var durationMs int64
	row := store.db.QueryRowContext(ctx, `SELECT status, duration_ms FROM job_audit WHERE job_id = ? AND stage = ?`, "job-1", "")
	if err := row.Scan(&status, &durationMs); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if status != "TASK_COMPLETED" {
		t.Errorf("expected TASK_COMPLETED, got %s", status)
	}
	if durationMs != 5000 {
		t.Errorf("expected 5000, got %d", durationMs)
	}
}

func TestStart_StageScoping(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Start(ctx, audit.Record{JobID: "job-2", Stage: "solver", AgentType: "SANDBOX", Status: "RUNNING", StartedAt: 1}); err != nil {
		t.Fatalf("start solver: %v", err)
	}
	if err := store.Start(ctx, audit.Record{JobID: "job-2", Stage: "viz", AgentType: "SANDBOX", Status: "RUNNING", StartedAt: 2}); err != nil {
		t.Fatalf("start viz: %v", err)
	}

	var count int
	row := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_audit WHERE job_id = ?`, "job-2")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 distinct stage rows, got %d", count)
	}
}
