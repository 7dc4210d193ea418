package orpipe

import "testing"

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()
	if len(id1) != 36 {
		t.Errorf("expected 36 chars (UUID string form), got %d: %s", len(id1), id1)
	}
	if id1 == id2 {
		t.Error("two IDs should be unique")
	}
}

func TestNewStageID(t *testing.T) {
	jobID := NewID()
	id1 := NewStageID(jobID, "solver")
	id2 := NewStageID(jobID, "solver")

	wantPrefix := jobID + "_solver_"
	if len(id1) <= len(wantPrefix) || id1[:len(wantPrefix)] != wantPrefix {
		t.Errorf("NewStageID(%q, %q) = %q, want prefix %q", jobID, "solver", id1, wantPrefix)
	}
	if id1 == id2 {
		t.Error("two stage IDs for the same job/stage should be unique")
	}
}
