package auditstore

import (
	"context"
	"testing"

	"github.com/orpipe/orpipe/internal/config"
)

func TestOpen_SQLiteDefault(t *testing.T) {
	store, err := Open(context.Background(), config.AuditConfig{SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.AuditConfig{Backend: "oracle"})
	if err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
