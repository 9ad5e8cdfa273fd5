package repo

import (
	"context"
	"errors"
	"testing"
)

func TestEnsureSession_InsertOrIgnore(t *testing.T) {
	db := newSchemaDB(t)
	ctx := context.Background()

	if err := EnsureSession(ctx, db, "s1"); err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	first, err := GetSession(ctx, db, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	if err := EnsureSession(ctx, db, "s1"); err != nil {
		t.Fatalf("EnsureSession again: %v", err)
	}
	again, err := GetSession(ctx, db, "s1")
	if err != nil {
		t.Fatalf("GetSession again: %v", err)
	}
	if !again.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", first.CreatedAt, again.CreatedAt)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	db := newSchemaDB(t)
	if _, err := GetSession(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
