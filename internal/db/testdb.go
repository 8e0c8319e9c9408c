package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory backend database with migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, Migrate)
}

// NewDraftTestDB creates a fresh in-memory draft database.
func NewDraftTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return newTestDB(t, EnsureDraftSchema)
}

func newTestDB(t *testing.T, setup func(*sql.DB) error) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	if err := setup(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
