// Package testutil provides shared test helpers for setting up data
// directories and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/aoyagi/manabi/internal/index"
	"github.com/aoyagi/manabi/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "manabi-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary data directory with a store.Provider.
func TestStore(t *testing.T) (string, store.Provider) {
	t.Helper()
	dataDir := t.TempDir()
	st, err := store.NewFiles(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, st
}
