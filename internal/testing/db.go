// Package testing provides testing utilities and helpers for the etfscope project.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/etfscope/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a temporary directory and
// applies the embedded schema of the same name.
// Returns the database instance and a cleanup function that closes the connection.
// The cleanup function is also registered with t.Cleanup and is safe to call twice.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name)),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
	t.Cleanup(cleanup)

	return db, cleanup
}

// NewTestDataDir creates a temporary data directory holding one CSV file per
// entry of files, keyed by symbol. Contents are written verbatim.
func NewTestDataDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for symbol, content := range files {
		path := filepath.Join(dir, symbol+".csv")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write test series %s: %v", symbol, err)
		}
	}
	return dir
}
