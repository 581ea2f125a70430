// Package testutil provides shared test helpers for setting up recipe
// databases and import directories.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/larder/internal/recipestore"
	"github.com/starford/larder/internal/storage"
)

// TestStore creates a temporary SQLite recipe store that is automatically cleaned up.
func TestStore(t *testing.T) *recipestore.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "larder-test-*.db")
	require.NoError(t, err)
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := recipestore.Open(recipestore.DriverSQLite, dbFile.Name())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestRecipeDir creates a temporary recipe directory with a storage.Provider.
func TestRecipeDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	require.NoError(t, err)
	return dir, store
}
