package startup

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupStaleSnapshotTemps(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, ".snapshot-123.json")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, ".snapshot-456.json")
	require.NoError(t, os.WriteFile(fresh, []byte("{}"), 0o644))

	unrelated := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(unrelated, []byte("{}"), 0o644))
	require.NoError(t, os.Chtimes(unrelated, old, old))

	removed, err := CleanupStaleSnapshotTemps(slog.Default(), dir, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, unrelated)
}

func TestCleanupMissingDirectory(t *testing.T) {
	removed, err := CleanupStaleSnapshotTemps(slog.Default(), filepath.Join(t.TempDir(), "nope"), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
