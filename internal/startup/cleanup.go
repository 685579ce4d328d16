// Package startup provides utilities for application startup tasks.
package startup

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot temp files follow the CreateTemp pattern ".snapshot-*.json".
// A crash between write and rename leaves one behind.
const (
	snapshotTempPrefix = ".snapshot-"
	snapshotTempSuffix = ".json"
)

// CleanupStaleSnapshotTemps removes leftover snapshot temp files in dir that
// are older than maxAge. Files younger than maxAge are kept in case another
// process is mid-write. Returns the number of files removed.
func CleanupStaleSnapshotTemps(logger *slog.Logger, dir string, maxAge time.Duration) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, snapshotTempPrefix) || !strings.HasSuffix(name, snapshotTempSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale snapshot temp file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}

		logger.Debug("removed stale snapshot temp file", slog.String("path", path))
		removed++
	}

	return removed, nil
}
