package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/catarr/internal/models"
)

// SnapshotVersion tags the on-disk snapshot schema.
const SnapshotVersion = "1"

// snapshotDoc is the persisted form of a Store.
type snapshotDoc struct {
	Groups           []snapshotGroup `json:"groups"`
	DefaultGroupName string          `json:"default_group_name"`
	Version          string          `json:"version"`
	Statistics       Statistics      `json:"statistics"`
	CreatedAt        time.Time       `json:"created_at"`
}

type snapshotGroup struct {
	Name     string            `json:"name"`
	Channels []*models.Channel `json:"channels"`
}

// Save writes the store to path as JSON. The write goes through a temp file
// in the same directory followed by a rename, so a crash mid-write never
// leaves a truncated snapshot behind.
func Save(store *Store, path string) error {
	doc := snapshotDoc{
		DefaultGroupName: store.DefaultGroup(),
		Version:          SnapshotVersion,
		Statistics:       store.Stats(),
		CreatedAt:        store.CreatedAt(),
	}
	for _, g := range store.Groups() {
		doc.Groups = append(doc.Groups, snapshotGroup{Name: g.Name, Channels: g.Channels})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads a snapshot from path and rebuilds a sealed Store from
// it without re-parsing any playlist.
func LoadSnapshot(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if doc.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q", doc.Version)
	}

	b := NewBuilder(doc.DefaultGroupName)
	for _, g := range doc.Groups {
		for _, ch := range g.Channels {
			if !ch.Type.Valid() {
				ch.Type = models.ChannelTypeUnknown
			}
			b.Add(ch, g.Name)
		}
	}

	store := b.Build()
	if !doc.CreatedAt.IsZero() {
		store.createdAt = doc.CreatedAt
	}
	return store, nil
}

// SnapshotAge returns how long ago the snapshot at path was created.
func SnapshotAge(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var doc struct {
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decoding snapshot: %w", err)
	}
	if doc.CreatedAt.IsZero() {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		return time.Since(info.ModTime()), nil
	}
	return time.Since(doc.CreatedAt), nil
}
