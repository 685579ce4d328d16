package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/pkg/m3u"
)

func runPool(t *testing.T, entries []*m3u.Entry, workers int) *catalog.Store {
	t.Helper()

	tasks := make(chan Task, 8)
	go func() {
		defer close(tasks)
		for i, e := range entries {
			tasks <- Task{Seq: i, Entry: e}
		}
	}()

	builder := catalog.NewBuilder("")
	pool := NewBuilderPool(workers, nil, nil)
	require.NoError(t, pool.Run(context.Background(), tasks, builder))
	return builder.Build()
}

func TestPoolPreservesPlaylistOrder(t *testing.T) {
	const n = 500
	entries := make([]*m3u.Entry, n)
	for i := range entries {
		entries[i] = &m3u.Entry{
			Title:      fmt.Sprintf("Channel %04d", i),
			URL:        fmt.Sprintf("http://x/%d.m3u8", i),
			GroupTitle: "All",
		}
	}

	store := runPool(t, entries, 4)

	channels := store.Channels()
	require.Len(t, channels, n)
	for i, ch := range channels {
		assert.Equal(t, fmt.Sprintf("Channel %04d", i), ch.Name,
			"catalog order must match playlist order")
	}

	group, ok := store.Group("All")
	require.True(t, ok)
	for i, ch := range group.Channels {
		require.Equal(t, fmt.Sprintf("Channel %04d", i), ch.Name)
	}
}

func TestPoolDerivesNameFromURL(t *testing.T) {
	entries := []*m3u.Entry{
		{Title: "A", URL: "http://x/a.ts"},
		{URL: "http://x/anon.ts"}, // no title, no tvg-name
		{Title: "B", URL: "http://x/b.ts"},
	}

	// An entry with a URL is never dropped; the name falls back to the
	// URL's file name.
	store := runPool(t, entries, 2)
	require.Len(t, store.Channels(), 3)
	assert.Equal(t, "A", store.Channels()[0].Name)
	assert.Equal(t, "anon", store.Channels()[1].Name)
	assert.Equal(t, "B", store.Channels()[2].Name)
}

func TestPoolTvgNameFallback(t *testing.T) {
	entries := []*m3u.Entry{
		{TvgName: "From Tvg", URL: "http://x/a.ts"},
	}

	store := runPool(t, entries, 1)
	require.Len(t, store.Channels(), 1)
	assert.Equal(t, "From Tvg", store.Channels()[0].Name)
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := make(chan Task)
	builder := catalog.NewBuilder("")
	pool := NewBuilderPool(2, nil, nil)

	err := pool.Run(ctx, tasks, builder)
	assert.ErrorIs(t, err, context.Canceled)
}
