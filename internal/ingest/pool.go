package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/internal/models"
	"github.com/jmylchreest/catarr/pkg/m3u"
)

// DefaultWorkers is the builder pool size when none is configured.
const DefaultWorkers = 4

// Task is one parsed playlist entry queued for classification. Seq is the
// entry's position in the playlist and drives deterministic catalog order.
type Task struct {
	Seq   int
	Entry *m3u.Entry
}

// builtChannel is a classified channel on its way to the collector.
type builtChannel struct {
	seq   int
	ch    *models.Channel
	group string
}

// BuilderPool turns parsed playlist entries into catalog channels. A fixed
// set of workers classifies entries in parallel; a single collector owns
// the catalog builder, so no catalog state is ever touched concurrently.
// The collector re-sequences worker output so channels land in the catalog
// in playlist order regardless of which worker finished first.
type BuilderPool struct {
	workers  int
	logger   *slog.Logger
	progress *ProgressReporter
}

// NewBuilderPool creates a pool. workers <= 0 selects DefaultWorkers.
func NewBuilderPool(workers int, logger *slog.Logger, progress *ProgressReporter) *BuilderPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BuilderPool{workers: workers, logger: logger, progress: progress}
}

// Run drains tasks into the builder and blocks until every queued and
// in-flight entry has been collected or ctx is cancelled. The producer
// signals end-of-input by closing tasks. Sequence numbers must start at 0
// and be gapless.
func (p *BuilderPool) Run(ctx context.Context, tasks <-chan Task, builder *catalog.Builder) error {
	built := make(chan builtChannel, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx, tasks, built)
		}()
	}

	go func() {
		wg.Wait()
		close(built)
	}()

	// Single collector: all builder mutation happens here. Out-of-order
	// results wait in a staging map until their predecessors arrive.
	staged := make(map[int]builtChannel)
	next := 0
	for bc := range built {
		staged[bc.seq] = bc
		for {
			ready, ok := staged[next]
			if !ok {
				break
			}
			delete(staged, next)
			next++
			builder.Add(ready.ch, ready.group)
			p.progress.Report(builder.Len(), 0, "Building channels")
		}
	}

	return ctx.Err()
}

// work classifies entries until the task channel closes or ctx is cancelled.
func (p *BuilderPool) work(ctx context.Context, tasks <-chan Task, built chan<- builtChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}

			ch := buildChannel(task.Entry)

			select {
			case built <- builtChannel{seq: task.Seq, ch: ch, group: task.Entry.GroupTitle}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// buildChannel constructs a classified channel from a playlist entry. An
// entry with a URL is never dropped: when both the title and tvg-name are
// empty the name is derived from the URL, as the playlist writer intended
// the stream to be listed.
func buildChannel(entry *m3u.Entry) *models.Channel {
	name := entry.Title
	if name == "" {
		name = entry.TvgName
	}
	if name == "" {
		name = m3u.TitleFromURL(entry.URL)
	}

	return &models.Channel{
		Name:      name,
		StreamURL: entry.URL,
		TvgID:     entry.TvgID,
		TvgLogo:   entry.TvgLogo,
		Type:      ClassifyChannel(entry),
	}
}
