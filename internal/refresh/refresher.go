// Package refresh keeps the published catalog up to date: it runs loads on
// demand and on a cron schedule, publishes the result, and persists a
// snapshot after every successful load. A failed refresh keeps the last
// good catalog in place.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/internal/config"
	"github.com/jmylchreest/catarr/internal/ingest"
)

// Refresher coordinates catalog reloads.
type Refresher struct {
	loader       *ingest.Loader
	holder       *catalog.Holder
	snapshotPath string
	cfg          config.RefreshConfig
	logger       *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	// mu serializes refreshes; a load is not internally re-entrant.
	mu sync.Mutex
}

// New creates a refresher. snapshotPath may be empty to disable snapshot
// persistence.
func New(loader *ingest.Loader, holder *catalog.Holder, snapshotPath string, cfg config.RefreshConfig, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		loader:       loader,
		holder:       holder,
		snapshotPath: snapshotPath,
		cfg:          cfg,
		logger:       logger,
	}
}

// Refresh loads source, publishes the new catalog, and writes a snapshot.
// On error the previously published catalog stays in place.
func (r *Refresher) Refresh(ctx context.Context, source string) (*catalog.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.loader.Load(ctx, source)
	if err != nil {
		r.logger.Error("catalog refresh failed, keeping previous catalog", "error", err)
		return nil, err
	}

	r.holder.Swap(store)

	if r.snapshotPath != "" {
		if err := catalog.Save(store, r.snapshotPath); err != nil {
			// The in-memory catalog is already published; a snapshot
			// failure only costs the next startup a network fetch.
			r.logger.Error("writing catalog snapshot failed", "path", r.snapshotPath, "error", err)
		}
	}

	return store, nil
}

// Start begins scheduled refreshes per the configured cron expression.
// It is a no-op when scheduled refresh is disabled.
func (r *Refresher) Start() error {
	if !r.cfg.Enabled {
		return nil
	}
	if r.cfg.Source == "" {
		return fmt.Errorf("scheduled refresh requires a source")
	}

	r.cron = cron.New(cron.WithParser(
		cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	))

	id, err := r.cron.AddFunc(r.cfg.Cron, func() {
		r.logger.Info("scheduled catalog refresh starting", "source_configured", true)
		if _, err := r.Refresh(context.Background(), r.cfg.Source); err != nil {
			r.logger.Warn("scheduled catalog refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling refresh %q: %w", r.cfg.Cron, err)
	}
	r.entryID = id

	r.cron.Start()
	r.logger.Info("scheduled catalog refresh enabled", "cron", r.cfg.Cron)
	return nil
}

// Stop halts scheduled refreshes and waits for a running one to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
}
