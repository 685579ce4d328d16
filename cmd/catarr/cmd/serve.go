package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/catarr/internal/catalog"
	internalhttp "github.com/jmylchreest/catarr/internal/http"
	"github.com/jmylchreest/catarr/internal/http/handlers"
	"github.com/jmylchreest/catarr/internal/httpclient"
	"github.com/jmylchreest/catarr/internal/ingest"
	"github.com/jmylchreest/catarr/internal/probe"
	"github.com/jmylchreest/catarr/internal/refresh"
	"github.com/jmylchreest/catarr/internal/startup"
	"github.com/jmylchreest/catarr/internal/version"
	"github.com/jmylchreest/catarr/pkg/duration"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catarr server",
	Long: `Start the catarr HTTP server and API.

The server provides:
- REST API for browsing groups, channels, and quality variants
- M3U playlist export of the current catalog
- Scheduled catalog refresh from a configured source
- Health check endpoint and OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("source", "", "Playlist source to load on startup and refresh from")
	serveCmd.Flags().String("snapshot-dir", "./data", "Directory for catalog snapshots")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("refresh.source", serveCmd.Flags().Lookup("source"))
	viper.BindPFlag("snapshot.directory", serveCmd.Flags().Lookup("snapshot-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := runtimeConfig()
	if err != nil {
		return err
	}

	loader := ingest.NewLoader(cfg.Ingest, logger, nil)
	holder := catalog.NewHolder(nil)
	snapshotPath := cfg.Snapshot.SnapshotPath()

	if removed, err := startup.CleanupStaleSnapshotTemps(logger, cfg.Snapshot.Directory, time.Hour); err != nil {
		logger.Warn("snapshot temp cleanup failed", slog.String("error", err.Error()))
	} else if removed > 0 {
		logger.Info("removed stale snapshot temp files", slog.Int("count", removed))
	}

	// Snapshot-first startup: a previous catalog beats an empty one while
	// the first network load runs. Snapshots past their configured age are
	// skipped so a long-stopped instance does not serve stale channels.
	maxAge := cfg.Snapshot.MaxAge.Duration()
	if age, err := catalog.SnapshotAge(snapshotPath); err == nil && maxAge > 0 && age > maxAge {
		logger.Info("ignoring stale catalog snapshot",
			slog.String("path", snapshotPath),
			slog.String("age", duration.Format(age)),
			slog.String("max_age", cfg.Snapshot.MaxAge.String()),
		)
	} else if store, err := catalog.LoadSnapshot(snapshotPath); err == nil {
		holder.Swap(store)
		stats := store.Stats()
		logger.Info("catalog restored from snapshot",
			slog.String("path", snapshotPath),
			slog.Int("channels", stats.TotalChannels),
			slog.Int("groups", stats.TotalGroups),
		)
	} else {
		logger.Info("no usable catalog snapshot", slog.String("path", snapshotPath))
	}

	refresher := refresh.New(loader, holder, snapshotPath, cfg.Refresh, logger)
	if err := refresher.Start(); err != nil {
		return fmt.Errorf("starting refresher: %w", err)
	}
	defer refresher.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial load in the background so a slow or flaky playlist host
	// never delays serving.
	if cfg.Refresh.Source != "" {
		go func() {
			if _, err := refresher.Refresh(ctx, cfg.Refresh.Source); err != nil {
				logger.Error("initial catalog load failed", slog.String("error", err.Error()))
			}
		}()
	}

	probeClient := httpclient.New(httpclient.Config{
		Timeout:   cfg.Ingest.HTTPTimeout,
		UserAgent: httpclient.DefaultUserAgentHeader,
		Logger:    logger,
	})
	prober := probe.New(probeClient.StandardClient())

	server := internalhttp.NewServer(cfg.Server, logger, version.Short())

	handlers.NewHealthHandler(version.Short(), holder).Register(server.API())
	handlers.NewCatalogHandler(holder, refresher, loader).
		WithLogger(logger).
		Register(server.API())
	handlers.NewProbeHandler(prober).Register(server.API())
	handlers.NewExportHandler(holder, logger).Register(server.Router())

	return server.ListenAndServe(ctx)
}
