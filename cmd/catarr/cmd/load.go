package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/internal/ingest"
	"github.com/jmylchreest/catarr/pkg/bytesize"
)

var loadNoSnapshot bool

var loadCmd = &cobra.Command{
	Use:   "load <source>",
	Short: "Ingest a playlist once and print a summary",
	Long: `Ingest a playlist from a URL, file path, or raw M3U content, build the
catalog, write a snapshot, and print a summary.

Useful for validating a playlist source before pointing the server at it:

  catarr load https://provider.example/playlist.m3u8
  catarr load ./channels.m3u --no-snapshot`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadNoSnapshot, "no-snapshot", false, "skip writing the catalog snapshot")
}

func runLoad(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := runtimeConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := func(current, total int, message string) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "%s (%d/%d)\n", message, current, total)
			return
		}
		fmt.Fprintf(os.Stderr, "%s (%d)\n", message, current)
	}

	loader := ingest.NewLoader(cfg.Ingest, logger, progress)

	store, err := loader.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("loading playlist: %w", err)
	}

	if !loadNoSnapshot {
		path := cfg.Snapshot.SnapshotPath()
		if err := catalog.Save(store, path); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		if fi, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Snapshot written: %s (%s)\n", path, bytesize.Format(bytesize.Size(fi.Size())))
		} else {
			fmt.Fprintln(os.Stderr, "Snapshot written:", path)
		}
	}

	stats := store.Stats()
	fmt.Printf("Channels: %d\n", stats.TotalChannels)
	fmt.Printf("Groups:   %d\n", stats.TotalGroups)
	for _, typ := range []string{"live", "vod", "series", "unknown"} {
		if n := stats.ChannelsByType[typ]; n > 0 {
			fmt.Printf("  %-8s %d\n", typ, n)
		}
	}

	return nil
}
