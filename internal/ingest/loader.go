package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/internal/config"
	"github.com/jmylchreest/catarr/internal/models"
	"github.com/jmylchreest/catarr/internal/observability"
	"github.com/jmylchreest/catarr/pkg/hls"
	"github.com/jmylchreest/catarr/pkg/m3u"
)

// Loader runs one full ingestion: source resolution, fetch, decode, parse,
// classify, and catalog construction. A Loader is safe for reuse across
// loads but an individual Load is not internally re-entrant.
type Loader struct {
	cfg      config.IngestConfig
	logger   *slog.Logger
	fetcher  *Fetcher
	progress *ProgressReporter
}

// NewLoader builds a loader from configuration. progressFn may be nil.
func NewLoader(cfg config.IngestConfig, logger *slog.Logger, progressFn ProgressFunc) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	progress := NewProgressReporter(progressFn, cfg.ProgressEvery, cfg.ProgressInterval)
	return &Loader{
		cfg:      cfg,
		logger:   logger,
		fetcher:  NewFetcher(cfg, logger, progress),
		progress: progress,
	}
}

// Load ingests the source and returns a sealed catalog. The source may be
// an http(s) URL, a local file path, or raw playlist text. On any error the
// previous catalog (held by the caller) remains untouched: no partial store
// is ever returned.
func (l *Loader) Load(ctx context.Context, source string) (*catalog.Store, error) {
	loadID := models.NewULID()
	logger := observability.WithLoadID(l.logger, loadID.String())

	kind, err := ResolveSource(source)
	if err != nil {
		return nil, err
	}
	logger.Info("starting playlist load", "source_kind", kind.String())

	reader, cleanup, err := l.openSource(ctx, kind, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	store, err := l.ingest(ctx, kind, source, reader, logger)
	if err != nil {
		return nil, err
	}

	stats := store.Stats()
	logger.Info("playlist load complete",
		"channels", stats.TotalChannels,
		"groups", stats.TotalGroups)
	l.progress.Milestone(stats.TotalChannels, stats.TotalChannels, "Load complete")

	return store, nil
}

// ParseMasterPlaylist fetches a single stream's master playlist and returns
// its quality variants, highest bandwidth first. A media playlist (no
// variant tags) yields an empty slice.
func (l *Loader) ParseMasterPlaylist(ctx context.Context, streamURL string) ([]*hls.QualityVariant, error) {
	data, err := l.fetcher.FetchAll(ctx, streamURL)
	if err != nil {
		return nil, err
	}
	return hls.ParseVariants(string(data), streamURL)
}

// openSource turns the resolved source into a decompressed, UTF-8 decoded
// reader. The returned cleanup must be called once parsing finishes.
func (l *Loader) openSource(ctx context.Context, kind SourceKind, source string) (io.Reader, func(), error) {
	noop := func() {}

	switch kind {
	case SourceRaw:
		return strings.NewReader(source), noop, nil

	case SourceFile:
		f, err := os.Open(strings.TrimSpace(source))
		if err != nil {
			return nil, noop, &SourceError{Source: source, Msg: "opening playlist file", Err: err}
		}
		reader, err := l.decodeStream(l.capReader(f))
		if err != nil {
			f.Close()
			return nil, noop, &SourceError{Source: source, Msg: "reading playlist file", Err: err}
		}
		return reader, func() { f.Close() }, nil

	case SourceURL:
		body, _, err := l.fetcher.Fetch(ctx, source)
		if err != nil {
			return nil, noop, err
		}
		reader, err := l.decodeStream(l.capReader(body))
		if err != nil {
			body.Close()
			if errors.Is(err, ErrPlaylistTooLarge) {
				return nil, noop, &SourceError{Source: source, Msg: "playlist exceeds maximum size", Err: err}
			}
			return nil, noop, &NetworkError{URL: source, Attempts: 1, Err: err}
		}
		return reader, func() { body.Close() }, nil

	default:
		return nil, noop, &SourceError{Source: source, Msg: "unsupported source kind"}
	}
}

// capReader bounds the raw bytes read from a source. The cap applies to the
// wire bytes, before decompression.
func (l *Loader) capReader(r io.Reader) io.Reader {
	maxBytes := l.cfg.MaxPlaylistSize.Bytes()
	if maxBytes <= 0 {
		return r
	}
	return &cappedReader{r: r, remaining: maxBytes + 1}
}

// ErrPlaylistTooLarge reports a source that exceeded ingest.max_playlist_size.
var ErrPlaylistTooLarge = errors.New("playlist exceeds maximum size")

type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, ErrPlaylistTooLarge
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining <= 0 {
		return n, ErrPlaylistTooLarge
	}
	return n, err
}

// decodeStream layers decompression sniffing and charset detection over a
// raw byte stream. The charset is detected once, from the first chunk.
func (l *Loader) decodeStream(r io.Reader) (io.Reader, error) {
	decompressed, err := m3u.NewReader(r)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(decompressed, encodingSampleSize)
	sample, err := br.Peek(encodingSampleSize)
	if err != nil && err != io.EOF {
		return nil, err
	}

	reader, name := DecodeReader(br, sample)
	if name != "utf-8" {
		l.logger.Debug("transcoding playlist", "charset", name)
	}
	return reader, nil
}

// ingest runs the producer/pool pipeline over an opened reader.
func (l *Loader) ingest(ctx context.Context, kind SourceKind, source string, reader io.Reader, logger *slog.Logger) (*catalog.Store, error) {
	queueSize := l.cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	tasks := make(chan Task, queueSize)
	parseDone := make(chan error, 1)

	parsed := 0
	parser := &m3u.Parser{
		RequireHeader: true,
		OnEntry: func(entry *m3u.Entry) error {
			select {
			case tasks <- Task{Seq: parsed, Entry: entry}:
				parsed++
				l.progress.Report(parsed, 0, "Parsing playlist")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnError: func(lineNum int, err error) {
			logger.Warn("skipping malformed entry", "line", lineNum, "error", err)
		},
	}

	go func() {
		defer close(tasks)
		parseDone <- parser.Parse(reader)
	}()

	builder := catalog.NewBuilder(l.cfg.DefaultGroup)
	pool := NewBuilderPool(l.cfg.Workers, logger, l.progress)
	if err := pool.Run(ctx, tasks, builder); err != nil {
		<-parseDone
		return nil, err
	}

	if err := <-parseDone; err != nil {
		return nil, l.translateParseError(kind, source, err)
	}

	return builder.Build(), nil
}

// translateParseError folds producer-side failures into the load error
// taxonomy: structural playlist errors stay ParseErrors, cancellation
// surfaces as the context error, and mid-stream read failures on a network
// source become NetworkErrors.
func (l *Loader) translateParseError(kind SourceKind, source string, err error) error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr
	}
	if errors.Is(err, ErrPlaylistTooLarge) {
		return &SourceError{Source: source, Msg: "playlist exceeds maximum size", Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if kind == SourceURL {
		return &NetworkError{URL: source, Attempts: 1, Err: err}
	}
	return fmt.Errorf("parsing playlist: %w", err)
}
