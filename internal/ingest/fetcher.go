package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jmylchreest/catarr/internal/config"
	"github.com/jmylchreest/catarr/internal/httpclient"
)

// Fetcher retrieves playlist content over HTTP with retry, translating
// transport failures into the ingest error taxonomy.
type Fetcher struct {
	client   *httpclient.Client
	logger   *slog.Logger
	progress *ProgressReporter
}

// NewFetcher builds a fetcher from ingest configuration.
func NewFetcher(cfg config.IngestConfig, logger *slog.Logger, progress *ProgressReporter) *Fetcher {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.HTTPTimeout
	clientCfg.MaxAttempts = cfg.RetryAttempts
	clientCfg.RetryDelay = cfg.RetryDelay
	clientCfg.RetryMaxDelay = cfg.RetryMaxDelay
	clientCfg.Logger = logger

	return &Fetcher{
		client:   httpclient.New(clientCfg),
		logger:   logger,
		progress: progress,
	}
}

// NewFetcherWithClient builds a fetcher around an existing client, used by
// tests and by callers that share one client across components.
func NewFetcherWithClient(client *httpclient.Client, logger *slog.Logger, progress *ProgressReporter) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger, progress: progress}
}

// Fetch GETs url and returns the (decompressed) response body as a stream.
// The caller owns the returned ReadCloser. Content length is -1 when the
// server did not declare one.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	f.progress.Milestone(0, 0, "Connecting to playlist source")

	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, 0, translateFetchError(url, err)
	}

	return resp.Body, resp.ContentLength, nil
}

// FetchAll GETs url and reads the whole body into memory.
func (f *Fetcher) FetchAll(ctx context.Context, url string) ([]byte, error) {
	body, _, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{URL: url, Attempts: 1, Err: err}
	}
	return data, nil
}

// translateFetchError maps transport errors onto the ingest taxonomy:
// non-retryable client rejections become SourceError, exhausted retries
// become NetworkError.
func translateFetchError(url string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return &SourceError{Source: url, Msg: "server rejected request", Err: statusErr}
	}

	var exhausted *httpclient.ExhaustedError
	if errors.As(err, &exhausted) {
		return &NetworkError{URL: url, Attempts: exhausted.Attempts, Err: exhausted.Err}
	}

	return &NetworkError{URL: url, Attempts: 1, Err: err}
}
