// Package ingest turns a playlist source (URL, file, or raw text) into a
// sealed catalog. It wires together the fetcher, encoding detection, the
// incremental playlist parser, and the channel builder pool.
package ingest

import (
	"fmt"

	"github.com/jmylchreest/catarr/pkg/m3u"
)

// ParseError is a structurally invalid playlist, carrying the line number
// and an excerpt of the offending line.
type ParseError = m3u.ParseError

// SourceError means the source string could not be used: it is neither a
// reachable URL, an existing file, nor raw playlist content, or the server
// rejected the request with a non-retryable client error.
type SourceError struct {
	Source string
	Msg    string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid source %q: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid source %q: %s", e.Source, e.Msg)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NetworkError means every fetch attempt failed. It carries the URL and
// how many attempts were made so callers can decide whether to fall back
// to a cached snapshot.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch failed for %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
