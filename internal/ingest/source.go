package ingest

import (
	"os"
	"strings"

	"github.com/jmylchreest/catarr/pkg/m3u"
)

// SourceKind says how a source string should be obtained.
type SourceKind int

const (
	// SourceURL is an http(s) URL to fetch.
	SourceURL SourceKind = iota
	// SourceFile is a path to a local playlist file.
	SourceFile
	// SourceRaw is playlist content passed directly as the source string.
	SourceRaw
)

func (k SourceKind) String() string {
	switch k {
	case SourceURL:
		return "url"
	case SourceFile:
		return "file"
	case SourceRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ResolveSource decides whether source is a URL, a local file path, or raw
// playlist text. Anything else is a SourceError.
func ResolveSource(source string) (SourceKind, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return 0, &SourceError{Source: source, Msg: "source is empty"}
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return SourceURL, nil
	}

	if strings.HasPrefix(trimmed, m3u.Header) {
		return SourceRaw, nil
	}

	info, err := os.Stat(trimmed)
	if err == nil && !info.IsDir() {
		return SourceFile, nil
	}

	return 0, &SourceError{
		Source: truncateSource(source),
		Msg:    "not a URL, an existing file, or raw playlist content",
	}
}

// truncateSource keeps error messages readable when raw content was passed.
func truncateSource(source string) string {
	if len(source) > 120 {
		return source[:120] + "..."
	}
	return source
}
