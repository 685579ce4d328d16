// Package probe inspects a channel's stream URL and reports what actually
// sits behind it: an HLS master playlist, a media playlist, a raw MPEG-TS
// feed, or a progressive file. This is deeper than the name/URL heuristics
// used during ingestion and is meant for on-demand diagnostics of a single
// channel, never for bulk loads.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"
)

// StreamKind is the probed shape of a stream.
type StreamKind string

const (
	// KindMaster is an HLS master playlist referencing quality variants.
	KindMaster StreamKind = "hls-master"
	// KindMedia is an HLS media playlist carrying segments directly.
	KindMedia StreamKind = "hls-media"
	// KindRawTS is a bare MPEG-TS stream.
	KindRawTS StreamKind = "raw-ts"
	// KindProgressive is a downloadable container (mp4, mkv, ...).
	KindProgressive StreamKind = "progressive"
	// KindUnknown is anything the prober could not identify.
	KindUnknown StreamKind = "unknown"
)

// Result describes one probed stream.
type Result struct {
	Kind StreamKind `json:"kind"`

	// VariantCount is the number of variants in a master playlist.
	VariantCount int `json:"variant_count,omitempty"`

	// MaxBandwidthBps is the highest declared variant bandwidth.
	MaxBandwidthBps int `json:"max_bandwidth_bps,omitempty"`

	// TargetDuration is the media playlist's target segment duration in
	// seconds.
	TargetDuration int `json:"target_duration,omitempty"`

	// SegmentCount is the number of segments in a media playlist.
	SegmentCount int `json:"segment_count,omitempty"`

	// Reasons records how the prober reached its verdict.
	Reasons []string `json:"reasons"`
}

// Prober fetches and inspects stream URLs.
type Prober struct {
	client           *http.Client
	timeout          time.Duration
	maxPlaylistBytes int
}

// New creates a prober on top of an existing HTTP client.
func New(client *http.Client) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	return &Prober{
		client:           client,
		timeout:          6 * time.Second,
		maxPlaylistBytes: 256 * 1024,
	}
}

// Probe inspects streamURL. Probe never returns an error for unclassifiable
// streams; the Result's Reasons explain what happened.
func (p *Prober) Probe(ctx context.Context, streamURL string) Result {
	result := Result{Kind: KindUnknown, Reasons: []string{}}

	parsed, err := url.Parse(streamURL)
	if err != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("invalid URL: %v", err))
		return result
	}

	path := strings.ToLower(parsed.Path)

	if strings.HasSuffix(path, ".ts") {
		result.Kind = KindRawTS
		result.Reasons = append(result.Reasons, "extension .ts indicates raw MPEG-TS")
		return result
	}

	for _, ext := range []string{".mp4", ".mkv", ".mov", ".avi", ".wmv", ".webm", ".m4v"} {
		if strings.HasSuffix(path, ext) {
			result.Kind = KindProgressive
			result.Reasons = append(result.Reasons, "progressive container extension "+ext)
			return result
		}
	}

	if !strings.HasSuffix(path, ".m3u8") && !strings.HasSuffix(path, ".m3u") {
		result.Reasons = append(result.Reasons, "path does not indicate an HLS playlist")
		return result
	}

	data, err := p.fetchPlaylist(ctx, streamURL)
	if err != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("fetching playlist: %v", err))
		return result
	}

	pl, err := playlist.Unmarshal(data)
	if err != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("parsing playlist: %v", err))
		return result
	}

	switch hp := pl.(type) {
	case *playlist.Multivariant:
		result.Kind = KindMaster
		result.VariantCount = len(hp.Variants)
		for _, v := range hp.Variants {
			if v.Bandwidth > result.MaxBandwidthBps {
				result.MaxBandwidthBps = v.Bandwidth
			}
		}
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("master playlist with %d variant(s)", len(hp.Variants)))

	case *playlist.Media:
		result.Kind = KindMedia
		result.TargetDuration = hp.TargetDuration
		result.SegmentCount = len(hp.Segments)
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("media playlist with %d segment(s)", len(hp.Segments)))

	default:
		result.Reasons = append(result.Reasons, "unrecognized playlist type")
	}

	return result
}

// fetchPlaylist GETs the playlist with a bounded read.
func (p *Prober) fetchPlaylist(ctx context.Context, streamURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, int64(p.maxPlaylistBytes)))
}
