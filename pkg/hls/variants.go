// Package hls parses HLS master playlists into ranked quality variants.
// It deliberately handles only the master-playlist subset (EXT-X-STREAM-INF
// blocks); media playlists yield an empty variant list.
package hls

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// streamInfTag marks a variant block in a master playlist.
const streamInfTag = "#EXT-X-STREAM-INF:"

// QualityVariant is one rendition referenced from an HLS master playlist.
type QualityVariant struct {
	// Resolution is "WxH", or empty when the playlist omits it.
	Resolution string `json:"resolution,omitempty"`

	// BandwidthBps is the declared peak bandwidth in bits per second.
	BandwidthBps int `json:"bandwidth_bps"`

	// URL is the absolute variant playlist URL.
	URL string `json:"url"`

	// DisplayName is a human-readable quality label.
	DisplayName string `json:"display_name"`

	// Codecs is the declared codec string, if any.
	Codecs string `json:"codecs,omitempty"`
}

// ParseVariants extracts quality variants from master playlist content.
// Variant URLs are resolved against masterURL. Content without any
// EXT-X-STREAM-INF tag returns an empty slice: that is how callers detect
// a media playlist rather than a master. Variants missing the mandatory
// BANDWIDTH attribute are dropped. The result is sorted by bandwidth,
// descending.
func ParseVariants(content string, masterURL string) ([]*QualityVariant, error) {
	base, err := url.Parse(masterURL)
	if err != nil {
		return nil, fmt.Errorf("parsing master playlist URL: %w", err)
	}

	var variants []*QualityVariant
	var pending map[string]string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, streamInfTag) {
			pending = parseStreamInfAttrs(line[len(streamInfTag):])
			continue
		}

		if strings.HasPrefix(line, "#") {
			// Other tags do not interrupt a pending STREAM-INF block.
			continue
		}

		if pending == nil {
			continue
		}

		v := buildVariant(pending, line, base)
		pending = nil
		if v != nil {
			variants = append(variants, v)
		}
	}

	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].BandwidthBps > variants[j].BandwidthBps
	})

	return variants, nil
}

// buildVariant converts a parsed attribute set plus its URI line into a
// QualityVariant. Returns nil when BANDWIDTH is missing or unparsable.
func buildVariant(attrs map[string]string, uri string, base *url.URL) *QualityVariant {
	bandwidth, err := strconv.Atoi(attrs["BANDWIDTH"])
	if err != nil || bandwidth <= 0 {
		return nil
	}

	v := &QualityVariant{
		Resolution:   attrs["RESOLUTION"],
		BandwidthBps: bandwidth,
		Codecs:       attrs["CODECS"],
		URL:          resolveURL(base, uri),
	}

	if name := attrs["NAME"]; name != "" {
		v.DisplayName = name
	} else {
		v.DisplayName = displayName(v.Resolution, bandwidth)
	}

	return v
}

// parseStreamInfAttrs splits a STREAM-INF attribute list into a key→value
// map. Values may be quoted and quoted values may contain commas.
func parseStreamInfAttrs(s string) map[string]string {
	attrs := make(map[string]string)

	for len(s) > 0 {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(s[:eq])
		s = s[eq+1:]

		var value string
		if strings.HasPrefix(s, `"`) {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				value = s[1:]
				s = ""
			} else {
				value = s[1 : end+1]
				s = s[end+2:]
			}
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				value = s
				s = ""
			} else {
				value = s[:end]
				s = s[end:]
			}
		}

		if key != "" {
			attrs[strings.ToUpper(key)] = value
		}

		s = strings.TrimPrefix(strings.TrimSpace(s), ",")
	}

	return attrs
}

// resolveURL makes a variant URI absolute relative to the master playlist.
// Unparsable URIs are returned as-is.
func resolveURL(base *url.URL, uri string) string {
	ref, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return base.ResolveReference(ref).String()
}

// displayName maps a variant's resolution (or, failing that, bandwidth) to
// a human-readable quality label.
func displayName(resolution string, bandwidthBps int) string {
	if height := resolutionHeight(resolution); height > 0 {
		switch {
		case height >= 2160:
			return "4K UHD"
		case height >= 1440:
			return "1440p QHD"
		case height >= 1080:
			return "1080p HD"
		case height >= 720:
			return "720p HD"
		case height >= 480:
			return "480p SD"
		case height >= 360:
			return "360p"
		default:
			return fmt.Sprintf("%dp", height)
		}
	}

	kbps := bandwidthBps / 1000
	switch {
	case kbps >= 5000:
		return fmt.Sprintf("High (%dkbps)", kbps)
	case kbps >= 2000:
		return "Medium"
	default:
		return "Low"
	}
}

// resolutionHeight parses the height out of a "WxH" resolution string.
func resolutionHeight(resolution string) int {
	_, h, ok := strings.Cut(strings.ToLower(resolution), "x")
	if !ok {
		return 0
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0
	}
	return height
}
