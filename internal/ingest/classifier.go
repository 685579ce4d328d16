package ingest

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/catarr/internal/models"
	"github.com/jmylchreest/catarr/pkg/m3u"
)

// vodExtensions are container formats that indicate downloadable media
// rather than a live stream.
var vodExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

// seasonEpisodeRegex matches S01E02-style tags plus spelled-out season and
// episode markers.
var seasonEpisodeRegex = regexp.MustCompile(`(?i)\bs\d{1,2}\s*e\d{1,3}\b|\bseason\s*\d+\b|\bepisode\s*\d+\b`)

var (
	vodKeywords    = []string{"movie", "vod", "film"}
	seriesKeywords = []string{"series", "show", "episode"}
)

// ClassifyChannel decides a channel's stream type from its playlist entry.
// It is a pure function of the entry: the same input always yields the same
// type. Rules are checked in a fixed order and the first match wins.
func ClassifyChannel(entry *m3u.Entry) models.ChannelType {
	urlLower := strings.ToLower(entry.URL)
	nameLower := strings.ToLower(entry.Title)

	// 1. VOD file extension on the URL path. A season/episode marker in the
	// name or path makes it an episode rather than a standalone movie.
	if hasVODExtension(urlLower) {
		if seasonEpisodeRegex.MatchString(nameLower) || seasonEpisodeRegex.MatchString(urlLower) {
			return models.ChannelTypeSeries
		}
		return models.ChannelTypeVOD
	}

	// 2. Explicit type attribute from the playlist.
	switch strings.ToLower(entry.Extra["type"]) {
	case "movie", "vod":
		return models.ChannelTypeVOD
	case "series", "show":
		return models.ChannelTypeSeries
	case "live", "channel":
		return models.ChannelTypeLive
	}

	// 3. Group title keywords.
	groupLower := strings.ToLower(entry.GroupTitle)
	if containsAny(groupLower, vodKeywords) {
		return models.ChannelTypeVOD
	}
	if containsAny(groupLower, seriesKeywords) {
		return models.ChannelTypeSeries
	}

	// 4. Season/episode pattern in the display name.
	if seasonEpisodeRegex.MatchString(nameLower) {
		return models.ChannelTypeSeries
	}

	// 5. URL path segments.
	if containsAny(urlLower, []string{"/movie/", "/vod/", "/film/"}) {
		return models.ChannelTypeVOD
	}
	if containsAny(urlLower, []string{"/series/", "/show/", "/episode/"}) {
		return models.ChannelTypeSeries
	}
	if containsAny(urlLower, []string{"/live/", "live.m3u8", ".ts"}) {
		return models.ChannelTypeLive
	}

	// 6. Streaming-format extension.
	urlPath := stripQuery(urlLower)
	if strings.HasSuffix(urlPath, ".m3u8") || strings.HasSuffix(urlPath, ".ts") ||
		strings.HasSuffix(urlPath, ".mpd") {
		return models.ChannelTypeLive
	}

	// 7. No rule matched.
	return models.ChannelTypeUnknown
}

// hasVODExtension reports whether the URL path ends with a VOD container
// extension, ignoring any query string.
func hasVODExtension(urlLower string) bool {
	path := stripQuery(urlLower)
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return vodExtensions[path[idx:]]
	}
	return false
}

// stripQuery drops the query string from a URL.
func stripQuery(url string) string {
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		return url[:idx]
	}
	return url
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
