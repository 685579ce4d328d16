// Package testutil generates sample playlist data for tests.
package testutil

import (
	"fmt"
	"strings"
)

// Fictional broadcasters only. Never use real brand names in generated data.
var (
	broadcasters = []string{
		"StreamCast",
		"ViewMedia",
		"AeroVision",
		"GlobalStream",
		"NationalNet",
		"SportsCentral",
		"CinemaMax",
		"NewsFirst",
	}

	groups = []string{
		"News",
		"Sports",
		"Movies",
		"Music",
		"Documentary",
	}
)

// Channel is one generated playlist entry.
type Channel struct {
	Name  string
	Group string
	TvgID string
	URL   string
}

// Channels generates n deterministic sample channels cycling through the
// fictional broadcasters and groups.
func Channels(n int) []Channel {
	out := make([]Channel, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s %d", broadcasters[i%len(broadcasters)], i+1)
		out = append(out, Channel{
			Name:  name,
			Group: groups[i%len(groups)],
			TvgID: fmt.Sprintf("ch%04d", i+1),
			URL:   fmt.Sprintf("http://stream.example/live/%04d.m3u8", i+1),
		})
	}
	return out
}

// Playlist renders channels as an M3U document.
func Playlist(channels []Channel) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for _, ch := range channels {
		fmt.Fprintf(&b, "#EXTINF:-1 tvg-id=%q group-title=%q,%s\n", ch.TvgID, ch.Group, ch.Name)
		b.WriteString(ch.URL)
		b.WriteByte('\n')
	}
	return b.String()
}
