package m3u

import (
	"bytes"
	"compress/gzip"
	"errors"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// collect parses content and returns all emitted entries.
func collect(t *testing.T, p *Parser, content string) []*Entry {
	t.Helper()
	var entries []*Entry
	p.OnEntry = func(entry *Entry) error {
		entries = append(entries, entry)
		return nil
	}
	if err := p.Parse(strings.NewReader(content)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return entries
}

func TestParser_BasicParsing(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 tvg-id="channel1" tvg-name="Channel One" tvg-logo="http://example.com/logo.png" group-title="News",Channel 1 HD
http://example.com/stream1.m3u8
#EXTINF:-1 tvg-id="channel2" tvg-name="Channel Two" group-title="Sports",Channel 2
http://example.com/stream2.m3u8
`

	entries := collect(t, &Parser{}, content)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	e1 := entries[0]
	if e1.TvgID != "channel1" {
		t.Errorf("expected tvg-id 'channel1', got '%s'", e1.TvgID)
	}
	if e1.TvgName != "Channel One" {
		t.Errorf("expected tvg-name 'Channel One', got '%s'", e1.TvgName)
	}
	if e1.TvgLogo != "http://example.com/logo.png" {
		t.Errorf("expected tvg-logo 'http://example.com/logo.png', got '%s'", e1.TvgLogo)
	}
	if e1.GroupTitle != "News" {
		t.Errorf("expected group-title 'News', got '%s'", e1.GroupTitle)
	}
	if e1.Title != "Channel 1 HD" {
		t.Errorf("expected title 'Channel 1 HD', got '%s'", e1.Title)
	}
	if e1.URL != "http://example.com/stream1.m3u8" {
		t.Errorf("expected URL 'http://example.com/stream1.m3u8', got '%s'", e1.URL)
	}
	if e1.Duration != -1 {
		t.Errorf("expected duration -1, got %d", e1.Duration)
	}

	e2 := entries[1]
	if e2.TvgID != "channel2" {
		t.Errorf("expected tvg-id 'channel2', got '%s'", e2.TvgID)
	}
	if e2.GroupTitle != "Sports" {
		t.Errorf("expected group-title 'Sports', got '%s'", e2.GroupTitle)
	}
}

func TestParser_RequireHeader(t *testing.T) {
	content := `#EXTINF:-1,No Header
http://example.com/stream.m3u8
`

	p := &Parser{
		RequireHeader: true,
		OnEntry:       func(*Entry) error { return nil },
	}

	err := p.Parse(strings.NewReader(content))
	if err == nil {
		t.Fatal("expected error for missing header")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Line != 1 {
		t.Errorf("expected line 1, got %d", parseErr.Line)
	}
	if parseErr.Excerpt == "" {
		t.Error("expected non-empty excerpt")
	}
}

func TestParser_RequireHeaderSkipsBlankLines(t *testing.T) {
	content := "\n\n#EXTM3U\n#EXTINF:-1,Ch\nhttp://example.com/s.ts\n"

	entries := collect(t, &Parser{RequireHeader: true}, content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestParser_DanglingExtinfDropped(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1,Complete
http://example.com/ok.m3u8
#EXTINF:-1,Dangling
`

	var parseErrors int
	p := &Parser{
		OnError: func(int, error) { parseErrors++ },
	}
	entries := collect(t, p, content)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "Complete" {
		t.Errorf("expected 'Complete', got '%s'", entries[0].Title)
	}
	if parseErrors != 1 {
		t.Errorf("expected 1 recoverable error, got %d", parseErrors)
	}
}

func TestParser_UnquotedAttributeFallback(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 tvg-id=bare group-title="Quoted Group" type=movie,Mixed Attrs
http://example.com/film.mp4
`

	entries := collect(t, &Parser{}, content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.TvgID != "bare" {
		t.Errorf("expected unquoted tvg-id 'bare', got '%s'", e.TvgID)
	}
	if e.GroupTitle != "Quoted Group" {
		t.Errorf("expected group-title 'Quoted Group', got '%s'", e.GroupTitle)
	}
	if e.Extra["type"] != "movie" {
		t.Errorf("expected extra type 'movie', got '%s'", e.Extra["type"])
	}
}

func TestParser_QuotedAttributeWins(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 tvg-id="quoted",Ch
http://example.com/s.ts
`

	entries := collect(t, &Parser{}, content)
	if entries[0].TvgID != "quoted" {
		t.Errorf("expected 'quoted', got '%s'", entries[0].TvgID)
	}
}

func TestParser_CommaInsideQuotedValue(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 group-title="News, Weather",Channel A
http://example.com/a.ts
`

	entries := collect(t, &Parser{}, content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].GroupTitle != "News, Weather" {
		t.Errorf("expected 'News, Weather', got '%s'", entries[0].GroupTitle)
	}
	if entries[0].Title != "Channel A" {
		t.Errorf("expected 'Channel A', got '%s'", entries[0].Title)
	}
}

func TestParser_ChannelNumber(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 tvg-id="ch1" tvg-chno="42",Channel with Number
http://example.com/stream.m3u8
`

	entries := collect(t, &Parser{}, content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ChannelNumber != 42 {
		t.Errorf("expected channel number 42, got %d", entries[0].ChannelNumber)
	}
}

func TestParser_SkipsUnrelatedComments(t *testing.T) {
	content := `#EXTM3U
#EXTVLCOPT:http-user-agent=Foo
#EXTINF:-1,Ch

http://example.com/s.ts
#PLAYLIST:ignored
`

	entries := collect(t, &Parser{}, content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].URL != "http://example.com/s.ts" {
		t.Errorf("unexpected URL '%s'", entries[0].URL)
	}
}

func TestParser_URLWithoutExtinf(t *testing.T) {
	content := `#EXTM3U
http://example.com/orphan.m3u8
`

	entries := collect(t, &Parser{}, content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "orphan" {
		t.Errorf("expected derived title 'orphan', got '%s'", entries[0].Title)
	}
}

func TestDecoder_ChunkBoundaries(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1 tvg-id=\"c1\" group-title=\"News\",Channel One\nhttp://example.com/one.m3u8\n#EXTINF:-1,Channel Two\nhttp://example.com/two.m3u8\n"

	// Feed in every possible split position of size 1..7 to exercise
	// partial-line buffering.
	for chunkSize := 1; chunkSize <= 7; chunkSize++ {
		var entries []*Entry
		p := &Parser{
			RequireHeader: true,
			OnEntry: func(entry *Entry) error {
				entries = append(entries, entry)
				return nil
			},
		}
		d := p.NewDecoder()

		data := []byte(content)
		for off := 0; off < len(data); off += chunkSize {
			end := off + chunkSize
			if end > len(data) {
				end = len(data)
			}
			if err := d.Write(data[off:end]); err != nil {
				t.Fatalf("chunk size %d: write error: %v", chunkSize, err)
			}
		}
		if err := d.Close(); err != nil {
			t.Fatalf("chunk size %d: close error: %v", chunkSize, err)
		}

		if len(entries) != 2 {
			t.Fatalf("chunk size %d: expected 2 entries, got %d", chunkSize, len(entries))
		}
		if entries[0].TvgID != "c1" || entries[0].URL != "http://example.com/one.m3u8" {
			t.Errorf("chunk size %d: first entry mismatch: %+v", chunkSize, entries[0])
		}
		if entries[1].Title != "Channel Two" {
			t.Errorf("chunk size %d: second entry mismatch: %+v", chunkSize, entries[1])
		}
	}
}

func TestDecoder_TrailingLineWithoutNewline(t *testing.T) {
	var entries []*Entry
	p := &Parser{
		OnEntry: func(entry *Entry) error {
			entries = append(entries, entry)
			return nil
		},
	}
	d := p.NewDecoder()

	if err := d.Write([]byte("#EXTM3U\n#EXTINF:-1,Ch\nhttp://example.com/s.ts")); err != nil {
		t.Fatalf("write error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].URL != "http://example.com/s.ts" {
		t.Errorf("unexpected URL '%s'", entries[0].URL)
	}
}

func TestParseCompressed_Gzip(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1,Gzip Channel\nhttp://example.com/gz.ts\n"

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write gzip: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("failed to close gzip: %v", err)
	}

	var entries []*Entry
	p := &Parser{OnEntry: func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}}
	if err := p.ParseCompressed(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Gzip Channel" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseCompressed_Bzip2(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1,Bzip2 Channel\nhttp://example.com/bz.ts\n"

	// Compress with bzip2
	var buf bytes.Buffer
	bw, err := bzip2.NewWriter(&buf, nil)
	if err != nil {
		t.Fatalf("failed to create bzip2 writer: %v", err)
	}
	if _, err := bw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write bzip2: %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("failed to close bzip2: %v", err)
	}

	var entries []*Entry
	p := &Parser{OnEntry: func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}}
	if err := p.ParseCompressed(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Bzip2 Channel" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseCompressed_XZ(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1,XZ Channel\nhttp://example.com/xz.ts\n"

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("failed to create xz writer: %v", err)
	}
	if _, err := xw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write xz: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("failed to close xz: %v", err)
	}

	var entries []*Entry
	p := &Parser{OnEntry: func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}}
	if err := p.ParseCompressed(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "XZ Channel" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseCompressed_Plain(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1,Plain\nhttp://example.com/p.ts\n"

	var entries []*Entry
	p := &Parser{OnEntry: func(e *Entry) error {
		entries = append(entries, e)
		return nil
	}}
	if err := p.ParseCompressed(strings.NewReader(content)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestParser_CallbackErrorStopsParse(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1,One
http://example.com/1.ts
#EXTINF:-1,Two
http://example.com/2.ts
`

	wantErr := errors.New("stop")
	count := 0
	p := &Parser{OnEntry: func(*Entry) error {
		count++
		return wantErr
	}}

	err := p.Parse(strings.NewReader(content))
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped callback error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected parse to stop after first entry, got %d", count)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	in := []*Entry{
		{
			Duration:   -1,
			TvgID:      "bbc1",
			TvgLogo:    "http://x/logo.png",
			GroupTitle: "News",
			Title:      "BBC One",
			URL:        "http://stream.example/bbc1.m3u8",
		},
		{
			Duration:   -1,
			GroupTitle: "Movies",
			Title:      "Big Buck Bunny",
			URL:        "http://cdn.example/bbb.mp4",
			Extra:      map[string]string{"type": "movie"},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteAll(in); err != nil {
		t.Fatalf("write error: %v", err)
	}

	var out []*Entry
	p := &Parser{
		RequireHeader: true,
		OnEntry: func(e *Entry) error {
			out = append(out, e)
			return nil
		},
	}
	if err := p.Parse(&buf); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("expected %d entries, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Title != in[i].Title || out[i].URL != in[i].URL ||
			out[i].GroupTitle != in[i].GroupTitle || out[i].TvgID != in[i].TvgID {
			t.Errorf("entry %d mismatch: want %+v, got %+v", i, in[i], out[i])
		}
	}
	if out[1].Extra["type"] != "movie" {
		t.Errorf("expected extra attribute to round-trip, got %+v", out[1].Extra)
	}
}
