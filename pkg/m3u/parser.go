// Package m3u provides streaming M3U playlist parsing and writing.
// It supports standard M3U and extended M3U (M3U8) formats with EXTINF
// metadata, whole-reader parsing, and incremental chunk-fed decoding.
package m3u

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
)

// Header is the extended M3U header marker.
const Header = "#EXTM3U"

// maxLineSize bounds a single playlist line. Some M3U files carry very long
// URLs, but anything beyond this is treated as corrupt input.
const maxLineSize = 1024 * 1024 // 1MB

// maxExcerptLen bounds the offending-line excerpt carried by ParseError.
const maxExcerptLen = 80

// ParseError describes a structurally invalid playlist.
type ParseError struct {
	// Line is the 1-based line number of the offending line.
	Line int
	// Excerpt is a truncated copy of the offending line.
	Excerpt string
	// Msg describes what was expected.
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("m3u parse error at line %d: %s (%q)", e.Line, e.Msg, e.Excerpt)
}

// Entry represents a single channel entry in an M3U playlist.
type Entry struct {
	// Duration is the track duration in seconds (-1 for live streams).
	Duration int

	// TvgID is the EPG channel identifier.
	TvgID string

	// TvgName is the display name from tvg-name attribute.
	TvgName string

	// TvgLogo is the URL to the channel logo.
	TvgLogo string

	// GroupTitle is the category/group from group-title attribute.
	GroupTitle string

	// ChannelNumber is the channel number from tvg-chno attribute.
	ChannelNumber int

	// Title is the display title from EXTINF line.
	Title string

	// URL is the stream URL.
	URL string

	// Extra contains any additional attributes not explicitly parsed.
	Extra map[string]string
}

// Parser provides streaming M3U parsing with callback-based processing.
// The same parser drives both whole-reader parsing (Parse) and incremental
// chunk-fed decoding (NewDecoder), with identical semantics.
type Parser struct {
	// OnEntry is called for each parsed entry.
	OnEntry func(entry *Entry) error

	// OnError is called for recoverable parsing errors.
	// If nil, errors are silently ignored.
	OnError func(lineNum int, err error)

	// RequireHeader enforces that the first non-blank line is the #EXTM3U
	// marker. When false, headerless playlists are accepted.
	RequireHeader bool
}

// Regular expressions for parsing EXTINF attributes.
var (
	// Matches duration and attributes portion: #EXTINF:-1 tvg-id="..." tvg-name="...",Title
	extinfRegex = regexp.MustCompile(`^#EXTINF:\s*(-?\d+)\s*(.*)$`)

	// Matches quoted key="value" attributes.
	quotedAttrRegex = regexp.MustCompile(`([a-zA-Z0-9_-]+)="([^"]*)"`)

	// Matches unquoted key=value attributes, used as a fallback for keys
	// the quoted pass did not set.
	bareAttrRegex = regexp.MustCompile(`([a-zA-Z0-9_-]+)=([^\s",]+)`)
)

// Parse parses an M3U playlist from a reader, calling OnEntry for each channel.
func (p *Parser) Parse(r io.Reader) error {
	if p.OnEntry == nil {
		return fmt.Errorf("OnEntry callback is required")
	}

	d := p.NewDecoder()
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if werr := d.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading M3U: %w", err)
		}
	}

	return d.Close()
}

// ParseCompressed parses a potentially compressed M3U playlist.
// It auto-detects compression based on magic bytes.
func (p *Parser) ParseCompressed(r io.Reader) error {
	reader, err := NewReader(r)
	if err != nil {
		return err
	}
	return p.Parse(reader)
}

// NewReader wraps r with transparent decompression, sniffing gzip, bzip2,
// and xz magic bytes. Uncompressed input passes through untouched.
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peeking header: %w", err)
	}

	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		// Gzip
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gzr, nil

	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		// Bzip2
		return bzip2.NewReader(br), nil

	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' && header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		// XZ
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return xzr, nil
	}

	return br, nil
}

// decoderState tracks where the entry state machine is between lines.
type decoderState int

const (
	stateAwaitHeader decoderState = iota
	stateAwaitEntry
	stateAwaitURL
)

// Decoder incrementally parses an M3U playlist from arbitrary-sized byte
// chunks, buffering a partial trailing line across chunk boundaries.
// Entries are emitted through the parent Parser's OnEntry as soon as each
// one is complete.
type Decoder struct {
	p       *Parser
	state   decoderState
	pending *Entry
	partial []byte
	lineNum int
	sawM3U  bool
	closed  bool
}

// NewDecoder creates a Decoder that feeds this parser's callbacks.
func (p *Parser) NewDecoder() *Decoder {
	state := stateAwaitEntry
	if p.RequireHeader {
		state = stateAwaitHeader
	}
	return &Decoder{p: p, state: state}
}

// Write feeds the next chunk of playlist bytes into the decoder.
func (d *Decoder) Write(chunk []byte) error {
	if d.closed {
		return fmt.Errorf("decoder is closed")
	}
	if d.p.OnEntry == nil {
		return fmt.Errorf("OnEntry callback is required")
	}

	data := chunk
	if len(d.partial) > 0 {
		data = append(d.partial, chunk...)
		d.partial = nil
	}

	for {
		idx := indexNewline(data)
		if idx < 0 {
			break
		}
		line := data[:idx]
		data = data[idx+1:]
		if err := d.processLine(string(line)); err != nil {
			return err
		}
	}

	if len(data) > maxLineSize {
		d.lineNum++
		return &ParseError{
			Line:    d.lineNum,
			Excerpt: excerpt(string(data)),
			Msg:     "line exceeds maximum length",
		}
	}
	if len(data) > 0 {
		d.partial = append(d.partial[:0], data...)
	}

	return nil
}

// Close flushes any buffered trailing line and finishes the parse.
// A pending EXTINF without a following URL is discarded without emitting
// a channel.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	if len(d.partial) > 0 {
		line := string(d.partial)
		d.partial = nil
		if err := d.processLine(line); err != nil {
			return err
		}
	}

	if d.pending != nil {
		// Dangling metadata at end of stream: drop, never emit a partial channel.
		d.p.handleError(d.lineNum, fmt.Errorf("EXTINF without URL at end of input"))
		d.pending = nil
	}

	return nil
}

// processLine advances the state machine by one line.
func (d *Decoder) processLine(raw string) error {
	d.lineNum++
	line := strings.TrimSpace(raw)
	if d.lineNum == 1 {
		// Tolerate a UTF-8 byte-order mark ahead of the header.
		line = strings.TrimPrefix(line, "\ufeff")
	}

	if line == "" {
		return nil
	}

	if d.state == stateAwaitHeader {
		if !strings.HasPrefix(line, Header) {
			return &ParseError{
				Line:    d.lineNum,
				Excerpt: excerpt(line),
				Msg:     "first line must be " + Header,
			}
		}
		d.sawM3U = true
		d.state = stateAwaitEntry
		return nil
	}

	if strings.HasPrefix(line, Header) {
		d.sawM3U = true
		return nil
	}

	if strings.HasPrefix(line, "#EXTINF:") {
		entry, err := parseExtinf(line)
		if err != nil {
			d.p.handleError(d.lineNum, err)
			return nil
		}
		if d.pending != nil {
			// Two EXTINF lines in a row: the first one has no URL and is dropped.
			d.p.handleError(d.lineNum, fmt.Errorf("EXTINF without URL"))
		}
		d.pending = entry
		d.state = stateAwaitURL
		return nil
	}

	// Skip other comment lines.
	if strings.HasPrefix(line, "#") {
		return nil
	}

	// This should be a URL line.
	if d.pending != nil {
		d.pending.URL = line
		entry := d.pending
		d.pending = nil
		d.state = stateAwaitEntry
		if err := d.p.OnEntry(entry); err != nil {
			return fmt.Errorf("callback error at line %d: %w", d.lineNum, err)
		}
		return nil
	}

	if d.sawM3U || !d.p.RequireHeader {
		// URL without EXTINF - create minimal entry.
		entry := &Entry{
			Duration: -1,
			URL:      line,
			Title:    TitleFromURL(line),
		}
		if err := d.p.OnEntry(entry); err != nil {
			return fmt.Errorf("callback error at line %d: %w", d.lineNum, err)
		}
	}

	return nil
}

// parseExtinf parses an EXTINF line and extracts metadata.
func parseExtinf(line string) (*Entry, error) {
	matches := extinfRegex.FindStringSubmatch(line)
	if matches == nil {
		return nil, fmt.Errorf("invalid EXTINF format")
	}

	duration, _ := strconv.Atoi(matches[1])
	remainder := matches[2]

	entry := &Entry{
		Duration: duration,
		Extra:    make(map[string]string),
	}

	// Find the title (everything after the last comma not in quotes).
	titleIdx := findTitleStart(remainder)
	if titleIdx >= 0 {
		entry.Title = strings.TrimSpace(remainder[titleIdx+1:])
		remainder = remainder[:titleIdx]
	}

	// Quoted attributes first, then unquoted key=value for keys still unset.
	seen := make(map[string]bool)
	for _, match := range quotedAttrRegex.FindAllStringSubmatch(remainder, -1) {
		key := strings.ToLower(match[1])
		seen[key] = true
		entry.setAttr(key, match[2])
	}
	for _, match := range bareAttrRegex.FindAllStringSubmatch(remainder, -1) {
		key := strings.ToLower(match[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		entry.setAttr(key, match[2])
	}

	return entry, nil
}

// setAttr assigns a parsed attribute to its entry field.
func (e *Entry) setAttr(key, value string) {
	switch key {
	case "tvg-id":
		e.TvgID = value
	case "tvg-name":
		e.TvgName = value
	case "tvg-logo":
		e.TvgLogo = value
	case "group-title":
		e.GroupTitle = value
	case "tvg-chno":
		e.ChannelNumber, _ = strconv.Atoi(value)
	default:
		e.Extra[key] = value
	}
}

// findTitleStart finds the index of the comma that separates attributes from title.
// It handles commas inside quoted values.
func findTitleStart(s string) int {
	inQuotes := false
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '"' {
			inQuotes = !inQuotes
		}
		if s[i] == ',' && !inQuotes {
			return i
		}
	}
	return -1
}

// TitleFromURL derives a display name from a stream URL, for entries that
// carry no usable title of their own: the last path segment minus query
// string and extension, or "Unknown".
func TitleFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) > 0 {
		filename := parts[len(parts)-1]
		if idx := strings.Index(filename, "?"); idx > 0 {
			filename = filename[:idx]
		}
		if idx := strings.LastIndex(filename, "."); idx > 0 {
			filename = filename[:idx]
		}
		if filename != "" {
			return filename
		}
	}
	return "Unknown"
}

// indexNewline returns the index of the first '\n' in data, or -1.
func indexNewline(data []byte) int {
	for i, b := range data {
		if b == '\n' {
			return i
		}
	}
	return -1
}

// excerpt truncates a line for inclusion in a ParseError.
func excerpt(line string) string {
	if len(line) > maxExcerptLen {
		return line[:maxExcerptLen] + "..."
	}
	return line
}

// handleError calls the OnError callback if set.
func (p *Parser) handleError(lineNum int, err error) {
	if p.OnError != nil {
		p.OnError(lineNum, err)
	}
}
