package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/catarr/internal/catalog"
)

func TestExportPlaylist(t *testing.T) {
	holder := catalog.NewHolder(storeWithChannels(t))
	h := NewExportHandler(holder, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlist.m3u", nil)
	rec := httptest.NewRecorder()
	h.ExportPlaylist(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/x-mpegurl", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "#EXTM3U\n"))
	assert.Contains(t, body, `group-title="News"`)
	assert.Contains(t, body, ",BBC One\nhttp://x/1.m3u8\n")
	assert.Contains(t, body, ",Film\nhttp://x/f.mp4\n")
}

func TestExportPlaylistNoCatalog(t *testing.T) {
	h := NewExportHandler(catalog.NewHolder(nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/playlist.m3u", nil)
	rec := httptest.NewRecorder()
	h.ExportPlaylist(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
