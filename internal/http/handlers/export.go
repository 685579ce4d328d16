package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/pkg/m3u"
)

// ExportHandler serves the catalog back out as an M3U playlist. It is a
// plain chi route rather than an OpenAPI operation: the payload is M3U
// text, not JSON.
type ExportHandler struct {
	holder *catalog.Holder
	logger *slog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(holder *catalog.Holder, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{holder: holder, logger: logger}
}

// Register mounts the export route on the router.
func (h *ExportHandler) Register(router *chi.Mux) {
	router.Get("/api/v1/playlist.m3u", h.ExportPlaylist)
}

// ExportPlaylist streams the current catalog as an extended M3U playlist,
// grouped the way it was ingested.
func (h *ExportHandler) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	store := h.holder.Current()
	if store == nil {
		http.Error(w, "catalog not loaded yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", `attachment; filename="playlist.m3u"`)

	writer := m3u.NewWriter(w)
	for _, group := range store.Groups() {
		for _, ch := range group.Channels {
			entry := &m3u.Entry{
				Duration:   -1,
				TvgID:      ch.TvgID,
				TvgLogo:    ch.TvgLogo,
				GroupTitle: group.Name,
				Title:      ch.Name,
				URL:        ch.StreamURL,
			}
			if err := writer.WriteEntry(entry); err != nil {
				// Client likely went away mid-download.
				h.logger.Debug("aborting playlist export", "error", err)
				return
			}
		}
	}
}
