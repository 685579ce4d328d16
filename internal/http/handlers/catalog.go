package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/internal/ingest"
	"github.com/jmylchreest/catarr/internal/models"
	"github.com/jmylchreest/catarr/pkg/hls"
)

// CatalogHandler serves the ingested channel catalog.
type CatalogHandler struct {
	holder    *catalog.Holder
	refresher Reloader
	loader    *ingest.Loader
	logger    *slog.Logger
}

// Reloader triggers a catalog reload; satisfied by refresh.Refresher.
type Reloader interface {
	Refresh(ctx context.Context, source string) (*catalog.Store, error)
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(holder *catalog.Holder, refresher Reloader, loader *ingest.Loader) *CatalogHandler {
	return &CatalogHandler{
		holder:    holder,
		refresher: refresher,
		loader:    loader,
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger for the handler.
func (h *CatalogHandler) WithLogger(logger *slog.Logger) *CatalogHandler {
	h.logger = logger
	return h
}

// GroupSummary is one catalog group with its channel count.
type GroupSummary struct {
	Name         string `json:"name"`
	ChannelCount int    `json:"channel_count"`
}

// ListGroupsInput is the input for listing groups.
type ListGroupsInput struct{}

// ListGroupsOutput is the output for listing groups.
type ListGroupsOutput struct {
	Body struct {
		Groups       []GroupSummary `json:"groups"`
		DefaultGroup string         `json:"default_group"`
	}
}

// GroupChannelsInput selects one group by name.
type GroupChannelsInput struct {
	Name string `path:"name" doc:"Group name"`
}

// GroupChannelsOutput lists one group's channels.
type GroupChannelsOutput struct {
	Body struct {
		Name     string            `json:"name"`
		Channels []*models.Channel `json:"channels"`
	}
}

// ListChannelsInput filters the flat channel list.
type ListChannelsInput struct {
	Search string `query:"search" doc:"Case-insensitive name substring" required:"false"`
	Type   string `query:"type" doc:"Filter by channel type (live, vod, series, unknown)" required:"false"`
}

// ListChannelsOutput is the output for listing channels.
type ListChannelsOutput struct {
	Body struct {
		Channels []*models.Channel `json:"channels"`
		Total    int               `json:"total"`
	}
}

// VariantsInput names the stream whose master playlist to parse.
type VariantsInput struct {
	URL string `query:"url" doc:"Stream URL to parse for quality variants"`
}

// VariantsOutput is the ranked variant list.
type VariantsOutput struct {
	Body struct {
		Variants []*hls.QualityVariant `json:"variants"`
	}
}

// ReloadInput carries the playlist source to reload from.
type ReloadInput struct {
	Body struct {
		Source string `json:"source" doc:"Playlist URL, file path, or raw M3U content"`
	}
}

// ReloadOutput summarizes the reloaded catalog.
type ReloadOutput struct {
	Body struct {
		TotalChannels int `json:"total_channels"`
		TotalGroups   int `json:"total_groups"`
	}
}

// Register registers the catalog routes with the API.
func (h *CatalogHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listGroups",
		Method:      "GET",
		Path:        "/api/v1/groups",
		Summary:     "List catalog groups",
		Tags:        []string{"Catalog"},
	}, h.ListGroups)

	huma.Register(api, huma.Operation{
		OperationID: "getGroupChannels",
		Method:      "GET",
		Path:        "/api/v1/groups/{name}/channels",
		Summary:     "List one group's channels",
		Tags:        []string{"Catalog"},
	}, h.GetGroupChannels)

	huma.Register(api, huma.Operation{
		OperationID: "listChannels",
		Method:      "GET",
		Path:        "/api/v1/channels",
		Summary:     "List or search channels",
		Tags:        []string{"Catalog"},
	}, h.ListChannels)

	huma.Register(api, huma.Operation{
		OperationID: "getVariants",
		Method:      "GET",
		Path:        "/api/v1/variants",
		Summary:     "Parse a stream's quality variants",
		Description: "Fetches the stream's HLS master playlist and returns its variants, highest bandwidth first. A non-master playlist yields an empty list.",
		Tags:        []string{"Streams"},
	}, h.GetVariants)

	huma.Register(api, huma.Operation{
		OperationID: "reloadCatalog",
		Method:      "POST",
		Path:        "/api/v1/reload",
		Summary:     "Reload the catalog from a source",
		Tags:        []string{"Catalog"},
	}, h.Reload)
}

// currentStore returns the published catalog or a 503.
func (h *CatalogHandler) currentStore() (*catalog.Store, error) {
	store := h.holder.Current()
	if store == nil {
		return nil, huma.Error503ServiceUnavailable("catalog not loaded yet")
	}
	return store, nil
}

// ListGroups lists all groups with channel counts.
func (h *CatalogHandler) ListGroups(ctx context.Context, input *ListGroupsInput) (*ListGroupsOutput, error) {
	store, err := h.currentStore()
	if err != nil {
		return nil, err
	}

	out := &ListGroupsOutput{}
	out.Body.DefaultGroup = store.DefaultGroup()
	out.Body.Groups = make([]GroupSummary, 0, len(store.Groups()))
	for _, g := range store.Groups() {
		out.Body.Groups = append(out.Body.Groups, GroupSummary{
			Name:         g.Name,
			ChannelCount: len(g.Channels),
		})
	}
	return out, nil
}

// GetGroupChannels lists the channels of one group.
func (h *CatalogHandler) GetGroupChannels(ctx context.Context, input *GroupChannelsInput) (*GroupChannelsOutput, error) {
	store, err := h.currentStore()
	if err != nil {
		return nil, err
	}

	group, ok := store.Group(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("group not found: " + input.Name)
	}

	out := &GroupChannelsOutput{}
	out.Body.Name = group.Name
	out.Body.Channels = group.Channels
	return out, nil
}

// ListChannels lists channels, optionally filtered by name substring and type.
func (h *CatalogHandler) ListChannels(ctx context.Context, input *ListChannelsInput) (*ListChannelsOutput, error) {
	store, err := h.currentStore()
	if err != nil {
		return nil, err
	}

	channels := store.Channels()
	if input.Search != "" {
		channels = store.Search(input.Search)
	}

	if input.Type != "" {
		want := models.ChannelType(input.Type)
		if !want.Valid() {
			return nil, huma.Error400BadRequest("invalid channel type: " + input.Type)
		}
		filtered := make([]*models.Channel, 0, len(channels))
		for _, ch := range channels {
			if ch.Type == want {
				filtered = append(filtered, ch)
			}
		}
		channels = filtered
	}

	out := &ListChannelsOutput{}
	out.Body.Channels = channels
	out.Body.Total = len(channels)
	return out, nil
}

// GetVariants parses a stream's HLS master playlist into quality variants.
func (h *CatalogHandler) GetVariants(ctx context.Context, input *VariantsInput) (*VariantsOutput, error) {
	if input.URL == "" {
		return nil, huma.Error400BadRequest("url query parameter is required")
	}

	variants, err := h.loader.ParseMasterPlaylist(ctx, input.URL)
	if err != nil {
		var srcErr *ingest.SourceError
		if errors.As(err, &srcErr) {
			return nil, huma.Error422UnprocessableEntity(srcErr.Error())
		}
		return nil, huma.Error502BadGateway("fetching master playlist: " + err.Error())
	}

	out := &VariantsOutput{}
	out.Body.Variants = variants
	if out.Body.Variants == nil {
		out.Body.Variants = []*hls.QualityVariant{}
	}
	return out, nil
}

// Reload loads a new catalog from the supplied source and publishes it.
func (h *CatalogHandler) Reload(ctx context.Context, input *ReloadInput) (*ReloadOutput, error) {
	if input.Body.Source == "" {
		return nil, huma.Error400BadRequest("source is required")
	}

	store, err := h.refresher.Refresh(ctx, input.Body.Source)
	if err != nil {
		var srcErr *ingest.SourceError
		var parseErr *ingest.ParseError
		if errors.As(err, &srcErr) || errors.As(err, &parseErr) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error502BadGateway(err.Error())
	}

	stats := store.Stats()
	out := &ReloadOutput{}
	out.Body.TotalChannels = stats.TotalChannels
	out.Body.TotalGroups = stats.TotalGroups
	return out, nil
}
