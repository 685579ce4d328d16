package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/catarr/internal/probe"
)

// ProbeHandler exposes on-demand stream inspection.
type ProbeHandler struct {
	prober *probe.Prober
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(prober *probe.Prober) *ProbeHandler {
	return &ProbeHandler{prober: prober}
}

// ProbeInput names the stream URL to inspect.
type ProbeInput struct {
	URL string `query:"url" doc:"Stream URL to probe"`
}

// ProbeOutput carries the probe verdict.
type ProbeOutput struct {
	Body probe.Result
}

// Register registers the probe route with the API.
func (h *ProbeHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "probeStream",
		Method:      "GET",
		Path:        "/api/v1/probe",
		Summary:     "Probe a stream URL",
		Description: "Fetches and inspects the stream to report whether it is an HLS master playlist, a media playlist, raw MPEG-TS, or a progressive file.",
		Tags:        []string{"Streams"},
	}, h.ProbeStream)
}

// ProbeStream inspects a single stream URL.
func (h *ProbeHandler) ProbeStream(ctx context.Context, input *ProbeInput) (*ProbeOutput, error) {
	if input.URL == "" {
		return nil, huma.Error400BadRequest("url query parameter is required")
	}

	return &ProbeOutput{Body: h.prober.Probe(ctx, input.URL)}, nil
}
