// Package handlers provides HTTP API handlers for catarr.
package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/catarr/internal/catalog"
	"github.com/jmylchreest/catarr/pkg/duration"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version   string
	startTime time.Time
	holder    *catalog.Holder
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string, holder *catalog.Holder) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		holder:    holder,
	}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status        string    `json:"status" example:"ok"`
	Version       string    `json:"version" example:"1.0.0"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CatalogLoaded bool      `json:"catalog_loaded"`
	TotalChannels int       `json:"total_channels"`
	TotalGroups   int       `json:"total_groups"`
	CatalogAge    string    `json:"catalog_age,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HealthInput is the input for the health check endpoint.
type HealthInput struct{}

// HealthOutput is the output for the health check endpoint.
type HealthOutput struct {
	Body HealthResponse
}

// LivenessInput is the input for the liveness endpoint.
type LivenessInput struct{}

// LivenessOutput is the output for the liveness endpoint.
type LivenessOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

// Register registers the health routes with the API.
func (h *HealthHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealth",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns service health including catalog summary",
		Tags:        []string{"System"},
	}, h.GetHealth)

	huma.Register(api, huma.Operation{
		OperationID: "getLiveness",
		Method:      "GET",
		Path:        "/livez",
		Summary:     "Liveness probe",
		Tags:        []string{"System"},
	}, h.GetLiveness)
}

// GetHealth returns the health status of the service.
func (h *HealthHandler) GetHealth(ctx context.Context, input *HealthInput) (*HealthOutput, error) {
	now := time.Now()

	resp := HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(now.Sub(h.startTime).Seconds()),
		Timestamp:     now,
	}

	if store := h.holder.Current(); store != nil {
		stats := store.Stats()
		resp.CatalogLoaded = true
		resp.TotalChannels = stats.TotalChannels
		resp.TotalGroups = stats.TotalGroups
		resp.CatalogAge = duration.Format(now.Sub(store.CreatedAt()).Round(time.Second))
	}

	return &HealthOutput{Body: resp}, nil
}

// GetLiveness answers as long as the process is serving requests.
func (h *HealthHandler) GetLiveness(ctx context.Context, input *LivenessInput) (*LivenessOutput, error) {
	out := &LivenessOutput{}
	out.Body.Status = "ok"
	return out, nil
}
