package webui

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"discharge_backend/metrics"
)

// StatusAPI serves the read-only status endpoints from the metrics store.
//
// Endpoints:
//   - GET /health       system health and uptime
//   - GET /api/stages   recent stage records (limit param)
//   - GET /api/metrics  aggregates per stage
type StatusAPI struct {
	store        *metrics.Store
	defaultLimit int
	maxLimit     int
}

// StatusAPIConfig configures the StatusAPI.
type StatusAPIConfig struct {
	// DefaultLimit is the number of stages returned without a limit param
	DefaultLimit int

	// MaxLimit caps the limit param
	MaxLimit int
}

// DefaultStatusAPIConfig returns a default configuration.
func DefaultStatusAPIConfig() StatusAPIConfig {
	return StatusAPIConfig{
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// NewStatusAPI creates a StatusAPI. store may be nil, in which case every
// endpoint answers 503.
func NewStatusAPI(store *metrics.Store, config StatusAPIConfig) *StatusAPI {
	if config.DefaultLimit < 1 {
		config.DefaultLimit = 20
	}
	if config.MaxLimit < 1 {
		config.MaxLimit = 100
	}
	return &StatusAPI{
		store:        store,
		defaultLimit: config.DefaultLimit,
		maxLimit:     config.MaxLimit,
	}
}

// RegisterRoutes registers the /api routes on mux. /health is registered by
// the server.
func (api *StatusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stages", api.HandleStages)
	mux.HandleFunc("GET /api/metrics", api.HandleMetrics)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	Uptime        string    `json:"uptime"`
	UptimeSecs    float64   `json:"uptime_secs"`
	LastCheck     time.Time `json:"last_check"`
	ActiveRecords int       `json:"active_records"`
}

// HandleHealth handles GET /health.
func (api *StatusAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "metrics store not configured"})
		return
	}

	status := api.store.SystemStatus()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        status.Health,
		Version:       status.Version,
		Uptime:        FormatDuration(status.Uptime),
		UptimeSecs:    status.Uptime.Seconds(),
		LastCheck:     status.LastCheck,
		ActiveRecords: status.ActiveRecords,
	})
}

// StagesResponse is the body of GET /api/stages.
type StagesResponse struct {
	Stages []metrics.StageRecord `json:"stages"`
	Count  int                   `json:"count"`
	Limit  int                   `json:"limit"`
}

// HandleStages handles GET /api/stages.
// Query parameters:
// - limit: number of stages to return (default: 20, max: 100)
func (api *StatusAPI) HandleStages(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "metrics store not configured"})
		return
	}

	limit := api.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > api.maxLimit {
		limit = api.maxLimit
	}

	stages := api.store.Recent(limit)
	writeJSON(w, http.StatusOK, StagesResponse{
		Stages: stages,
		Count:  len(stages),
		Limit:  limit,
	})
}

// MetricsResponse is the body of GET /api/metrics.
type MetricsResponse struct {
	metrics.PipelineMetrics
	SuccessRate float64 `json:"success_rate"`
}

// HandleMetrics handles GET /api/metrics.
func (api *StatusAPI) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if api.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "metrics store not configured"})
		return
	}

	m := api.store.Metrics()
	var successRate float64
	if m.TotalProcessed > 0 {
		successRate = float64(m.TotalSuccess) / float64(m.TotalProcessed) * 100
	}
	writeJSON(w, http.StatusOK, MetricsResponse{PipelineMetrics: m, SuccessRate: successRate})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already written; an encode failure can only be dropped.
	_ = json.NewEncoder(w).Encode(data)
}
