package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-charts/pkg/config"
)

// HealthResponse is the liveness body. It carries no dependency checks:
// the recommendation service holds no connections.
type HealthResponse struct {
	Status string `json:"status"`
}

// SetQuotas are the recommendation set floors and caps in effect.
type SetQuotas struct {
	MinScorecards     int  `json:"min_scorecards"`
	MaxScorecards     int  `json:"max_scorecards"`
	MinVisualizations int  `json:"min_visualizations"`
	RequireTable      bool `json:"require_table"`
}

// PingResponse describes the running recommendation service.
type PingResponse struct {
	Status      string    `json:"status"`
	Service     string    `json:"service"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	ListenAddr  string    `json:"listen_addr"`
	GoVersion   string    `json:"go_version"`
	Hostname    string    `json:"hostname,omitempty"`
	Quotas      SetQuotas `json:"quotas"`
}

// HealthHandler serves liveness and build information for the
// chart recommendation API.
type HealthHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, logger: logger.Named("health")}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health answers load balancer probes with a fixed "ok".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping reports the build version and the set quotas recommendations are
// balanced against, so operators can confirm which config a process loaded.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		h.logger.Warn("Failed to read hostname", zap.Error(err))
	}

	p := h.cfg.Pipeline
	response := PingResponse{
		Status:      "ok",
		Service:     "ekaya-charts",
		Version:     h.cfg.Version,
		Environment: h.cfg.Env,
		ListenAddr:  h.cfg.ListenAddr(),
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Quotas: SetQuotas{
			MinScorecards:     p.MinScorecards,
			MaxScorecards:     p.MaxScorecards,
			MinVisualizations: p.MinVisualizations,
			RequireTable:      p.RequireTable,
		},
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
