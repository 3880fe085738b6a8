package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/config"
	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
)

// ServiceName identifies this service in ping responses.
const ServiceName = "ekaya-ingest"

const readinessTimeout = 3 * time.Second

// PingResponse contains service status and version information.
type PingResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Service       string `json:"service"`
	GoVersion     string `json:"go_version"`
	Hostname      string `json:"hostname"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadinessCheck probes one backing dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ReadyResponse reports each dependency as "ok" or a sanitized error.
type ReadyResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler serves liveness, readiness and version info.
type HealthHandler struct {
	cfg     *config.Config
	checks  []ReadinessCheck
	started time.Time
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. Readiness runs checks in order.
func NewHealthHandler(cfg *config.Config, logger *zap.Logger, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		checks:  checks,
		started: time.Now(),
		logger:  logger.Named("health"),
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health. It checks no dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /ready, answering 503 when any dependency check fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := ReadyResponse{Ready: true, Checks: make(map[string]string, len(h.checks))}
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			resp.Ready = false
			resp.Checks[c.Name] = logging.SanitizeError(err)
			h.logger.Warn("Readiness check failed",
				zap.String("dependency", c.Name),
				zap.String("error", resp.Checks[c.Name]))
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	if err := WriteJSON(w, status, resp); err != nil {
		h.logger.Error("Failed to encode readiness response", zap.Error(err))
	}
}

// Ping handles GET /ping.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	response := PingResponse{
		Status:        "ok",
		Version:       h.cfg.Version,
		Service:       ServiceName,
		GoVersion:     runtime.Version(),
		Hostname:      hostname,
		Environment:   h.cfg.Env,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
