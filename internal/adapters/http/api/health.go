package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/chordscan/internal/domain/types"
	"github.com/okian/chordscan/pkg/metrics"
)

const serviceName = "chordscan"

// HealthHandler handles liveness and metrics requests.
type HealthHandler struct {
	now     func() time.Time
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{
		now:     now,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /health with a small JSON liveness body.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{OK: true, Service: serviceName, TS: h.now().UnixMilli()})
}

// HandleMetrics handles GET /healthz and GET /metrics from the custom registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
