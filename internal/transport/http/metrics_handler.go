package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "invpulse/internal/errors"
	"invpulse/internal/websocket"
)

// HubStats exposes the websocket hub counters
type HubStats interface {
	Metrics() websocket.HubMetrics
}

// MetricsHandler serves the Prometheus exposition and websocket statistics
type MetricsHandler struct {
	prometheus http.Handler
	hub        HubStats
}

// NewMetricsHandler creates a new metrics handler. Either argument may be nil
// when the corresponding feature is disabled.
func NewMetricsHandler(prometheus http.Handler, hub HubStats) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, hub: hub}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Prometheus)
	r.Get("/websocket", h.WebSocket)
	return r
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		apierrors.WriteError(w, apierrors.ErrServiceUnavailable)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// WebSocket handles GET /metrics/websocket
func (h *MetricsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		render.JSON(w, r, websocket.HubMetrics{})
		return
	}
	render.JSON(w, r, h.hub.Metrics())
}
