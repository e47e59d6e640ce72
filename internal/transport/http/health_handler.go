package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Version is the service version, overridable at build time with
// -ldflags "-X fodash/internal/transport/http.Version=..."
var Version = "dev"

// DatasetStatus is what the health endpoint needs to know about the
// loaded dataset
type DatasetStatus struct {
	Rows    int    `json:"rows"`
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
}

// HealthHandler serves liveness, readiness, and version endpoints
type HealthHandler struct {
	logger    *slog.Logger
	startedAt time.Time
	dataset   func() DatasetStatus
}

// NewHealthHandler creates a health handler. dataset reports the
// current dataset status and must be safe for concurrent use.
func NewHealthHandler(logger *slog.Logger, dataset func() DatasetStatus) *HealthHandler {
	return &HealthHandler{
		logger:    logger.With(slog.String("component", "health_handler")),
		startedAt: time.Now(),
		dataset:   dataset,
	}
}

// Routes returns the health routes
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetHealth)
	r.Get("/live", h.GetLiveness)
	r.Get("/ready", h.GetReadiness)
	return r
}

// GetHealth handles GET /api/health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := h.dataset()
	render.JSON(w, r, map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"uptime":  time.Since(h.startedAt).String(),
		"dataset": status,
	})
}

// GetLiveness handles GET /api/health/live
func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "alive"})
}

// GetReadiness handles GET /api/health/ready. The service is ready only
// when the dataset holds at least one usable row.
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	status := h.dataset()
	if status.Rows == 0 {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status": "not ready",
			"reason": "dataset is empty",
		})
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status":  "ready",
		"dataset": status,
	})
}

// VersionHandler handles GET /api/version
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"version": Version,
		"service": "fo-delivery-dashboard",
	})
}
