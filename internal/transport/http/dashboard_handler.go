package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "fodash/internal/errors"
	"fodash/internal/filters"
	"fodash/internal/services"
)

// DashboardHandler handles the dashboard HTTP requests with RFC 7807 compliance
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/options", h.GetOptions)
	r.Post("/view", h.PostView)
	r.Post("/export", h.PostExport)

	return r
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.GetOptions(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapServiceError(err))
		return
	}
	render.JSON(w, r, opts)
}

// PostView handles POST /api/dashboard/view
func (h *DashboardHandler) PostView(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeViewRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.View(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapServiceError(err))
		return
	}

	render.JSON(w, r, result)
}

// PostExport handles POST /api/dashboard/export?format=csv|xlsx. The
// whole filtered selection is streamed as a file download, ignoring
// pagination.
func (h *DashboardHandler) PostExport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeViewRequest(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv", "xlsx":
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", fmt.Sprintf("Unknown export format: %s", format)))
		return
	}

	// Resolve headers before streaming so an early failure can still
	// produce a problem response
	filename := "filtered_data." + format
	if format == "" {
		filename = "filtered_data.csv"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if format == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}

	info, err := h.service.Export(r.Context(), req, format, w)
	if err != nil {
		// Headers may already be written; log and best-effort report
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", format),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, h.mapServiceError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("filename", info.Filename),
		slog.Int("rows", info.Rows))
}

// decodeViewRequest binds and validates the shared view/export request body
func (h *DashboardHandler) decodeViewRequest(w http.ResponseWriter, r *http.Request) (services.ViewRequest, bool) {
	var req services.ViewRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return req, false
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %s validation", fe.Tag()),
				})
			}
			h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fields))
		} else {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return req, false
	}

	return req, true
}

// mapServiceError translates service and filter sentinels into API errors
func (h *DashboardHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrDatasetEmpty):
		return apierrors.NewWithDetails(http.StatusUnprocessableEntity, "DATASET_EMPTY", "Dataset has no usable rows", err.Error())
	case errors.Is(err, services.ErrUnknownFormat):
		return apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER", "Unknown export format", err.Error())
	case errors.Is(err, filters.ErrColumnNotFound):
		return apierrors.NewWithDetails(http.StatusNotFound, "COLUMN_NOT_FOUND", "Numeric filter column not found", err.Error())
	}
	return err
}

// ShutdownHandler implements the dashboard's exit control: it
// acknowledges the request, flushes the response, and terminates the
// process without running deferred cleanup. Draining connections is
// intentionally skipped to match the abrupt-exit behavior.
type ShutdownHandler struct {
	logger *slog.Logger
	delay  time.Duration
	exit   func(code int)
}

// NewShutdownHandler creates a shutdown handler. exit is replaceable
// for tests; pass nil to use os.Exit.
func NewShutdownHandler(logger *slog.Logger, exit func(code int)) *ShutdownHandler {
	if exit == nil {
		exit = os.Exit
	}
	return &ShutdownHandler{
		logger: logger.With(slog.String("component", "shutdown_handler")),
		delay:  100 * time.Millisecond,
		exit:   exit,
	}
}

// Shutdown handles POST /api/shutdown
func (h *ShutdownHandler) Shutdown(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "shutdown requested",
		slog.String("remote_addr", r.RemoteAddr))

	render.JSON(w, r, map[string]string{"status": "shutting down"})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// Give the response a moment to reach the client, then exit with
	// success status regardless of in-flight requests
	go func() {
		time.Sleep(h.delay)
		h.exit(0)
	}()
}
