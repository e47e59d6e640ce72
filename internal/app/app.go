package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"fodash/internal/config"
	apierrors "fodash/internal/errors"
	"fodash/internal/infrastructure"
	customMiddleware "fodash/internal/middleware"
	"fodash/internal/services"
	handlers "fodash/internal/transport/http"
)

const AppName = "FO Delivery Dashboard"

// Application is the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	DashboardService *services.DashboardService
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
}

// NewApplication loads configuration, initializes the ambient stack,
// loads the dataset, and builds the router
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", handlers.Version),
		slog.String("csv_path", cfg.Data.CSVPath))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	dashboardService, err := services.NewDashboardService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dashboard service: %w", err)
	}

	app := &Application{
		Config:           cfg,
		Logger:           logger,
		OTelProviders:    otelProviders,
		DashboardService: dashboardService,
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware ordering: RequestID -> RealIP -> OTel -> Logger ->
	// Recoverer -> SecurityHeaders -> CORS -> RateLimit
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
		a.DashboardService.SetMetrics(otelMiddleware.Metrics())
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Compress(5))

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r, errorHandler)

	// Prometheus scrape endpoint, outside the JSON content-type group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures the API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Logger, a.datasetStatus)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", handlers.VersionHandler)

		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes())

		shutdownHandler := handlers.NewShutdownHandler(a.Logger, nil)
		r.Post("/shutdown", shutdownHandler.Shutdown)
	})
}

// datasetStatus reports the loaded dataset for the health endpoints
func (a *Application) datasetStatus() handlers.DatasetStatus {
	opts, err := a.DashboardService.GetOptions(context.Background())
	if err != nil {
		return handlers.DatasetStatus{}
	}
	return handlers.DatasetStatus{
		Rows:    opts.TotalRows,
		MinDate: opts.MinDate,
		MaxDate: opts.MaxDate,
	}
}

// getCORSConfig returns the CORS configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run serves until interrupted, then shuts down gracefully. The
// /api/shutdown endpoint bypasses this path on purpose.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "starting server",
			slog.Int("port", a.Config.Server.Port),
			slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
			slog.String("level", a.Config.Logging.Level))

		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("received shutdown signal")
		return a.Stop(context.Background())
	})

	return g.Wait()
}
