package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"invpulse/internal/config"
	apierrors "invpulse/internal/errors"
	"invpulse/internal/infrastructure"
	"invpulse/internal/ingest"
	customMiddleware "invpulse/internal/middleware"
	"invpulse/internal/services"
	"invpulse/internal/store"
	handlers "invpulse/internal/transport/http"
	"invpulse/internal/validation"
	ws "invpulse/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Store         store.Store
	WebSocketHub  *ws.Hub
	UploadService *services.UploadService
	HealthService *services.HealthService
	Ingester      *ingest.Ingester // nil unless ingest is enabled
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	metrics *infrastructure.BusinessMetrics
}

// NewApplication loads configuration from the environment and builds the application
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds the application from an already loaded configuration
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("store_driver", cfg.Store.Driver))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.metrics = metrics

	st, err := store.Open(ctx, a.Config.Store, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = st

	a.WebSocketHub = ws.NewHub(config.AppVersion, a.Logger)

	fileValidator := validation.NewFileValidator(a.Logger, a.Config.Upload.AllowedExtensions, a.Config.Upload.MaxBytes)

	a.UploadService = services.NewUploadService(st, fileValidator, a.Logger,
		services.WithPublisher(a.WebSocketHub),
		services.WithMetrics(metrics),
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithMaxDays(a.Config.Upload.MaxDays),
	)

	a.HealthService = services.NewHealthService(config.AppVersion, a.Config.Store.Driver, st, a.WebSocketHub, a.Logger)

	if a.Config.Ingest.Enabled {
		owner, err := uuid.Parse(a.Config.Ingest.OwnerID)
		if err != nil {
			st.Close()
			return fmt.Errorf("invalid ingest owner: %w", err)
		}
		ingester, err := ingest.New(ingest.Config{
			Dir:         a.Config.Ingest.Dir,
			OwnerID:     owner,
			Debounce:    a.Config.Ingest.Debounce,
			InitialScan: a.Config.Ingest.InitialScan,
		}, a.UploadService, fileValidator, a.Logger)
		if err != nil {
			st.Close()
			return fmt.Errorf("failed to initialize ingester: %w", err)
		}
		a.Ingester = ingester
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Only middleware that leaves the ResponseWriter alone runs ahead of the
	// WebSocket upgrade.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Get(config.WebSocketPath, ws.Handler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → security → CORS → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

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

		a.setupAPIRoutes(r, errorHandler)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Get("/health", healthHandler.HealthCheck)
	r.Mount(config.MetricsPath, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.WebSocketHub).Routes())

	r.Route(config.APIPrefix, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(middleware.NoCache)
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Get("/version", healthHandler.Version)
		r.Mount("/health", healthHandler.Routes())

		uploadHandler := handlers.NewUploadHandler(
			a.UploadService,
			customMiddleware.NewValidator(a.Logger),
			errorHandler,
			handlers.UploadHandlerConfig{
				OwnerHeader:       a.Config.Upload.OwnerHeader,
				MaxBytes:          a.Config.Upload.MaxBytes,
				AllowedExtensions: a.Config.Upload.AllowedExtensions,
			},
			a.Logger,
		)
		r.Mount("/upload", uploadHandler.Routes())
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
			a.Config.Upload.OwnerHeader,
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
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

// Serve runs the HTTP server on ln, the WebSocket hub and, when enabled, the
// ingester until ctx is cancelled or one of them fails. The server is then
// shut down gracefully and the store closed.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.WebSocketHub.Run(gctx)
	})

	if a.Ingester != nil {
		g.Go(func() error {
			if err := a.Ingester.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("ingester: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run listens on the configured port and serves until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		a.Store.Close()
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.Bool("ingest_enabled", a.Ingester != nil))

	return a.Serve(ctx, ln)
}
