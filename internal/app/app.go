package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
	customMiddleware "salesdash/internal/middleware"
	"salesdash/internal/services"
	handlers "salesdash/internal/transport/http"
	"salesdash/internal/validation"
	ws "salesdash/internal/websocket"
	"salesdash/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics

	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	Watcher       *services.DatasetWatcher

	errorHandler *apierrors.ErrorHandler
}

// NewApplication loads the configuration from the environment, initializes
// the process logger and builds the application.
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

// New wires every component from cfg. The dataset is loaded before New
// returns; a missing or malformed source file is an error.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", contracts.ProductName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	// Each application owns its registry so the Go runtime collectors and
	// the OTel exporter never clash with another instance in the process.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.Registry = registry

	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(ctx); err != nil {
		a.shutdownServices(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices loads the dataset and starts the hub and the watcher.
func (a *Application) initializeServices(ctx context.Context) error {
	policy, err := dataprocessing.ParsePricePolicy(a.Config.Dataset.PricePolicy)
	if err != nil {
		return err
	}

	files := a.Paths.SourcePaths(a.Config.Dataset.SourceFiles)
	if problems := validation.NewFileValidator(a.Logger).ValidateSources(files); len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return fmt.Errorf("%d of %d source files unusable: %w", len(problems), len(files), errors.Join(errs...))
	}

	dashboard, err := services.NewDashboardService(services.DashboardServiceConfig{
		Files:       files,
		PricePolicy: policy,
		CacheSize:   a.Config.Dataset.CacheSize,
		Presentation: services.Presentation{
			Title:  a.Config.Dataset.Title,
			Header: a.Config.Dataset.Header,
			Footer: a.Config.Dataset.Footer,
		},
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})
	if err != nil {
		return err
	}
	a.Dashboard = dashboard

	if err := dashboard.Load(ctx); err != nil {
		return fmt.Errorf("failed to load sales dataset: %w", err)
	}

	hub := ws.NewHub(ws.HubConfig{
		Builder:    dashboard,
		Dataset:    dashboard,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
		PingPeriod: a.Config.WebSocket.PingPeriod,
		PongWait:   a.Config.WebSocket.PongWait,
	})
	hub.Start()
	a.WebSocketHub = hub

	// Open dashboards re-request their selection when a new version lands.
	dashboard.OnReload(hub.BroadcastDatasetReloaded)

	if a.Config.Dataset.Watch {
		watcher, err := services.WatchSources(files, services.ReloaderFunc(func(ctx context.Context) error {
			_, err := dashboard.Reload(ctx)
			if err != nil {
				hub.BroadcastReloadFailed(ctx, err)
			}
			return err
		}), a.Config.Dataset.WatchDebounce, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to watch dataset sources: %w", err)
		}
		a.Watcher = watcher
	}

	a.HealthService = services.NewHealthService(
		contracts.CurrentBuild(),
		a.Paths.DataDir,
		dashboard,
		hub,
		a.Logger,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that does not wrap the ResponseWriter, so the
	// websocket upgrade below can hijack the connection.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := ws.NewHandler(a.WebSocketHub, ws.UpgradeConfig{
		AllowedOrigins:  a.allowedOrigins(),
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
	})
	r.With(customMiddleware.TraceUpgrade(a.Logger)).Handle("/ws", wsHandler)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// Order: OTel, request log and recovery, headers, CORS, rate limit
		tracing, err := customMiddleware.NewTracing(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create request tracing", slog.String("error", err.Error()))
		} else {
			r.Use(tracing.Handler)
		}

		r.Use(apierrors.NewErrorMiddleware(a.errorHandler, a.Logger).Handler)
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

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, a.Logger, a.errorHandler)
		r.Mount("/dashboard", dashboardHandler.Routes())

		datasetHandler := handlers.NewDatasetHandler(a.Dashboard, a.Logger, a.errorHandler)
		r.Mount("/dataset", datasetHandler.Routes())

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Post("/client-log", handlers.NewClientLogHandler(a.Logger, a.errorHandler).Handle)
	})
}

// setupHTMLRoutes serves the dashboard page and its assets
func (a *Application) setupHTMLRoutes(r chi.Router) {
	r.Get("/", handlers.ServeDashboardPage(a.Paths.WebDir, handlers.PageData{
		Title:  a.Config.Dataset.Title,
		Header: a.Config.Dataset.Header,
		Footer: a.Config.Dataset.Footer,
	}, a.Logger))

	r.Route("/static", func(r chi.Router) {
		r.Use(customMiddleware.Compress(5))
		r.Use(chimiddleware.SetHeader("Cache-Control", "public, max-age=86400"))
		r.Handle("/*", handlers.StaticFiles(a.Paths.StaticDir))
	})
}

// allowedOrigins returns the origins accepted by CORS and the websocket
// upgrade. The server's own localhost origins are always accepted.
func (a *Application) allowedOrigins() []string {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	seen := map[string]bool{origins[0]: true, origins[1]: true}
	for _, o := range a.Config.Security.AllowedOrigins {
		if o != "" && !seen[o] {
			seen[o] = true
			origins = append(origins, o)
		}
	}
	return origins
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-Row-Count",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

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

// Start starts serving in the background. cancel is called if the listener
// fails.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	info, _ := a.Dashboard.DatasetInfo(ctx)
	attrs := []any{
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level),
	}
	if info != nil {
		attrs = append(attrs,
			slog.String("dataset_version", info.Version),
			slog.Int("rows", info.Rows))
	}
	a.Logger.InfoContext(ctx, "Starting server", attrs...)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var serverErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			serverErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	a.shutdownServices(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return serverErr
}

func (a *Application) shutdownServices(ctx context.Context) {
	if a.Watcher != nil {
		if err := a.Watcher.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing dataset watcher", slog.String("error", err.Error()))
		}
	}
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}
}

// Run serves until SIGINT or SIGTERM, or until the listener fails.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
	}

	stopCtx, stop := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stop()
	return a.Stop(stopCtx)
}
