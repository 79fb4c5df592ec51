package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout    = 10 * time.Second
	datasetTimeout   = 30 * time.Second
	pageCacheControl = "no-cache"
)

// dashboardPage renders the full page for the default selection so the first
// paint needs no SSE round trip.
func dashboardPage(dashboard *services.Dashboard, renderer *charts.Renderer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		sel := sales.DefaultSelection()
		data := templates.PageData{Selection: sel}

		report, err := dashboard.Report(ctx, sel)
		switch {
		case stderrors.Is(err, services.ErrNotLoaded):
			http.Error(w, "dataset is not loaded yet", http.StatusServiceUnavailable)
			return
		case err != nil:
			logger.Error("build default report", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}
		data.Report = report

		if data.Options, err = dashboard.Options(sel.Field); err != nil {
			logger.Error("list options", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
			return
		}

		if data.Charts, err = renderer.RenderAll(report); err != nil {
			logger.Error("render charts", "error", err)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", pageCacheControl)
		if err := templates.Dashboard(data).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(cfg *config.Config, dashboard *services.Dashboard, metrics *observability.Metrics, logger *slog.Logger) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardPage(dashboard, charts.NewRenderer(), logger),
	}

	middlewares := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
	}
	if cfg.Security.EnableRateLimit {
		middlewares = append(middlewares, middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger))
	}

	return server.NewServer(dashboard, metrics, logger, templateHandlers, middlewares...)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	metrics := observability.NewMetrics()
	dashboard := services.NewDashboard(cfg.Data, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), datasetTimeout)
	defer cancel()

	if err := dashboard.LoadFromFile(ctx, cfg.Data.File); err != nil {
		logger.Error("failed to load dataset", "file", cfg.Data.File, "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dashboard, metrics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down dashboard service", "stats", dashboard.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
