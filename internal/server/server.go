package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	router      chi.Router
	logger      *slog.Logger
	metrics     *observability.Metrics
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer builds the router. The middlewares run inside the router so they
// can see the matched route pattern. metrics may be nil, in which case
// /metrics is not served.
func NewServer(dashboard *services.Dashboard, metrics *observability.Metrics, logger *slog.Logger, templateHandlers *TemplateHandlers, middlewares ...middleware.Middleware) *Server {
	renderer := charts.NewRenderer()
	s := &Server{
		dashboard:   dashboard,
		router:      chi.NewRouter(),
		logger:      logger,
		metrics:     metrics,
		apiHandlers: handlers.NewAPIHandlers(dashboard, renderer, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, renderer, metrics, logger),
	}
	if len(middlewares) > 0 {
		s.router.Use(middleware.Chain(middlewares...))
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	r := s.router

	// Dashboard routes
	r.Get("/", templateHandlers.Dashboard)
	r.Get("/health", s.apiHandlers.HandleHealth)
	r.Get("/admin/stats", s.apiHandlers.HandleStats)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.apiHandlers.HandleReport)
		r.Get("/kpi", s.apiHandlers.HandleKPI)
		r.Get("/category-distribution", s.apiHandlers.HandleCategoryDistribution)
		r.Get("/category-profit", s.apiHandlers.HandleCategoryProfit)
		r.Get("/sales-trend", s.apiHandlers.HandleSalesTrend)
		r.Get("/scatter/quantity-profit", s.apiHandlers.HandleQuantityProfit)
		r.Get("/scatter/amount-profit", s.apiHandlers.HandleAmountProfit)
		r.Get("/options", s.apiHandlers.HandleOptions)
		r.Get("/export", s.apiHandlers.HandleExport)
	})
	r.Get("/charts/{panel}", s.apiHandlers.HandleChart)

	// Datastar SSE endpoints
	r.Get("/sse/dashboard", s.sseHandlers.HandleDashboard)
	r.Get("/sse/options", s.sseHandlers.HandleOptions)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
