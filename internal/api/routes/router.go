package routes

import (
	"net/http"

	"github.com/plantmd/backend/internal/api/handlers"
	"github.com/plantmd/backend/internal/api/middleware"
	"github.com/plantmd/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	analyzeHandler *handlers.AnalyzeHandler
	predictHandler *handlers.PredictHandler
	healthHandler  *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	analyzeHandler *handlers.AnalyzeHandler,
	predictHandler *handlers.PredictHandler,
	healthHandler *handlers.HealthHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		analyzeHandler:  analyzeHandler,
		predictHandler:  predictHandler,
		healthHandler:   healthHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	r.mux.HandleFunc("POST /api/analyze", r.analyzeHandler.Analyze)
	r.mux.HandleFunc("GET /api/predict", r.predictHandler.GetPrediction)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}

	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
