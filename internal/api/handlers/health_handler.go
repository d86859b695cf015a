package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is anything that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health. The database is required; the
// cache and search backends are optional and only degrade the report.
type HealthHandler struct {
	db     Pinger
	cache  Pinger
	search Pinger
}

// NewHealthHandler creates a new health handler. Optional dependencies may
// be nil.
func NewHealthHandler(db, cache, search Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, search: search}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	services := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			services["database"] = "unavailable"
			healthy = false
		} else {
			services["database"] = "ok"
		}
	}

	services["cache"] = pingOptional(ctx, h.cache)
	services["search"] = pingOptional(ctx, h.search)

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	respondWithJSON(w, statusCode, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}

func pingOptional(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
