package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/infrastructure/observability"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

// DiseaseLookup defines the lookup operation used by the handler.
type DiseaseLookup interface {
	Lookup(ctx context.Context, diseaseName string, confidence float64) (*entities.DiseaseReport, error)
}

// PredictHandler serves disease detail lookups for classifier labels.
type PredictHandler struct {
	service DiseaseLookup
	metrics *observability.Metrics
}

// NewPredictHandler creates a new predict handler. The metrics may be nil.
func NewPredictHandler(service DiseaseLookup, metrics *observability.Metrics) *PredictHandler {
	return &PredictHandler{service: service, metrics: metrics}
}

// GetPrediction handles GET /api/predict
func (h *PredictHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	diseaseName := r.URL.Query().Get("disease_name")
	if diseaseName == "" {
		respondWithError(w, http.StatusBadRequest, "disease_name is required")
		return
	}

	confidence := 0.0
	if raw := r.URL.Query().Get("confidence"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "confidence must be a number")
			return
		}
		confidence = parsed
	}

	report, err := h.service.Lookup(r.Context(), diseaseName, confidence)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			if h.metrics != nil {
				observability.RecordLookupFailure(r.Context(), h.metrics, "not_found")
			}
			respondWithJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"message": "Disease not found",
			})
			return
		}
		if h.metrics != nil {
			observability.RecordLookupFailure(r.Context(), h.metrics, "error")
		}
		log.Error().Err(err).Str("disease_name", diseaseName).Msg("disease lookup failed")
		respondWithError(w, http.StatusInternalServerError, "failed to look up disease")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
