package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/internal/infrastructure/observability"
	"github.com/plantmd/backend/pkg/config"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

// AnalyzeHandler accepts a plant photo and proxies it to the external
// classification service, translating upstream failures into stable status
// codes so clients never see raw classifier errors.
type AnalyzeHandler struct {
	classifier   providers.Classifier
	plants       config.PlantsConfig
	maxImageSize int64
	metrics      *observability.Metrics
}

// NewAnalyzeHandler creates a new analyze handler. The metrics may be nil.
func NewAnalyzeHandler(classifier providers.Classifier, cfg *config.Config, metrics *observability.Metrics) *AnalyzeHandler {
	return &AnalyzeHandler{
		classifier:   classifier,
		plants:       cfg.Plants,
		maxImageSize: cfg.Classifier.MaxImageSize,
		metrics:      metrics,
	}
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxImageSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	plant := r.FormValue("plant")
	if plant == "" {
		plant = r.URL.Query().Get("plant")
	}
	if !h.plants.IsSupported(plant) {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf(
			"invalid plant type %q, must be one of: %s", plant, strings.Join(h.plants.Supported, ", ")))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadRequest, "invalid file type, please upload an image")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read image data")
		return
	}
	if int64(len(data)) > h.maxImageSize {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf(
			"image exceeds the maximum size of %d bytes", h.maxImageSize))
		return
	}

	upload := providers.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}

	start := time.Now()
	predictions, err := h.classifier.Classify(r.Context(), upload, plant)
	if h.metrics != nil {
		observability.RecordClassifierMetric(r.Context(), h.metrics, plant, err == nil, time.Since(start))
	}
	if err != nil {
		log.Warn().Err(err).Str("plant", plant).Msg("image analysis failed")
		status, message := classifierStatus(err)
		respondWithError(w, status, message)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"predictions": predictions,
	})
}

// classifierStatus maps a classification failure to the proxied status
// code: timeouts are 408, upstream rejections keep their 422, malformed
// upstream bodies and error statuses are 502, and transport failures are
// 503 since the service was never reached.
func classifierStatus(err error) (int, string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal server error"
	}

	switch appErr.Type {
	case apperrors.ErrorTypeTimeout:
		return http.StatusRequestTimeout, appErr.Message
	case apperrors.ErrorTypeValidation:
		return http.StatusUnprocessableEntity, appErr.Message
	case apperrors.ErrorTypeContract:
		return http.StatusBadGateway, appErr.Message
	case apperrors.ErrorTypeExternal:
		if appErr.Err != nil {
			return http.StatusServiceUnavailable, appErr.Message
		}
		return http.StatusBadGateway, appErr.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
