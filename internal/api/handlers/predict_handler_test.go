package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantmd/backend/internal/domain/entities"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

type stubLookup struct {
	report *entities.DiseaseReport
	err    error

	gotName       string
	gotConfidence float64
}

func (s *stubLookup) Lookup(ctx context.Context, diseaseName string, confidence float64) (*entities.DiseaseReport, error) {
	s.gotName = diseaseName
	s.gotConfidence = confidence
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func performPredict(service DiseaseLookup, target string) *httptest.ResponseRecorder {
	handler := NewPredictHandler(service, nil)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	recorder := httptest.NewRecorder()
	handler.GetPrediction(recorder, req)
	return recorder
}

func TestGetPredictionSuccess(t *testing.T) {
	lookup := &stubLookup{report: &entities.DiseaseReport{
		Success: true,
		Disease: entities.Disease{ID: "d1", Name: "Late blight"},
		Cure:    entities.Cure{DiseaseID: "d1", Steps: []string{"Apply fungicide"}},
		// 0.92 reported as a percentage
		Confidence: 92,
	}}

	recorder := performPredict(lookup, "/api/predict?disease_name=Late_blight&confidence=0.92")
	require.Equal(t, http.StatusOK, recorder.Code)

	assert.Equal(t, "Late_blight", lookup.gotName)
	assert.InDelta(t, 0.92, lookup.gotConfidence, 0.001)

	var report entities.DiseaseReport
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
	assert.True(t, report.Success)
	assert.Equal(t, "Late blight", report.Disease.Name)
	assert.InDelta(t, 92.0, report.Confidence, 0.001)
}

func TestGetPredictionMissingName(t *testing.T) {
	recorder := performPredict(&stubLookup{}, "/api/predict")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "disease_name is required")
}

func TestGetPredictionInvalidConfidence(t *testing.T) {
	recorder := performPredict(&stubLookup{}, "/api/predict?disease_name=rust&confidence=high")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetPredictionNotFound(t *testing.T) {
	lookup := &stubLookup{err: apperrors.NewNotFoundError("disease not found")}

	recorder := performPredict(lookup, "/api/predict?disease_name=Unknown_blight")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "Disease not found", response.Message)
}

func TestGetPredictionInternalError(t *testing.T) {
	lookup := &stubLookup{err: apperrors.NewInternalError("query failed", nil)}

	recorder := performPredict(lookup, "/api/predict?disease_name=rust")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
