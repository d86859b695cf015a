package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantmd/backend/pkg/config"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

func newTestClient(serverURL string, timeout time.Duration) *HTTPClient {
	return NewClient(&config.LookupConfig{URL: serverURL, Timeout: timeout})
}

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Late_blight", r.URL.Query().Get("disease_name"))
		assert.Equal(t, "0.92", r.URL.Query().Get("confidence"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"disease": {"disease_name": "Late blight", "scientific_name": "Phytophthora infestans", "category": "Fungal", "risk_factor": "High", "common_plants": ["Tomato", "Potato"]},
			"cure": {"cure": ["Remove and destroy infected leaves"]},
			"confidence": 92
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	report, err := client.Lookup(context.Background(), "Late_blight", 0.92)

	require.NoError(t, err)
	assert.Equal(t, "Late blight", report.Disease.Name)
	assert.Equal(t, []string{"Remove and destroy infected leaves"}, report.Cure.Steps)
	assert.InDelta(t, 92.0, report.Confidence, 1e-9)
}

func TestLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success": false, "message": "Disease not found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), "Unknown_disease", 0.5)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLookupUnsuccessfulBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "no match"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), "healthy", 0.05)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), "Late_blight", 0.92)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestLookupTimeoutIsIsolatedPerCall(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server.URL, 50*time.Millisecond)

	start := time.Now()
	_, err := client.Lookup(context.Background(), "Late_blight", 0.92)
	elapsed := time.Since(start)

	require.Error(t, err)
	// The per-call deadline fires, not the parent context.
	assert.Less(t, elapsed, time.Second)
}
