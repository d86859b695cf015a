package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/pkg/config"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

func newTestClient(serverURL string, timeout time.Duration) *HTTPClient {
	return NewClient(&config.ClassifierConfig{URL: serverURL, Timeout: timeout})
}

func testImage() providers.ImageUpload {
	return providers.ImageUpload{
		Filename:    "leaf.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("not-a-real-jpeg"),
	}
}

func TestClassifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tomato", r.URL.Query().Get("plant"))

		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "leaf.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[{"class":"Late_blight","confidence":0.92},{"class":"healthy","confidence":0.05}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	predictions, err := client.Classify(context.Background(), testImage(), "tomato")

	require.NoError(t, err)
	require.Len(t, predictions, 2)
	assert.Equal(t, "Late_blight", predictions[0].Label)
	assert.InDelta(t, 0.92, predictions[0].Confidence, 1e-9)
}

func TestClassifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.Classify(context.Background(), testImage(), "corn")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestClassifyUnsupportedPlant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.Classify(context.Background(), testImage(), "cactus")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestClassifyMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions": "not-an-array"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.Classify(context.Background(), testImage(), "tomato")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeContract))
}

func TestClassifyEmptyPredictions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.Classify(context.Background(), testImage(), "tomato")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeContract))
}

func TestClassifyTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server.URL, 50*time.Millisecond)
	_, err := client.Classify(context.Background(), testImage(), "tomato")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
}
