package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/pkg/config"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

// HTTPClient submits images to the external classification service. The
// plant category travels as a query parameter, the image as a multipart
// body; the whole exchange is bounded by the configured timeout.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ providers.Classifier = (*HTTPClient)(nil)

type classifyResponse struct {
	Predictions []entities.Prediction `json:"predictions"`
}

// NewClient creates a new classifier client
func NewClient(cfg *config.ClassifierConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Classify uploads one image and returns the ranked prediction list.
func (c *HTTPClient) Classify(ctx context.Context, image providers.ImageUpload, plant string) ([]entities.Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := image.Filename
	if filename == "" {
		filename = "plant.jpg"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build multipart body", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, apperrors.NewInternalError("failed to write image data", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewInternalError("failed to finalize multipart body", err)
	}

	endpoint := fmt.Sprintf("%s?plant=%s", c.baseURL, url.QueryEscape(plant))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build classifier request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.NewTimeoutError("analysis timed out", err)
		}
		return nil, apperrors.NewExternalError("unable to reach analysis service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, apperrors.NewValidationError(
			"the selected plant type or image format is not supported by the analysis service")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().Int("status", resp.StatusCode).Str("body", string(detail)).
			Msg("classifier returned error status")
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("analysis service unavailable (%d)", resp.StatusCode), nil)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewContractError("invalid response from analysis service")
	}
	if len(parsed.Predictions) == 0 {
		return nil, apperrors.NewContractError("analysis service returned no predictions")
	}

	return parsed.Predictions, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
