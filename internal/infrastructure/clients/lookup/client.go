package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/pkg/config"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

// HTTPClient queries the disease lookup API for one predicted label. Each
// call carries its own deadline so a slow lookup cannot stall the rest of
// the enrichment fan-out.
type HTTPClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ providers.EnrichmentSource = (*HTTPClient)(nil)

type failureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewClient creates a new lookup client
func NewClient(cfg *config.LookupConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
	}
}

// Lookup fetches disease and cure metadata for one predicted label.
func (c *HTTPClient) Lookup(ctx context.Context, label string, confidence float64) (*entities.DiseaseReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s?disease_name=%s&confidence=%s",
		c.baseURL,
		url.QueryEscape(label),
		url.QueryEscape(fmt.Sprintf("%g", confidence)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build lookup request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("lookup failed for %q", label), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no disease record for %q", label))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("lookup returned status %d for %q", resp.StatusCode, label), nil)
	}

	var report entities.DiseaseReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, apperrors.NewContractError(fmt.Sprintf("malformed lookup response for %q", label))
	}
	if !report.Success {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no disease record for %q", label))
	}

	return &report, nil
}
