package providers

import (
	"context"

	"github.com/plantmd/backend/internal/domain/entities"
)

// EnrichmentSource turns a bare predicted label into full disease and cure
// metadata. A not-found label and a transport failure are both lookup
// failures for that one prediction; callers isolate them per call.
type EnrichmentSource interface {
	Lookup(ctx context.Context, label string, confidence float64) (*entities.DiseaseReport, error)
}
