package providers

import (
	"context"

	"github.com/plantmd/backend/internal/domain/entities"
)

// ImageUpload is one image submitted for classification.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Classifier submits an image to the external classification service and
// returns the ranked prediction list. Failures are typed AppErrors:
// TIMEOUT for deadline overruns, EXTERNAL for transport or non-2xx
// responses, CONTRACT for malformed or empty prediction bodies.
type Classifier interface {
	Classify(ctx context.Context, image ImageUpload, plant string) ([]entities.Prediction, error)
}
