package repositories

import (
	"context"

	"github.com/plantmd/backend/internal/domain/entities"
)

// DiseaseRepository provides access to curated disease records.
type DiseaseRepository interface {
	// Create inserts a disease record
	Create(ctx context.Context, disease *entities.Disease) error

	// GetByName retrieves a disease by exact name
	GetByName(ctx context.Context, name string) (*entities.Disease, error)

	// GetByNameInsensitive retrieves a disease by case-insensitive name
	GetByNameInsensitive(ctx context.Context, name string) (*entities.Disease, error)

	// List returns all disease records
	List(ctx context.Context) ([]*entities.Disease, error)
}

// CureRepository provides access to cure records.
type CureRepository interface {
	// Create inserts a cure record
	Create(ctx context.Context, cure *entities.Cure) error

	// GetByDiseaseID retrieves the cure for a disease
	GetByDiseaseID(ctx context.Context, diseaseID string) (*entities.Cure, error)
}

// DiseaseSearchRepository indexes diseases for fuzzy name lookup, used as
// the last matching strategy when the exact and normalized variants miss.
type DiseaseSearchRepository interface {
	// Index upserts a disease document into the search index
	Index(ctx context.Context, disease *entities.Disease) error

	// FindClosest returns the best fuzzy match for a label, or not-found
	FindClosest(ctx context.Context, label string) (*entities.Disease, error)
}
