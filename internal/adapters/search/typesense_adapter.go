package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/repositories"
	tsclient "github.com/plantmd/backend/internal/infrastructure/clients/typesense"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

const collectionName = "diseases"

// TypesenseAdapter implements fuzzy disease-name lookup over Typesense. The
// classifier emits labels like "Late_blight"; when no database strategy
// matches, a typo-tolerant search against the indexed names gets one more
// chance to resolve the label.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.DiseaseSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "scientific_name", Type: "string", Optional: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "common_plants", Type: "string[]", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a disease document into the search index
func (a *TypesenseAdapter) Index(ctx context.Context, disease *entities.Disease) error {
	document := map[string]interface{}{
		"id":              disease.ID,
		"name":            disease.Name,
		"scientific_name": disease.ScientificName,
		"category":        disease.Category,
		"common_plants":   disease.CommonPlants,
		"created_at":      disease.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index disease: %w", err)
	}

	return nil
}

// FindClosest returns the best fuzzy match for a label, or not-found
func (a *TypesenseAdapter) FindClosest(ctx context.Context, label string) (*entities.Disease, error) {
	searchParams := &api.SearchCollectionParams{
		Q:                   pointer.String(label),
		QueryBy:             pointer.String("name,scientific_name"),
		NumTypos:            pointer.String("2"),
		DropTokensThreshold: pointer.Int(1),
		PerPage:             pointer.Int(1),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, apperrors.NewExternalError("disease search failed", err)
	}

	if result.Hits == nil || len(*result.Hits) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no disease matching %q", label))
	}

	doc := *(*result.Hits)[0].Document

	disease := &entities.Disease{}
	if val, ok := doc["id"].(string); ok {
		disease.ID = val
	}
	if val, ok := doc["name"].(string); ok {
		disease.Name = val
	}
	if val, ok := doc["scientific_name"].(string); ok {
		disease.ScientificName = val
	}
	if val, ok := doc["category"].(string); ok {
		disease.Category = val
	}
	if plants, ok := doc["common_plants"].([]interface{}); ok {
		for _, plant := range plants {
			if name, ok := plant.(string); ok {
				disease.CommonPlants = append(disease.CommonPlants, name)
			}
		}
	}

	return disease, nil
}
