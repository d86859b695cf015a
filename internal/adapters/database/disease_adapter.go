package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/repositories"
	"github.com/plantmd/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

var diseaseColumns = []interface{}{
	"id", "code", "name", "scientific_name", "common_plants",
	"category", "risk_factor", "created_at", "updated_at",
}

// DiseaseAdapter implements DiseaseRepository
type DiseaseAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDiseaseAdapter creates a new disease adapter
func NewDiseaseAdapter(client *postgres.Client) repositories.DiseaseRepository {
	return &DiseaseAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a disease record
func (a *DiseaseAdapter) Create(ctx context.Context, disease *entities.Disease) error {
	now := time.Now()
	if disease.CreatedAt.IsZero() {
		disease.CreatedAt = now
	}
	disease.UpdatedAt = now

	record := goqu.Record{
		"id":              disease.ID,
		"code":            disease.Code,
		"name":            disease.Name,
		"scientific_name": sql.NullString{String: disease.ScientificName, Valid: disease.ScientificName != ""},
		"common_plants":   pq.Array(disease.CommonPlants),
		"category":        sql.NullString{String: disease.Category, Valid: disease.Category != ""},
		"risk_factor":     sql.NullString{String: disease.RiskFactor, Valid: disease.RiskFactor != ""},
		"created_at":      disease.CreatedAt,
		"updated_at":      disease.UpdatedAt,
	}

	query, args, err := a.db.Insert("diseases").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create disease", err)
	}

	return nil
}

// GetByName retrieves a disease by exact name
func (a *DiseaseAdapter) GetByName(ctx context.Context, name string) (*entities.Disease, error) {
	return a.getWhere(ctx, goqu.Ex{"name": name}, name)
}

// GetByNameInsensitive retrieves a disease by case-insensitive name
func (a *DiseaseAdapter) GetByNameInsensitive(ctx context.Context, name string) (*entities.Disease, error) {
	return a.getWhere(ctx, goqu.I("name").ILike(name), name)
}

func (a *DiseaseAdapter) getWhere(ctx context.Context, condition goqu.Expression, name string) (*entities.Disease, error) {
	query, args, err := a.db.Select(diseaseColumns...).
		From("diseases").
		Where(condition).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	disease := &entities.Disease{}
	var scientificName, category, riskFactor sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&disease.ID,
		&disease.Code,
		&disease.Name,
		&scientificName,
		pq.Array(&disease.CommonPlants),
		&category,
		&riskFactor,
		&disease.CreatedAt,
		&disease.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("disease %q not found", name))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get disease", err)
	}

	disease.ScientificName = scientificName.String
	disease.Category = category.String
	disease.RiskFactor = riskFactor.String

	return disease, nil
}

// List returns all disease records
func (a *DiseaseAdapter) List(ctx context.Context) ([]*entities.Disease, error) {
	query, args, err := a.db.Select(diseaseColumns...).
		From("diseases").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list diseases", err)
	}
	defer rows.Close()

	var diseases []*entities.Disease
	for rows.Next() {
		disease := &entities.Disease{}
		var scientificName, category, riskFactor sql.NullString

		err := rows.Scan(
			&disease.ID,
			&disease.Code,
			&disease.Name,
			&scientificName,
			pq.Array(&disease.CommonPlants),
			&category,
			&riskFactor,
			&disease.CreatedAt,
			&disease.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan disease", err)
		}

		disease.ScientificName = scientificName.String
		disease.Category = category.String
		disease.RiskFactor = riskFactor.String

		diseases = append(diseases, disease)
	}

	return diseases, rows.Err()
}

// CureAdapter implements CureRepository
type CureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCureAdapter creates a new cure adapter
func NewCureAdapter(client *postgres.Client) repositories.CureRepository {
	return &CureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a cure record
func (a *CureAdapter) Create(ctx context.Context, cure *entities.Cure) error {
	now := time.Now()
	if cure.CreatedAt.IsZero() {
		cure.CreatedAt = now
	}
	cure.UpdatedAt = now

	record := goqu.Record{
		"id":         cure.ID,
		"disease_id": cure.DiseaseID,
		"disease":    cure.Disease,
		"steps":      pq.Array(cure.Steps),
		"created_at": cure.CreatedAt,
		"updated_at": cure.UpdatedAt,
	}

	query, args, err := a.db.Insert("cures").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create cure", err)
	}

	return nil
}

// GetByDiseaseID retrieves the cure for a disease
func (a *CureAdapter) GetByDiseaseID(ctx context.Context, diseaseID string) (*entities.Cure, error) {
	query, args, err := a.db.Select(
		"id", "disease_id", "disease", "steps", "created_at", "updated_at",
	).From("cures").
		Where(goqu.Ex{"disease_id": diseaseID}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	cure := &entities.Cure{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&cure.ID,
		&cure.DiseaseID,
		&cure.Disease,
		pq.Array(&cure.Steps),
		&cure.CreatedAt,
		&cure.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cure for disease %s not found", diseaseID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get cure", err)
	}

	return cure, nil
}
