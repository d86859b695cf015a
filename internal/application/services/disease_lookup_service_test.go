package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantmd/backend/internal/domain/entities"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

// stubDiseaseRepo resolves names against a fixed set of records.
type stubDiseaseRepo struct {
	records []*entities.Disease
}

func (r *stubDiseaseRepo) Create(ctx context.Context, disease *entities.Disease) error {
	r.records = append(r.records, disease)
	return nil
}

func (r *stubDiseaseRepo) GetByName(ctx context.Context, name string) (*entities.Disease, error) {
	for _, d := range r.records {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, apperrors.NewNotFoundError("disease not found")
}

func (r *stubDiseaseRepo) GetByNameInsensitive(ctx context.Context, name string) (*entities.Disease, error) {
	for _, d := range r.records {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return nil, apperrors.NewNotFoundError("disease not found")
}

func (r *stubDiseaseRepo) List(ctx context.Context) ([]*entities.Disease, error) {
	return r.records, nil
}

type stubCureRepo struct {
	cures map[string]*entities.Cure
}

func (r *stubCureRepo) Create(ctx context.Context, cure *entities.Cure) error {
	if r.cures == nil {
		r.cures = map[string]*entities.Cure{}
	}
	r.cures[cure.DiseaseID] = cure
	return nil
}

func (r *stubCureRepo) GetByDiseaseID(ctx context.Context, diseaseID string) (*entities.Cure, error) {
	if cure, ok := r.cures[diseaseID]; ok {
		return cure, nil
	}
	return nil, apperrors.NewNotFoundError("cure not found")
}

type stubSearchRepo struct {
	match *entities.Disease
	calls int
}

func (r *stubSearchRepo) Index(ctx context.Context, disease *entities.Disease) error { return nil }

func (r *stubSearchRepo) FindClosest(ctx context.Context, label string) (*entities.Disease, error) {
	r.calls++
	if r.match == nil {
		return nil, apperrors.NewNotFoundError("no match")
	}
	return r.match, nil
}

func fixtureRepos() (*stubDiseaseRepo, *stubCureRepo) {
	lateBlight := &entities.Disease{
		ID:             "d1",
		Code:           "LB",
		Name:           "Late blight",
		ScientificName: "Phytophthora infestans",
		CommonPlants:   []string{"tomato", "potato"},
		Category:       "fungal",
		RiskFactor:     "high",
	}
	diseases := &stubDiseaseRepo{records: []*entities.Disease{lateBlight}}
	cures := &stubCureRepo{cures: map[string]*entities.Cure{
		"d1": {ID: "c1", DiseaseID: "d1", Disease: "Late blight", Steps: []string{"Remove infected leaves", "Apply fungicide"}},
	}}
	return diseases, cures
}

func TestLookupExactName(t *testing.T) {
	diseases, cures := fixtureRepos()
	svc := NewDiseaseLookupService(diseases, cures, nil)

	report, err := svc.Lookup(context.Background(), "Late blight", 0.92)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, "Late blight", report.Disease.Name)
	assert.Equal(t, []string{"Remove infected leaves", "Apply fungicide"}, report.Cure.Steps)
	assert.InDelta(t, 92.0, report.Confidence, 0.001)
}

func TestLookupUnderscoreVariant(t *testing.T) {
	diseases, cures := fixtureRepos()
	svc := NewDiseaseLookupService(diseases, cures, nil)

	// Classifier labels use underscores; the curated name uses spaces.
	report, err := svc.Lookup(context.Background(), "Late_blight", 0.8)
	require.NoError(t, err)
	assert.Equal(t, "d1", report.Disease.ID)
}

func TestLookupCaseInsensitive(t *testing.T) {
	diseases, cures := fixtureRepos()
	svc := NewDiseaseLookupService(diseases, cures, nil)

	report, err := svc.Lookup(context.Background(), "LATE BLIGHT", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "d1", report.Disease.ID)
}

func TestLookupMissingCureYieldsEmptySteps(t *testing.T) {
	diseases, _ := fixtureRepos()
	svc := NewDiseaseLookupService(diseases, &stubCureRepo{}, nil)

	report, err := svc.Lookup(context.Background(), "Late blight", 0.9)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Empty(t, report.Cure.Steps)
}

func TestLookupFallsBackToFuzzySearch(t *testing.T) {
	diseases, cures := fixtureRepos()
	search := &stubSearchRepo{match: &entities.Disease{ID: "d1", Name: "Late blight"}}
	svc := NewDiseaseLookupService(diseases, cures, search)

	report, err := svc.Lookup(context.Background(), "Late blite", 0.7)
	require.NoError(t, err)
	assert.Equal(t, 1, search.calls)
	// The full record is reloaded from the database after the fuzzy hit.
	assert.Equal(t, "Phytophthora infestans", report.Disease.ScientificName)
}

func TestLookupNotFound(t *testing.T) {
	diseases, cures := fixtureRepos()
	svc := NewDiseaseLookupService(diseases, cures, &stubSearchRepo{})

	_, err := svc.Lookup(context.Background(), "Rust", 0.6)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
