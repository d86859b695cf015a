package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/repositories"
	apperrors "github.com/plantmd/backend/pkg/errors"
	"github.com/plantmd/backend/pkg/labels"
)

// DiseaseLookupService resolves a classifier label to a disease record and
// its cure. Classifier labels rarely match the curated names verbatim
// ("Late_blight" vs "Late blight"), so resolution tries progressively looser
// strategies: exact name, case-insensitive, underscore/space variants, and
// finally typo-tolerant search when an index is available.
type DiseaseLookupService struct {
	diseases repositories.DiseaseRepository
	cures    repositories.CureRepository
	search   repositories.DiseaseSearchRepository
}

// NewDiseaseLookupService creates a new lookup service. The search
// repository may be nil, in which case the fuzzy strategy is skipped.
func NewDiseaseLookupService(
	diseases repositories.DiseaseRepository,
	cures repositories.CureRepository,
	search repositories.DiseaseSearchRepository,
) *DiseaseLookupService {
	return &DiseaseLookupService{
		diseases: diseases,
		cures:    cures,
		search:   search,
	}
}

// Lookup resolves a disease name and returns the full report. Confidence is
// the classifier's 0..1 score and is reported as a percentage.
func (s *DiseaseLookupService) Lookup(ctx context.Context, diseaseName string, confidence float64) (*entities.DiseaseReport, error) {
	disease, err := s.resolve(ctx, diseaseName)
	if err != nil {
		return nil, err
	}

	cure, err := s.cures.GetByDiseaseID(ctx, disease.ID)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		// A disease without a recorded cure still yields a report.
		log.Debug().Str("disease_id", disease.ID).Msg("no cure recorded for disease")
		cure = &entities.Cure{DiseaseID: disease.ID, Disease: disease.Name, Steps: []string{}}
	}

	return &entities.DiseaseReport{
		Success:    true,
		Disease:    *disease,
		Cure:       *cure,
		Confidence: confidence * 100,
	}, nil
}

func (s *DiseaseLookupService) resolve(ctx context.Context, diseaseName string) (*entities.Disease, error) {
	disease, err := s.diseases.GetByName(ctx, diseaseName)
	if err == nil {
		return disease, nil
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, err
	}

	for _, variant := range labels.MatchVariants(diseaseName) {
		disease, err = s.diseases.GetByNameInsensitive(ctx, variant)
		if err == nil {
			return disease, nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
	}

	if s.search != nil {
		if disease, err := s.fuzzyResolve(ctx, diseaseName); err == nil {
			return disease, nil
		}
	}

	return nil, apperrors.NewNotFoundError(fmt.Sprintf("disease %q not found", diseaseName))
}

// fuzzyResolve finds the closest indexed name, then reloads the full record
// from the database since the index carries only the searchable fields.
func (s *DiseaseLookupService) fuzzyResolve(ctx context.Context, diseaseName string) (*entities.Disease, error) {
	match, err := s.search.FindClosest(ctx, labels.Display(diseaseName))
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			log.Warn().Err(err).Str("label", diseaseName).Msg("fuzzy disease search failed")
		}
		return nil, err
	}

	disease, err := s.diseases.GetByNameInsensitive(ctx, match.Name)
	if err != nil {
		return match, nil
	}
	return disease, nil
}
