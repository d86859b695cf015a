package main

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/plantmd/backend/internal/adapters/database"
	"github.com/plantmd/backend/internal/adapters/search"
	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/infrastructure/clients/postgres"
	"github.com/plantmd/backend/internal/infrastructure/clients/typesense"
	"github.com/plantmd/backend/pkg/config"
)

type seedEntry struct {
	disease entities.Disease
	cure    []string
}

// Seed data covers the labels the deployed classifier emits for the
// supported crops.
var seedEntries = []seedEntry{
	{
		disease: entities.Disease{
			Code:           "LB",
			Name:           "Late blight",
			ScientificName: "Phytophthora infestans",
			CommonPlants:   []string{"tomato", "potato"},
			Category:       "Fungal",
			RiskFactor:     "High",
		},
		cure: []string{
			"Remove and destroy infected leaves",
			"Avoid overhead watering; water at soil level",
			"Apply copper-based fungicide as labeled",
		},
	},
	{
		disease: entities.Disease{
			Code:           "EB",
			Name:           "Early blight",
			ScientificName: "Alternaria solani",
			CommonPlants:   []string{"tomato", "potato"},
			Category:       "Fungal",
			RiskFactor:     "Medium",
		},
		cure: []string{
			"Prune lower leaves to improve airflow",
			"Mulch to reduce soil splash",
			"Rotate crops and avoid planting in the same spot yearly",
		},
	},
	{
		disease: entities.Disease{
			Code:           "BS",
			Name:           "Bacterial spot",
			ScientificName: "Xanthomonas spp.",
			CommonPlants:   []string{"tomato", "pepper"},
			Category:       "Bacterial",
			RiskFactor:     "Medium",
		},
		cure: []string{
			"Remove infected plant material",
			"Use copper-based sprays preventively",
			"Practice strict garden hygiene; sanitize tools",
		},
	},
	{
		disease: entities.Disease{
			Code:           "TYLCV",
			Name:           "Tomato Yellow Leaf Curl Virus",
			ScientificName: "Begomovirus (TYLCV)",
			CommonPlants:   []string{"tomato"},
			Category:       "Viral",
			RiskFactor:     "High",
		},
		cure: []string{
			"Control whiteflies; use insect-proof netting",
			"Remove and destroy infected plants",
			"Use resistant varieties when available",
		},
	},
	{
		disease: entities.Disease{
			Code:           "HEALTHY",
			Name:           "healthy",
			ScientificName: "None",
			CommonPlants:   []string{"tomato", "corn", "rice", "potato"},
			Category:       "None",
			RiskFactor:     "None",
		},
		cure: []string{
			"Plant appears healthy. Maintain regular care.",
		},
	},
}

const schema = `
CREATE TABLE IF NOT EXISTS diseases (
	id              TEXT PRIMARY KEY,
	code            TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL UNIQUE,
	scientific_name TEXT,
	common_plants   TEXT[] NOT NULL DEFAULT '{}',
	category        TEXT,
	risk_factor     TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cures (
	id         TEXT PRIMARY KEY,
	disease_id TEXT NOT NULL REFERENCES diseases(id) ON DELETE CASCADE,
	disease    TEXT NOT NULL,
	steps      TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_diseases_name_lower ON diseases (lower(name));
CREATE INDEX IF NOT EXISTS idx_cures_disease_id ON cures (disease_id);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE cures, diseases RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	var searchRepo *search.TypesenseAdapter
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err != nil {
		log.Printf("Typesense unavailable, skipping search indexing: %v", err)
	} else {
		searchRepo = search.NewTypesenseAdapter(tsClient)
		if err := searchRepo.InitSchema(ctx); err != nil {
			log.Printf("Failed to init Typesense schema: %v", err)
			searchRepo = nil
		}
	}

	diseaseRepo := database.NewDiseaseAdapter(pgClient)
	cureRepo := database.NewCureAdapter(pgClient)

	for _, entry := range seedEntries {
		disease := entry.disease
		disease.ID = uuid.New().String()

		if err := diseaseRepo.Create(ctx, &disease); err != nil {
			log.Printf("Failed to create disease %s: %v", disease.Name, err)
			continue
		}

		cure := &entities.Cure{
			ID:        uuid.New().String(),
			DiseaseID: disease.ID,
			Disease:   disease.Name,
			Steps:     entry.cure,
		}
		if err := cureRepo.Create(ctx, cure); err != nil {
			log.Printf("Failed to create cure for %s: %v", disease.Name, err)
		}

		if searchRepo != nil {
			if err := searchRepo.Index(ctx, &disease); err != nil {
				log.Printf("Failed to index disease %s: %v", disease.Name, err)
			}
		}

		log.Printf("Seeded %s", disease.Name)
	}

	log.Println("Seeding complete")
}
