package entities

import "time"

// Disease is a curated disease record.
type Disease struct {
	ID             string    `json:"_id"`
	Code           string    `json:"disease_code"`
	Name           string    `json:"disease_name"`
	ScientificName string    `json:"scientific_name"`
	CommonPlants   []string  `json:"common_plants"`
	Category       string    `json:"category"`
	RiskFactor     string    `json:"risk_factor"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
}

// Cure holds the treatment steps for one disease.
type Cure struct {
	ID        string    `json:"_id"`
	DiseaseID string    `json:"disease_id"`
	Disease   string    `json:"disease"`
	Steps     []string  `json:"cure"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// DiseaseReport is the wire shape of one successful lookup: the disease,
// its cure, and the originating prediction confidence as a percentage.
type DiseaseReport struct {
	Success    bool    `json:"success"`
	Disease    Disease `json:"disease"`
	Cure       Cure    `json:"cure"`
	Confidence float64 `json:"confidence"`
}
