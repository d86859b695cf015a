package entities

// EnrichedDisease is one display-ready diagnosis entry: the disease and
// cure metadata flattened for the result view.
type EnrichedDisease struct {
	DiseaseName       string   `json:"diseaseName"`
	ScientificName    string   `json:"scientificName"`
	Category          string   `json:"category"`
	RiskFactor        string   `json:"riskFactor"`
	AffectedPlants    []string `json:"affectedPlants"`
	CureSteps         []string `json:"cureSteps"`
	ConfidencePercent float64  `json:"confidencePercent"`
}

// EnrichmentRecord caches the enriched entries for one session. It expires
// independently of (and sooner than) the session itself, so a live session
// may have no cached enrichment.
type EnrichmentRecord struct {
	SessionID string            `json:"sessionId"`
	Items     []EnrichedDisease `json:"items"`
	CachedAt  int64             `json:"cachedAt"` // epoch millis
}

// NewEnrichedDisease flattens a lookup report into a display entry.
func NewEnrichedDisease(report *DiseaseReport) EnrichedDisease {
	return EnrichedDisease{
		DiseaseName:       report.Disease.Name,
		ScientificName:    report.Disease.ScientificName,
		Category:          report.Disease.Category,
		RiskFactor:        report.Disease.RiskFactor,
		AffectedPlants:    report.Disease.CommonPlants,
		CureSteps:         report.Cure.Steps,
		ConfidencePercent: report.Confidence,
	}
}
