package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/internal/session"
	"github.com/plantmd/backend/pkg/config"
	apperrors "github.com/plantmd/backend/pkg/errors"
)

// State is the observable pipeline state.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateClassified State = "classified"
	StateEnriching  State = "enriching"
	StateDone       State = "done"
	StateError      State = "error"
)

// Snapshot is the UI-facing view of one analysis attempt.
type Snapshot struct {
	State       State
	SessionID   string
	Progress    int
	CurrentStep string
	Error       string
}

// IsAnalyzing reports whether the classifier stage is in flight.
func (s Snapshot) IsAnalyzing() bool {
	return s.State == StateUploading || s.State == StateClassified
}

// IsEnriching reports whether the enrichment fan-out is in flight.
func (s Snapshot) IsEnriching() bool {
	return s.State == StateEnriching
}

// Pipeline drives one analysis attempt end to end: validate the image,
// classify it, persist predictions, fan out enrichment lookups, and cache
// the aggregated result. It owns the only cross-cutting state machine in
// the system; the session store is written exclusively from here.
type Pipeline struct {
	classifier   providers.Classifier
	enricher     providers.EnrichmentSource
	store        *session.Store
	plants       config.PlantsConfig
	maxImageSize int64
	concurrency  int

	mu       sync.Mutex
	snapshot Snapshot
}

// New creates a pipeline.
func New(classifier providers.Classifier, enricher providers.EnrichmentSource, store *session.Store, cfg *config.Config) *Pipeline {
	concurrency := cfg.Lookup.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		classifier:   classifier,
		enricher:     enricher,
		store:        store,
		plants:       cfg.Plants,
		maxImageSize: cfg.Classifier.MaxImageSize,
		concurrency:  concurrency,
		snapshot:     Snapshot{State: StateIdle},
	}
}

// Snapshot returns the current UI-facing state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Reset discards in-memory progress and returns to idle. It does not clear
// the session store; that is a separate, explicit user action.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = Snapshot{State: StateIdle}
}

// StartAnalysis runs one attempt to completion. Validation failures are
// returned before any session is created; once a session exists, failures
// are recorded against it and reported through the snapshot as well.
func (p *Pipeline) StartAnalysis(ctx context.Context, image providers.ImageUpload, plant string) error {
	if err := p.validate(image, plant); err != nil {
		return err
	}
	if err := p.begin(); err != nil {
		return err
	}

	sessionID := p.store.CreateSession(ctx, plant, "")
	p.setSession(sessionID)
	p.update(10, "Uploading image to analysis service...")

	predictions, err := p.classifier.Classify(ctx, image, plant)
	if err != nil {
		reason := userMessage(err)
		p.store.FailSession(ctx, sessionID, reason)
		p.fail(reason)
		return err
	}

	p.update(25, "Processing analysis results...")
	p.store.CompleteSession(ctx, sessionID, predictions)
	p.transition(StateClassified)
	p.update(30, "Analysis complete. Fetching treatment information...")

	p.transition(StateEnriching)
	items := p.enrich(ctx, predictions)
	if len(items) == 0 {
		reason := "no disease information could be retrieved from the database, please try again later"
		p.fail(reason)
		return apperrors.NewExternalError(reason, nil)
	}

	p.store.CacheEnrichment(ctx, sessionID, items)
	p.transition(StateDone)
	p.update(100, "Diagnosis complete")
	return nil
}

// enrich issues one lookup per prediction with bounded concurrency. Each
// lookup fails independently; results are reassembled in prediction order
// no matter when they complete.
func (p *Pipeline) enrich(ctx context.Context, predictions []entities.Prediction) []entities.EnrichedDisease {
	reports := make([]*entities.DiseaseReport, len(predictions))

	var done int
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(p.concurrency)

	for i, prediction := range predictions {
		g.Go(func() error {
			report, err := p.enricher.Lookup(ctx, prediction.Label, prediction.Confidence)
			if err != nil {
				log.Warn().Err(err).Str("label", prediction.Label).Msg("enrichment lookup failed")
			} else {
				reports[i] = report
			}

			mu.Lock()
			done++
			progress := 30 + (60*done)/len(predictions)
			mu.Unlock()
			p.update(progress, "Fetching treatment information...")
			return nil
		})
	}
	_ = g.Wait()

	var items []entities.EnrichedDisease
	for _, report := range reports {
		if report != nil {
			items = append(items, entities.NewEnrichedDisease(report))
		}
	}
	return items
}

func (p *Pipeline) validate(image providers.ImageUpload, plant string) error {
	if len(image.Data) == 0 {
		return apperrors.NewValidationError("no image provided")
	}
	if !p.plants.IsSupported(plant) {
		return apperrors.NewValidationError(
			fmt.Sprintf("unsupported plant type %q, expected one of: %s", plant, strings.Join(p.plants.Supported, ", ")))
	}
	if image.ContentType != "" && !strings.HasPrefix(image.ContentType, "image/") {
		return apperrors.NewValidationError("invalid file type, please upload an image")
	}
	if p.maxImageSize > 0 && int64(len(image.Data)) > p.maxImageSize {
		return apperrors.NewValidationError("image too large")
	}
	return nil
}

// begin moves idle (or a terminal state) to uploading; a start while a run
// is in flight is rejected so a superseded attempt can never write over a
// newer session.
func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.snapshot.State {
	case StateIdle, StateDone, StateError:
		p.snapshot = Snapshot{State: StateUploading}
		return nil
	default:
		return apperrors.NewValidationError("an analysis is already in progress")
	}
}

func (p *Pipeline) setSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot.SessionID = sessionID
}

func (p *Pipeline) transition(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot.State = state
}

// update raises progress (never lowers it) and replaces the step label.
func (p *Pipeline) update(progress int, step string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if progress > p.snapshot.Progress {
		p.snapshot.Progress = progress
	}
	p.snapshot.CurrentStep = step
}

func (p *Pipeline) fail(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot.State = StateError
	p.snapshot.Error = reason
}

// userMessage maps a classifier failure to the message shown to the user.
func userMessage(err error) string {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeTimeout):
		return "analysis timed out, please try again with a smaller image"
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return "the selected plant type or image format is not supported, please try a different image or plant type"
	case apperrors.IsType(err, apperrors.ErrorTypeContract):
		return "invalid response from analysis service"
	default:
		return "unable to reach the analysis service, please try again later"
	}
}
