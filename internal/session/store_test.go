package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantmd/backend/internal/adapters/cache"
	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/pkg/config"
)

func newTestStore() (*Store, *cache.MemoryAdapter) {
	backend := cache.NewMemoryAdapter()
	store := NewStore(backend, &config.SessionConfig{
		SessionTTL:    24 * time.Hour,
		EnrichmentTTL: time.Hour,
	})
	return store, backend
}

// faultyBackend fails every operation, standing in for unavailable storage.
type faultyBackend struct{}

func (f *faultyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}

func (f *faultyBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("storage unavailable")
}

func (f *faultyBackend) Delete(ctx context.Context, key string) error {
	return errors.New("storage unavailable")
}

func (f *faultyBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, errors.New("storage unavailable")
}

func TestCreateSessionReplacesPrior(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	first := store.CreateSession(ctx, "tomato", "img-1")
	second := store.CreateSession(ctx, "corn", "img-2")
	require.NotEqual(t, first, second)

	current := store.GetCurrentSession(ctx)
	require.NotNil(t, current)
	assert.Equal(t, second, current.ID)
	assert.Equal(t, "corn", current.PlantCategory)
	assert.Equal(t, entities.SessionAnalyzing, current.Status)
}

func TestCompleteSession(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	id := store.CreateSession(ctx, "tomato", "")
	predictions := []entities.Prediction{
		{Label: "Late_blight", Confidence: 0.92},
		{Label: "healthy", Confidence: 0.05},
	}
	store.CompleteSession(ctx, id, predictions)

	current := store.GetCurrentSession(ctx)
	require.NotNil(t, current)
	assert.Equal(t, entities.SessionCompleted, current.Status)
	assert.Equal(t, predictions, current.Predictions)
}

func TestCompleteSessionStaleIDIsNoop(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	store.CreateSession(ctx, "tomato", "")
	store.CompleteSession(ctx, "some-old-id", []entities.Prediction{{Label: "x", Confidence: 1}})

	current := store.GetCurrentSession(ctx)
	require.NotNil(t, current)
	assert.Equal(t, entities.SessionAnalyzing, current.Status)
	assert.Empty(t, current.Predictions)
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	id := store.CreateSession(ctx, "tomato", "")
	store.CompleteSession(ctx, id, []entities.Prediction{{Label: "Late_blight", Confidence: 0.9}})

	// A failure reported after completion must not win.
	store.FailSession(ctx, id, "late failure")
	current := store.GetCurrentSession(ctx)
	require.NotNil(t, current)
	assert.Equal(t, entities.SessionCompleted, current.Status)
	assert.Empty(t, current.FailureReason)

	// And a terminal failed session stays failed.
	id2 := store.CreateSession(ctx, "corn", "")
	store.FailSession(ctx, id2, "network down")
	store.CompleteSession(ctx, id2, []entities.Prediction{{Label: "x", Confidence: 1}})
	current = store.GetCurrentSession(ctx)
	require.NotNil(t, current)
	assert.Equal(t, entities.SessionFailed, current.Status)
	assert.Equal(t, "network down", current.FailureReason)
}

func TestExpiredSessionIsDeletedOnRead(t *testing.T) {
	store, backend := newTestStore()
	ctx := context.Background()

	stale := entities.DiagnosisSession{
		ID:            "old",
		CreatedAt:     time.Now().Add(-25 * time.Hour).UnixMilli(),
		PlantCategory: "tomato",
		Status:        entities.SessionCompleted,
	}
	raw, err := json.Marshal(&stale)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, "diagnosis:session", raw, 0))

	assert.Nil(t, store.GetCurrentSession(ctx))

	keys, err := backend.Keys(ctx, "diagnosis:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCorruptedSessionIsDiscarded(t *testing.T) {
	store, backend := newTestStore()
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "diagnosis:session", []byte("{not json"), 0))
	assert.Nil(t, store.GetCurrentSession(ctx))
}

func TestEnrichmentRoundTrip(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	id := store.CreateSession(ctx, "tomato", "")
	items := []entities.EnrichedDisease{
		{DiseaseName: "Late blight", ConfidencePercent: 92},
		{DiseaseName: "Early blight", ConfidencePercent: 5},
	}
	store.CacheEnrichment(ctx, id, items)

	got := store.GetEnrichment(ctx, id)
	assert.Equal(t, items, got)

	// Enrichment for an unknown session is absent.
	assert.Nil(t, store.GetEnrichment(ctx, "other"))
}

func TestExpiredEnrichmentIsDeletedOnRead(t *testing.T) {
	store, backend := newTestStore()
	ctx := context.Background()

	record := entities.EnrichmentRecord{
		SessionID: "sess",
		Items:     []entities.EnrichedDisease{{DiseaseName: "Late blight"}},
		CachedAt:  time.Now().Add(-2 * time.Hour).UnixMilli(),
	}
	raw, err := json.Marshal(&record)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, "diagnosis:enrichment:sess", raw, 0))

	assert.Nil(t, store.GetEnrichment(ctx, "sess"))

	keys, err := backend.Keys(ctx, "diagnosis:enrichment:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestClearSession(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	store.CreateSession(ctx, "tomato", "")
	store.ClearSession(ctx)
	assert.Nil(t, store.GetCurrentSession(ctx))
}

func TestSweepExpired(t *testing.T) {
	store, backend := newTestStore()
	ctx := context.Background()

	// Live session stays.
	liveID := store.CreateSession(ctx, "tomato", "")
	store.CacheEnrichment(ctx, liveID, []entities.EnrichedDisease{{DiseaseName: "Late blight"}})

	// Stale enrichment from a superseded session goes.
	stale := entities.EnrichmentRecord{
		SessionID: "old",
		CachedAt:  time.Now().Add(-2 * time.Hour).UnixMilli(),
	}
	raw, err := json.Marshal(&stale)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, "diagnosis:enrichment:old", raw, 0))

	// Corrupted entries go too.
	require.NoError(t, backend.Set(ctx, "diagnosis:enrichment:garbage", []byte("???"), 0))

	store.SweepExpired(ctx)

	keys, err := backend.Keys(ctx, "diagnosis:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"diagnosis:session", "diagnosis:enrichment:" + liveID}, keys)
}

func TestStorageFaultsDoNotPropagate(t *testing.T) {
	store := NewStore(&faultyBackend{}, &config.SessionConfig{
		SessionTTL:    24 * time.Hour,
		EnrichmentTTL: time.Hour,
	})
	ctx := context.Background()

	// None of these may panic or surface an error.
	id := store.CreateSession(ctx, "tomato", "img")
	assert.NotEmpty(t, id)
	store.CompleteSession(ctx, id, []entities.Prediction{{Label: "x", Confidence: 1}})
	store.FailSession(ctx, id, "reason")
	store.CacheEnrichment(ctx, id, nil)
	store.ClearSession(ctx)
	store.SweepExpired(ctx)

	assert.Nil(t, store.GetCurrentSession(ctx))
	assert.Nil(t, store.GetEnrichment(ctx, id))
}
