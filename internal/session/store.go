package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plantmd/backend/internal/domain/entities"
	"github.com/plantmd/backend/internal/domain/providers"
	"github.com/plantmd/backend/pkg/config"
)

const (
	keyPrefix           = "diagnosis:"
	sessionKey          = keyPrefix + "session"
	enrichmentKeyPrefix = keyPrefix + "enrichment:"
)

// Store persists the single live DiagnosisSession plus per-session
// enrichment records, each class with its own wall-clock TTL. All
// operations are best effort: a failing backend is logged and surfaces as
// "absent" or a no-op, never as an error to the caller — the pipeline must
// keep working when storage is unavailable.
type Store struct {
	backend       providers.CacheProvider
	sessionTTL    time.Duration
	enrichmentTTL time.Duration
}

// NewStore creates a session store over the given backend.
func NewStore(backend providers.CacheProvider, cfg *config.SessionConfig) *Store {
	return &Store{
		backend:       backend,
		sessionTTL:    cfg.SessionTTL,
		enrichmentTTL: cfg.EnrichmentTTL,
	}
}

// CreateSession starts a fresh session in the analyzing state, replacing
// any prior session wholesale. The prior session's enrichment records are
// left to the expiry sweep.
func (s *Store) CreateSession(ctx context.Context, plantCategory, sourceImage string) string {
	sess := &entities.DiagnosisSession{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UnixMilli(),
		PlantCategory: plantCategory,
		SourceImage:   sourceImage,
		Predictions:   []entities.Prediction{},
		Status:        entities.SessionAnalyzing,
	}
	s.saveSession(ctx, sess)
	return sess.ID
}

// CompleteSession writes the prediction list and moves the session to
// completed. A stale session id or a session no longer in the analyzing
// state makes this a logged no-op, which is what guards against writes
// from a superseded attempt.
func (s *Store) CompleteSession(ctx context.Context, sessionID string, predictions []entities.Prediction) {
	sess := s.matchCurrent(ctx, sessionID)
	if sess == nil {
		return
	}
	sess.Predictions = predictions
	sess.Status = entities.SessionCompleted
	s.saveSession(ctx, sess)
}

// FailSession records the failure reason and moves the session to failed.
// Stale ids are ignored the same way as in CompleteSession.
func (s *Store) FailSession(ctx context.Context, sessionID, reason string) {
	sess := s.matchCurrent(ctx, sessionID)
	if sess == nil {
		return
	}
	sess.Status = entities.SessionFailed
	sess.FailureReason = reason
	s.saveSession(ctx, sess)
}

// GetCurrentSession returns the live session, or nil when there is none.
// An expired session is deleted as a side effect of the check.
func (s *Store) GetCurrentSession(ctx context.Context) *entities.DiagnosisSession {
	raw, err := s.backend.Get(ctx, sessionKey)
	if err != nil {
		return nil
	}

	var sess entities.DiagnosisSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		log.Warn().Err(err).Msg("discarding corrupted session record")
		s.delete(ctx, sessionKey)
		return nil
	}

	if s.expired(sess.CreatedAt, s.sessionTTL) {
		s.ClearSession(ctx)
		return nil
	}

	return &sess
}

// CacheEnrichment stores the enriched results for a session under its own
// (shorter) expiry.
func (s *Store) CacheEnrichment(ctx context.Context, sessionID string, items []entities.EnrichedDisease) {
	record := &entities.EnrichmentRecord{
		SessionID: sessionID,
		Items:     items,
		CachedAt:  time.Now().UnixMilli(),
	}

	raw, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode enrichment record")
		return
	}
	if err := s.backend.Set(ctx, enrichmentKeyPrefix+sessionID, raw, s.enrichmentTTL); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to cache enrichment record")
	}
}

// GetEnrichment returns the cached enriched results for a session, or nil
// when absent or stale. A stale record is deleted as a side effect.
func (s *Store) GetEnrichment(ctx context.Context, sessionID string) []entities.EnrichedDisease {
	key := enrichmentKeyPrefix + sessionID
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil
	}

	var record entities.EnrichmentRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		log.Warn().Err(err).Msg("discarding corrupted enrichment record")
		s.delete(ctx, key)
		return nil
	}

	if s.expired(record.CachedAt, s.enrichmentTTL) {
		s.delete(ctx, key)
		return nil
	}

	return record.Items
}

// ClearSession removes the current session. Its enrichment records are
// left for the expiry sweep.
func (s *Store) ClearSession(ctx context.Context) {
	s.delete(ctx, sessionKey)
}

// SweepExpired deletes every stored record past its class TTL, along with
// anything unparseable.
func (s *Store) SweepExpired(ctx context.Context) {
	keys, err := s.backend.Keys(ctx, keyPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("expiry sweep could not list keys")
		return
	}

	for _, key := range keys {
		raw, err := s.backend.Get(ctx, key)
		if err != nil {
			continue
		}

		var stamped struct {
			CreatedAt int64 `json:"timestamp"`
			CachedAt  int64 `json:"cachedAt"`
		}
		if err := json.Unmarshal(raw, &stamped); err != nil {
			log.Warn().Str("key", key).Msg("sweep removing corrupted record")
			s.delete(ctx, key)
			continue
		}

		ttl := s.enrichmentTTL
		createdAt := stamped.CachedAt
		if !strings.HasPrefix(key, enrichmentKeyPrefix) {
			ttl = s.sessionTTL
			createdAt = stamped.CreatedAt
		}

		if createdAt == 0 || s.expired(createdAt, ttl) {
			s.delete(ctx, key)
		}
	}
}

// matchCurrent loads the current session if it matches the given id and is
// still mutable.
func (s *Store) matchCurrent(ctx context.Context, sessionID string) *entities.DiagnosisSession {
	sess := s.GetCurrentSession(ctx)
	if sess == nil || sess.ID != sessionID {
		log.Debug().Str("session_id", sessionID).Msg("ignoring write against stale session")
		return nil
	}
	if sess.Status != entities.SessionAnalyzing {
		log.Debug().Str("session_id", sessionID).Str("status", string(sess.Status)).
			Msg("ignoring write against terminal session")
		return nil
	}
	return sess
}

func (s *Store) saveSession(ctx context.Context, sess *entities.DiagnosisSession) {
	raw, err := json.Marshal(sess)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode session")
		return
	}
	if err := s.backend.Set(ctx, sessionKey, raw, s.sessionTTL); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to save session")
	}
}

func (s *Store) delete(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to delete record")
	}
}

func (s *Store) expired(createdAtMillis int64, ttl time.Duration) bool {
	age := time.Since(time.UnixMilli(createdAtMillis))
	return age > ttl
}
