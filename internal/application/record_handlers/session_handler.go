package record_handlers

import (
	"context"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// SessionHandler persists POS session batches
type SessionHandler struct {
	repo    ports.SalesRepository
	metrics ports.SyncMetrics
	logger  zerolog.Logger
}

// NewSessionHandler creates a new session record handler
func NewSessionHandler(repo ports.SalesRepository, metrics ports.SyncMetrics, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		repo:    repo,
		metrics: orNop(metrics),
		logger:  logger,
	}
}

// CanHandle returns true for the sessions endpoint
func (h *SessionHandler) CanHandle(endpoint domain.Endpoint) bool {
	return endpoint == domain.EndpointSessions
}

// Handle upserts every session of the batch. Session IDs are global, so a session
// reported by two stores ends up attributed to whichever was written last.
func (h *SessionHandler) Handle(ctx context.Context, batch *domain.Batch, syncedAt time.Time) PersistResult {
	var result PersistResult
	for i := range batch.Sessions {
		session := batch.Sessions[i]
		session.SyncedAt = syncedAt

		var perr error
		if err := h.repo.UpsertSession(ctx, &session); err != nil {
			perr = &domain.PersistenceError{Entity: "session", Key: session.SessionID, Err: err}
			h.metrics.ObservePersistFailure("session")
			h.logger.Error().
				Err(err).
				Str("storeId", session.StoreID).
				Str("sessionId", session.SessionID).
				Msg("Failed to persist session")
		}
		result.record(perr)
	}

	h.logger.Debug().
		Str("storeId", batch.StoreID).
		Str("source", string(batch.Source)).
		Int("persisted", result.Persisted).
		Int("failed", result.Failed).
		Msg("Processed session batch")
	return result
}
