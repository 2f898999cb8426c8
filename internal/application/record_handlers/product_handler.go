package record_handlers

import (
	"context"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ProductHandler persists sale product batches. Lines are written even when their
// order is unknown locally; the order reference is not enforced.
type ProductHandler struct {
	repo    ports.SalesRepository
	metrics ports.SyncMetrics
	logger  zerolog.Logger
}

// NewProductHandler creates a new product record handler
func NewProductHandler(repo ports.SalesRepository, metrics ports.SyncMetrics, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		repo:    repo,
		metrics: orNop(metrics),
		logger:  logger,
	}
}

// CanHandle returns true for the sale products endpoint
func (h *ProductHandler) CanHandle(endpoint domain.Endpoint) bool {
	return endpoint == domain.EndpointProducts
}

// Handle upserts every product line of the batch
func (h *ProductHandler) Handle(ctx context.Context, batch *domain.Batch, syncedAt time.Time) PersistResult {
	var result PersistResult
	for i := range batch.Products {
		product := batch.Products[i]
		product.SyncedAt = syncedAt

		var perr error
		if err := h.repo.UpsertProduct(ctx, &product); err != nil {
			perr = &domain.PersistenceError{Entity: "product", Key: product.StoreID + "/" + product.LineKey(), Err: err}
			h.metrics.ObservePersistFailure("product")
			h.logger.Error().
				Err(err).
				Str("storeId", product.StoreID).
				Str("lineKey", product.LineKey()).
				Msg("Failed to persist product line")
		}
		result.record(perr)
	}

	h.logger.Debug().
		Str("storeId", batch.StoreID).
		Str("source", string(batch.Source)).
		Int("persisted", result.Persisted).
		Int("failed", result.Failed).
		Msg("Processed product batch")
	return result
}
