package record_handlers

import (
	"context"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OrderHandler persists sale order batches
type OrderHandler struct {
	repo    ports.SalesRepository
	metrics ports.SyncMetrics
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order record handler
func NewOrderHandler(repo ports.SalesRepository, metrics ports.SyncMetrics, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		repo:    repo,
		metrics: orNop(metrics),
		logger:  logger,
	}
}

// CanHandle returns true for the sale orders endpoint
func (h *OrderHandler) CanHandle(endpoint domain.Endpoint) bool {
	return endpoint == domain.EndpointOrders
}

// Handle upserts every order of the batch
func (h *OrderHandler) Handle(ctx context.Context, batch *domain.Batch, syncedAt time.Time) PersistResult {
	var result PersistResult
	for i := range batch.Orders {
		order := batch.Orders[i]
		order.SyncedAt = syncedAt

		var perr error
		if err := h.repo.UpsertOrder(ctx, &order); err != nil {
			perr = &domain.PersistenceError{Entity: "order", Key: order.StoreID + "/" + order.OrderID, Err: err}
			h.metrics.ObservePersistFailure("order")
			h.logger.Error().
				Err(err).
				Str("storeId", order.StoreID).
				Str("orderId", order.OrderID).
				Msg("Failed to persist order")
		}
		result.record(perr)
	}

	h.logger.Debug().
		Str("storeId", batch.StoreID).
		Str("source", string(batch.Source)).
		Int("persisted", result.Persisted).
		Int("failed", result.Failed).
		Msg("Processed order batch")
	return result
}
