package application

import (
	"context"
	"fmt"
	"time"

	"linisco-sync-layer/internal/application/record_handlers"
	"linisco-sync-layer/internal/domain"

	"github.com/rs/zerolog"
)

// RecordDispatcher routes fetched batches to the handler that persists their endpoint
type RecordDispatcher struct {
	handlers []record_handlers.RecordHandler
	logger   zerolog.Logger
}

// NewRecordDispatcher creates a new record dispatcher
func NewRecordDispatcher(logger zerolog.Logger) *RecordDispatcher {
	return &RecordDispatcher{logger: logger}
}

// RegisterHandler adds a handler. The first handler accepting an endpoint wins.
func (d *RecordDispatcher) RegisterHandler(h record_handlers.RecordHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch persists a batch through its endpoint's handler
func (d *RecordDispatcher) Dispatch(ctx context.Context, batch *domain.Batch, syncedAt time.Time) (record_handlers.PersistResult, error) {
	if batch == nil {
		return record_handlers.PersistResult{}, nil
	}
	for _, h := range d.handlers {
		if h.CanHandle(batch.Endpoint) {
			return h.Handle(ctx, batch, syncedAt), nil
		}
	}

	d.logger.Warn().Str("endpoint", string(batch.Endpoint)).Msg("No record handler registered")
	return record_handlers.PersistResult{}, fmt.Errorf("no handler registered for endpoint %s", batch.Endpoint)
}
