package record_handlers

import (
	"context"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"
)

// RecordHandler persists the records of one endpoint's batches
type RecordHandler interface {
	// CanHandle returns true if this handler persists batches of the given endpoint
	CanHandle(endpoint domain.Endpoint) bool

	// Handle writes every record of the batch, stamping it with syncedAt. One failed
	// write never stops the rest of the batch.
	Handle(ctx context.Context, batch *domain.Batch, syncedAt time.Time) PersistResult
}

// PersistResult counts the writes of one batch
type PersistResult struct {
	Persisted int
	Failed    int
	Errors    []error
}

func (r *PersistResult) record(err error) {
	if err != nil {
		r.Failed++
		r.Errors = append(r.Errors, err)
		return
	}
	r.Persisted++
}

type nopMetrics struct{}

func (nopMetrics) ObserveAuth(string)                                {}
func (nopMetrics) ObserveFetch(domain.Endpoint, domain.Source, error) {}
func (nopMetrics) ObserveStoreSync(string, bool, int, time.Duration)  {}
func (nopMetrics) ObservePersistFailure(string)                       {}

func orNop(m ports.SyncMetrics) ports.SyncMetrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
