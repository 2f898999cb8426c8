package ports

import (
	"context"
	"time"

	"linisco-sync-layer/internal/domain"
)

// TokenCache is the in-process token tier, keyed by store ID
type TokenCache interface {
	Get(storeID string) (*domain.Token, bool)
	Set(token *domain.Token)
	Delete(storeID string)
}

// AuthLocker serializes fresh authentications per store
type AuthLocker interface {
	// Lock blocks until the store's lock is held or ctx is done
	Lock(ctx context.Context, storeID string) (unlock func(), err error)
}

// SyncEventPublisher receives sync progress events
type SyncEventPublisher interface {
	Publish(event *domain.SyncEvent)
}

// SyncMetrics records sync instrumentation
type SyncMetrics interface {
	ObserveAuth(outcome string)
	ObserveFetch(endpoint domain.Endpoint, source domain.Source, err error)
	ObserveStoreSync(storeID string, success bool, records int, elapsed time.Duration)
	ObservePersistFailure(entity string)
}
