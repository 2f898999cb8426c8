package ports

import (
	"context"
	"time"

	"linisco-sync-layer/internal/domain"
)

// TokenRepository defines the interface for persisted upstream tokens.
// The store ID is the natural key: one row per store.
type TokenRepository interface {
	// GetToken retrieves the token of a store, or nil if none was ever saved
	GetToken(ctx context.Context, storeID string) (*domain.Token, error)

	// SaveToken inserts or overwrites the token row of its store
	SaveToken(ctx context.Context, token *domain.Token) error

	// UpdateTokenStatus changes the status of a store's token row, if present
	UpdateTokenStatus(ctx context.Context, storeID string, status domain.TokenStatus) error

	// ListTokens returns every persisted token
	ListTokens(ctx context.Context) ([]*domain.Token, error)

	// ExpireTokens marks active tokens whose expiry is not after now as expired
	ExpireTokens(ctx context.Context, now time.Time) (int64, error)
}

// SalesRepository defines the interface for the normalized POS records
type SalesRepository interface {
	// UpsertOrder writes an order keyed by (orderId, storeId), replacing every field
	UpsertOrder(ctx context.Context, order *domain.Order) error

	// UpsertProduct writes a product line keyed by (line key, storeId)
	UpsertProduct(ctx context.Context, product *domain.ProductLine) error

	// UpsertSession writes a session keyed by its session ID alone
	UpsertSession(ctx context.Context, session *domain.Session) error

	// ListOrders returns the orders dated inside the range, optionally restricted to stores
	ListOrders(ctx context.Context, r domain.Range, storeIDs []string) ([]domain.Order, error)

	// ListProducts returns the product lines of the given orders
	ListProducts(ctx context.Context, orders []domain.OrderKey) ([]domain.ProductLine, error)

	// QueryStats returns order counts and net revenue grouped by payment method and store
	QueryStats(ctx context.Context, r domain.Range, storeIDs []string) (*domain.RawAggregates, error)

	// CountRecords returns how many records of each kind a store has
	CountRecords(ctx context.Context, storeID string) (domain.RecordCounts, error)

	// Cleanup deletes records older than cutoff, table by table
	Cleanup(ctx context.Context, cutoff time.Time) (*domain.CleanupResult, error)
}

// SyncLogRepository defines the interface for per-store sync bookkeeping
type SyncLogRepository interface {
	// RecordSync overwrites the last sync entry of a store
	RecordSync(ctx context.Context, entry *domain.StoreSync) error

	// ListStoreSyncs returns the last sync entry of every store that has one
	ListStoreSyncs(ctx context.Context) ([]*domain.StoreSync, error)
}
