package application

import (
	"context"
	"fmt"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// DefaultRetentionDays is how long synchronized records are kept when cleanup is not told otherwise
const DefaultRetentionDays = 90

// AuthStatusReader reports per-store authentication state
type AuthStatusReader interface {
	AuthStatus(ctx context.Context) ([]domain.TokenStatusReport, error)
}

// StatsQuery selects what GetStats aggregates
type StatsQuery struct {
	Range            domain.Range
	StoreIDs         []string // empty means every store
	Live             bool     // aggregate freshly fetched upstream data instead of stored records
	PerStoreProducts bool
}

// StatsService answers the read-side operations: stats, sync status and retention cleanup
type StatsService struct {
	stores        *domain.StoreDirectory
	repo          ports.SalesRepository
	syncLog       ports.SyncLogRepository
	auth          AuthStatusReader
	tokens        ports.TokenProvider
	fetcher       ports.Fetcher
	logger        zerolog.Logger
	retentionDays int
	now           func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(
	stores *domain.StoreDirectory,
	repo ports.SalesRepository,
	syncLog ports.SyncLogRepository,
	auth AuthStatusReader,
	tokens ports.TokenProvider,
	fetcher ports.Fetcher,
	logger zerolog.Logger,
	retentionDays int,
) *StatsService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &StatsService{
		stores:        stores,
		repo:          repo,
		syncLog:       syncLog,
		auth:          auth,
		tokens:        tokens,
		fetcher:       fetcher,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// GetStats aggregates sales for a range and store selection
func (s *StatsService) GetStats(ctx context.Context, q StatsQuery) (*domain.Stats, error) {
	for _, id := range q.StoreIDs {
		if _, ok := s.stores.Get(id); !ok {
			return nil, domain.NewValidationError("unknown store %s", id)
		}
	}
	opts := domain.StatsOptions{PerStoreProducts: q.PerStoreProducts, Names: s.stores}

	if q.Live {
		return s.liveStats(ctx, q, opts)
	}

	raw, err := s.repo.QueryStats(ctx, q.Range, q.StoreIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	orders, err := s.repo.ListOrders(ctx, q.Range, q.StoreIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	keys := make([]domain.OrderKey, 0, len(orders))
	for i := range orders {
		keys = append(keys, orders[i].Key())
	}

	var products []domain.ProductLine
	if len(keys) > 0 {
		products, err = s.repo.ListProducts(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
	}

	stats := domain.StatsFromAggregates(raw, products, opts)
	return &stats, nil
}

// liveStats fetches orders and product lines of every selected active store and
// aggregates them without touching storage. Stores whose fetch fails are left out.
func (s *StatsService) liveStats(ctx context.Context, q StatsQuery, opts domain.StatsOptions) (*domain.Stats, error) {
	var (
		orders   []domain.Order
		products []domain.ProductLine
	)
	for _, store := range s.stores.Active(q.StoreIDs...) {
		token, err := s.tokens.GetToken(ctx, store.StoreID, store.Email, store.Password)
		if err != nil {
			s.logger.Warn().Err(err).Str("storeId", store.StoreID).Msg("Live stats: failed to authenticate, skipping store")
			continue
		}
		ob, err := s.fetcher.FetchWithToken(ctx, domain.EndpointOrders, store, token, q.Range)
		if err != nil {
			s.logger.Warn().Err(err).Str("storeId", store.StoreID).Msg("Live stats: failed to fetch orders, skipping store")
			continue
		}
		pb, err := s.fetcher.FetchWithToken(ctx, domain.EndpointProducts, store, token, q.Range)
		if err != nil {
			s.logger.Warn().Err(err).Str("storeId", store.StoreID).Msg("Live stats: failed to fetch products, skipping store")
			continue
		}
		orders = append(orders, ob.Orders...)
		products = append(products, pb.Products...)
	}

	stats := domain.ComputeStats(orders, products, opts)
	return &stats, nil
}

// GetSyncStatus reports, for every configured store, its last sync, stored record
// counts and authentication state
func (s *StatsService) GetSyncStatus(ctx context.Context) (*domain.SyncStatus, error) {
	syncs, err := s.syncLog.ListStoreSyncs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list store syncs: %w", err)
	}
	lastSync := make(map[string]*domain.StoreSync, len(syncs))
	for _, entry := range syncs {
		lastSync[entry.StoreID] = entry
	}

	authByStore := make(map[string]domain.TokenStatusReport)
	if s.auth != nil {
		reports, err := s.auth.AuthStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read auth status: %w", err)
		}
		for _, r := range reports {
			authByStore[r.StoreID] = r
		}
	}

	status := &domain.SyncStatus{GeneratedAt: s.now()}
	for _, store := range s.stores.All() {
		counts, err := s.repo.CountRecords(ctx, store.StoreID)
		if err != nil {
			return nil, fmt.Errorf("failed to count records for store %s: %w", store.StoreID, err)
		}
		auth, ok := authByStore[store.StoreID]
		if !ok {
			auth = domain.NewTokenStatusReport(store, nil, status.GeneratedAt)
		}
		status.Stores = append(status.Stores, domain.StoreSyncStatus{
			StoreID:   store.StoreID,
			StoreName: store.StoreName,
			Active:    store.Active,
			LastSync:  lastSync[store.StoreID],
			Counts:    counts,
			Auth:      auth,
		})
	}
	return status, nil
}

// Cleanup deletes records older than retentionDays. Zero means the configured default.
func (s *StatsService) Cleanup(ctx context.Context, retentionDays int) (*domain.CleanupResult, error) {
	if retentionDays < 0 {
		return nil, domain.NewValidationError("retention days must be positive, got %d", retentionDays)
	}
	if retentionDays == 0 {
		retentionDays = s.retentionDays
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	result, err := s.repo.Cleanup(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to clean up records: %w", err)
	}

	s.logger.Info().
		Int("retentionDays", retentionDays).
		Time("cutoff", cutoff).
		Int64("orders", result.OrdersDeleted).
		Int64("products", result.ProductsDeleted).
		Int64("sessions", result.SessionsDeleted).
		Msg("Cleaned up old records")
	return result, nil
}
