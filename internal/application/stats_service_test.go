package application

import (
	"context"
	"testing"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededStats syncs stores A and B from the synthetic dataset into a fresh repository
func seededStats(t *testing.T) (*StatsService, *repository.MemoryRepository, *stubFetcher) {
	t.Helper()
	f := newSyncFixture(1)
	_, err := f.svc.SyncFleet(context.Background(), syntheticDay(t), "A", "B")
	require.NoError(t, err)

	svc := NewStatsService(
		domain.NewStoreDirectory(testStores),
		f.repo,
		f.repo,
		nil,
		f.tokens,
		f.fetcher,
		zerolog.Nop(),
		0,
	)
	return svc, f.repo, f.fetcher
}

func TestGetStatsFromStoredRecords(t *testing.T) {
	svc, _, _ := seededStats(t)
	ctx := context.Background()

	stats, err := svc.GetStats(ctx, StatsQuery{Range: syntheticDay(t)})
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalOrders)
	assert.InDelta(t, 26400, stats.TotalRevenue, 0.001)
	assert.InDelta(t, 2640, stats.AverageOrderValue, 0.001)
	require.Len(t, stats.StoreBreakdown, 2)
	assert.Len(t, stats.TopProducts, domain.TopProductsLimit)
	assert.Equal(t, "Helado 1/2 Kilo", stats.TopProducts[0].Name)

	var total float64
	for _, p := range stats.PaymentBreakdown {
		total += p.TotalAmount
	}
	assert.InDelta(t, stats.TotalRevenue, total, 0.001)

	one, err := svc.GetStats(ctx, StatsQuery{Range: syntheticDay(t), StoreIDs: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), one.TotalOrders)
	assert.InDelta(t, 13200, one.TotalRevenue, 0.001)
	require.Len(t, one.StoreBreakdown, 1)
	assert.Equal(t, "Alpha", one.StoreBreakdown[0].StoreName)

	empty, err := svc.GetStats(ctx, StatsQuery{Range: domain.Range{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.Zero(t, empty.AverageOrderValue)
}

func TestGetStatsLiveSkipsStorage(t *testing.T) {
	f := newSyncFixture(1)
	svc := NewStatsService(domain.NewStoreDirectory(testStores), f.repo, f.repo, nil, f.tokens, f.fetcher, zerolog.Nop(), 0)

	stats, err := svc.GetStats(context.Background(), StatsQuery{Range: syntheticDay(t), StoreIDs: []string{"A"}, Live: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalOrders)
	assert.Equal(t, 1, f.fetcher.callsFor("A", domain.EndpointOrders))

	counts, err := f.repo.CountRecords(context.Background(), "A")
	require.NoError(t, err)
	assert.Zero(t, counts.Orders)
}

func TestGetStatsRejectsUnknownStore(t *testing.T) {
	svc, _, _ := seededStats(t)
	_, err := svc.GetStats(context.Background(), StatsQuery{Range: syntheticDay(t), StoreIDs: []string{"missing"}})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetSyncStatus(t *testing.T) {
	svc, _, _ := seededStats(t)

	status, err := svc.GetSyncStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Stores, len(testStores))

	a := status.Stores[0]
	assert.Equal(t, "A", a.StoreID)
	require.NotNil(t, a.LastSync)
	assert.True(t, a.LastSync.Success)
	assert.Equal(t, domain.RecordCounts{Orders: 5, Products: 6, Sessions: 2}, a.Counts)
	assert.Equal(t, domain.TokenPending, a.Auth.Status)

	c := status.Stores[2]
	assert.Nil(t, c.LastSync)
	assert.Zero(t, c.Counts.Orders)
	assert.False(t, status.Stores[3].Active)
}

func TestCleanup(t *testing.T) {
	svc, repo, _ := seededStats(t)
	ctx := context.Background()

	_, err := svc.Cleanup(ctx, -1)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	kept, err := svc.Cleanup(ctx, 100000)
	require.NoError(t, err)
	assert.Zero(t, kept.OrdersDeleted)

	svc.now = func() time.Time { return time.Now().AddDate(1, 0, 0) }
	result, err := svc.Cleanup(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.OrdersDeleted)
	assert.Equal(t, int64(12), result.ProductsDeleted)
	assert.Equal(t, int64(4), result.SessionsDeleted)

	counts, err := repo.CountRecords(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.RecordCounts{}, counts)
}
