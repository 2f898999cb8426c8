package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linisco-sync-layer/internal/application"
	"linisco-sync-layer/internal/application/record_handlers"
	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/cache"
	"linisco-sync-layer/internal/infrastructure/linisco"
	"linisco-sync-layer/internal/infrastructure/lock"
	"linisco-sync-layer/internal/infrastructure/metrics"
	"linisco-sync-layer/internal/infrastructure/pubsub"
	"linisco-sync-layer/internal/infrastructure/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Status  int             `json:"status"`
}

const syntheticDay = "fromDate=2025-10-17&toDate=2025-10-17"

// newTestRouter wires the real services against an upstream that is always unavailable,
// so every store runs on demo tokens and the synthetic dataset
func newTestRouter(t *testing.T) (http.Handler, *pubsub.SyncPubSub) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	logger := zerolog.Nop()
	stores := domain.NewStoreDirectory([]domain.Store{
		{StoreID: "63953", StoreName: "Lacroze", Email: "lacroze@example.com", Password: "secret-a", Active: true},
		{StoreID: "66220", StoreName: "Corrientes", Email: "corrientes@example.com", Password: "secret-b", Active: true},
	})
	repo := repository.NewMemoryRepository()
	reg := prometheus.NewRegistry()
	m := metrics.NewSyncMetrics(reg)

	client := linisco.NewClient(upstream.URL, time.Second, logger)
	creds := application.NewCredentialsService(stores, repo, cache.NewTokenCache(), lock.NewLocalLocker(), client, m, logger, application.CredentialsConfig{})
	fetcher := linisco.NewFetcher(client, creds, logger)

	dispatcher := application.NewRecordDispatcher(logger)
	dispatcher.RegisterHandler(record_handlers.NewOrderHandler(repo, m, logger))
	dispatcher.RegisterHandler(record_handlers.NewProductHandler(repo, m, logger))
	dispatcher.RegisterHandler(record_handlers.NewSessionHandler(repo, m, logger))

	events := pubsub.NewSyncPubSub(logger)
	syncSvc := application.NewSyncService(stores, creds, fetcher, dispatcher, repo, events, m, logger, 2)
	statsSvc := application.NewStatsService(stores, repo, repo, creds, creds, fetcher, logger, 0)

	return NewRouter(Dependencies{
		Stores:  stores,
		Sync:    syncSvc,
		Stats:   statsSvc,
		Auth:    creds,
		Events:  events,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, logger), events
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStoresHidePasswords(t *testing.T) {
	h, _ := newTestRouter(t)
	rec, env := do(t, h, http.MethodGet, "/api/stores")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var stores []domain.Store
	require.NoError(t, json.Unmarshal(env.Data, &stores))
	assert.Len(t, stores, 2)
	assert.NotContains(t, rec.Body.String(), "secret-a")
}

func TestSyncStatsAndStatusFlow(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := do(t, h, http.MethodPost, "/api/sync?"+syntheticDay)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fleet domain.FleetResult
	require.NoError(t, json.Unmarshal(env.Data, &fleet))
	assert.Equal(t, 2, fleet.Successful)
	assert.Equal(t, 26, fleet.TotalRecords)
	assert.Equal(t, domain.SourceSynthetic, fleet.PerStore[0].Orders.Source)

	rec, env = do(t, h, http.MethodPost, "/api/sync/63953?"+syntheticDay)
	require.Equal(t, http.StatusOK, rec.Code)
	var one domain.SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &one))
	assert.True(t, one.Success)

	rec, env = do(t, h, http.MethodGet, "/api/stats?"+syntheticDay)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(10), stats.TotalOrders, "re-syncing a store does not duplicate orders")
	assert.InDelta(t, 26400, stats.TotalRevenue, 0.001)

	rec, env = do(t, h, http.MethodGet, "/api/stats?stores=66220&live=true&"+syntheticDay)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(5), stats.TotalOrders)

	rec, env = do(t, h, http.MethodGet, "/api/sync/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.SyncStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	require.Len(t, status.Stores, 2)
	require.NotNil(t, status.Stores[0].LastSync)
	assert.Equal(t, int64(5), status.Stores[0].Counts.Orders)

	rec, _ = do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "linisco_store_sync_total")
}

func TestValidationErrorsAreBadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	targets := []struct{ method, target string }{
		{http.MethodPost, "/api/sync"},
		{http.MethodPost, "/api/sync?fromDate=2025-10-18&toDate=2025-10-17"},
		{http.MethodPost, "/api/sync/unknown?" + syntheticDay},
		{http.MethodPost, "/api/sync?stores=unknown&" + syntheticDay},
		{http.MethodGet, "/api/stats?fromDate=yesterday&toDate=2025-10-17"},
		{http.MethodGet, "/api/stats?live=maybe&" + syntheticDay},
		{http.MethodPost, "/api/cleanup?days=abc"},
		{http.MethodPost, "/api/cleanup?days=0"},
	}
	for _, tc := range targets {
		rec, env := do(t, h, tc.method, tc.target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.target)
		assert.False(t, env.Success, tc.target)
		assert.Equal(t, http.StatusBadRequest, env.Status, tc.target)
		assert.NotEmpty(t, env.Error, tc.target)
	}
}

func TestCleanupAndAuthRefresh(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := do(t, h, http.MethodPost, "/api/cleanup?days=30")
	require.Equal(t, http.StatusOK, rec.Code)
	var cleanup domain.CleanupResult
	require.NoError(t, json.Unmarshal(env.Data, &cleanup))
	assert.Zero(t, cleanup.OrdersDeleted)

	rec, env = do(t, h, http.MethodPost, "/api/auth/refresh?force=true")
	require.Equal(t, http.StatusOK, rec.Code)
	var outcomes []application.AuthOutcome
	require.NoError(t, json.Unmarshal(env.Data, &outcomes))
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Success)
	assert.True(t, outcomes[0].Demo)

	rec, env = do(t, h, http.MethodGet, "/api/auth/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var reports []domain.TokenStatusReport
	require.NoError(t, json.Unmarshal(env.Data, &reports))
	assert.Len(t, reports, 2)
}

func TestSyncEventsStream(t *testing.T) {
	h, events := newTestRouter(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/sync/events?type=fleet_finished", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	events.Publish(&domain.SyncEvent{Type: domain.SyncEventStoreStarted, RunID: "filtered-out"})
	events.Publish(&domain.SyncEvent{Type: domain.SyncEventFleetFinished, RunID: "run-1", Success: true})

	var data string
	for data == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	var event domain.SyncEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, domain.SyncEventFleetFinished, event.Type)
}
