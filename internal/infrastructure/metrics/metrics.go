package metrics

import (
	"strconv"
	"time"

	"linisco-sync-layer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics holds the collectors of the sync layer. A nil *SyncMetrics records nothing.
type SyncMetrics struct {
	// Authentication attempts by outcome (cached, persisted, fresh, demo, failed)
	AuthTotal *prometheus.CounterVec

	// Endpoint reads by endpoint, source and result
	FetchTotal *prometheus.CounterVec

	// Store syncs
	StoreSyncTotal    *prometheus.CounterVec
	StoreSyncDuration *prometheus.HistogramVec
	RecordsPersisted  *prometheus.CounterVec
	LastSyncTimestamp *prometheus.GaugeVec

	// Failed record writes
	PersistFailuresTotal *prometheus.CounterVec
}

// NewSyncMetrics registers the collectors with reg
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)

	return &SyncMetrics{
		AuthTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linisco_auth_total",
				Help: "Token lookups by how they were resolved",
			},
			[]string{"outcome"},
		),

		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linisco_fetch_total",
				Help: "Upstream endpoint reads",
			},
			[]string{"endpoint", "source", "result"},
		),

		StoreSyncTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linisco_store_sync_total",
				Help: "Store synchronizations by result",
			},
			[]string{"store_id", "success"},
		),

		StoreSyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linisco_store_sync_duration_seconds",
				Help:    "Duration of a store synchronization",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"store_id"},
		),

		RecordsPersisted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linisco_records_persisted_total",
				Help: "Records written by store synchronizations",
			},
			[]string{"store_id"},
		),

		LastSyncTimestamp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "linisco_last_sync_timestamp_seconds",
				Help: "Unix time of the last store synchronization",
			},
			[]string{"store_id"},
		),

		PersistFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linisco_persist_failures_total",
				Help: "Records whose write failed",
			},
			[]string{"entity"},
		),
	}
}

// ObserveAuth counts a token lookup
func (m *SyncMetrics) ObserveAuth(outcome string) {
	if m == nil {
		return
	}
	m.AuthTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch counts an endpoint read
func (m *SyncMetrics) ObserveFetch(endpoint domain.Endpoint, source domain.Source, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		source = "none"
	}
	m.FetchTotal.WithLabelValues(string(endpoint), string(source), result).Inc()
}

// ObserveStoreSync records the outcome of a store synchronization
func (m *SyncMetrics) ObserveStoreSync(storeID string, success bool, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StoreSyncTotal.WithLabelValues(storeID, strconv.FormatBool(success)).Inc()
	m.StoreSyncDuration.WithLabelValues(storeID).Observe(elapsed.Seconds())
	m.RecordsPersisted.WithLabelValues(storeID).Add(float64(records))
	m.LastSyncTimestamp.WithLabelValues(storeID).SetToCurrentTime()
}

// ObservePersistFailure counts a failed record write
func (m *SyncMetrics) ObservePersistFailure(entity string) {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.WithLabelValues(entity).Inc()
}
