package application

import (
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"
)

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
