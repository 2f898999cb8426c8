package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SyncService drives store and fleet synchronizations
type SyncService struct {
	stores     *domain.StoreDirectory
	tokens     ports.TokenProvider
	fetcher    ports.Fetcher
	dispatcher *RecordDispatcher
	syncLog    ports.SyncLogRepository
	events     ports.SyncEventPublisher
	metrics    ports.SyncMetrics
	logger     zerolog.Logger
	parallel   int
	now        func() time.Time
}

// NewSyncService creates a new sync service. A parallel value above 1 lets fleet
// syncs run that many stores at once; otherwise stores are synced one at a time.
func NewSyncService(
	stores *domain.StoreDirectory,
	tokens ports.TokenProvider,
	fetcher ports.Fetcher,
	dispatcher *RecordDispatcher,
	syncLog ports.SyncLogRepository,
	events ports.SyncEventPublisher,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
	parallel int,
) *SyncService {
	if parallel < 1 {
		parallel = 1
	}
	return &SyncService{
		stores:     stores,
		tokens:     tokens,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		syncLog:    syncLog,
		events:     events,
		metrics:    orNop(metrics),
		logger:     logger,
		parallel:   parallel,
		now:        time.Now,
	}
}

// SyncStore synchronizes one store. Only an unknown or inactive store is an error;
// everything that goes wrong while syncing is reported in the result.
func (s *SyncService) SyncStore(ctx context.Context, storeID string, r domain.Range) (*domain.SyncResult, error) {
	store, ok := s.stores.Get(storeID)
	if !ok {
		return nil, domain.NewValidationError("unknown store %s", storeID)
	}
	if !store.Active {
		return nil, domain.NewValidationError("store %s is inactive", storeID)
	}
	return s.syncStoreSafely(ctx, uuid.NewString(), store, r), nil
}

// SyncFleet synchronizes every active store, or the given subset of them.
// One store failing never stops the others.
func (s *SyncService) SyncFleet(ctx context.Context, r domain.Range, storeIDs ...string) (*domain.FleetResult, error) {
	for _, id := range storeIDs {
		if _, ok := s.stores.Get(id); !ok {
			return nil, domain.NewValidationError("unknown store %s", id)
		}
	}

	stores := s.stores.Active(storeIDs...)
	runID := uuid.NewString()
	started := s.now()
	results := make([]*domain.SyncResult, len(stores))

	s.logger.Info().
		Str("runId", runID).
		Int("stores", len(stores)).
		Int("parallel", s.parallel).
		Str("from", r.FromParam()).
		Str("to", r.ToParam()).
		Msg("Starting fleet sync")

	if s.parallel > 1 {
		var g errgroup.Group
		g.SetLimit(s.parallel)
		for i, store := range stores {
			i, store := i, store
			g.Go(func() error {
				results[i] = s.syncStoreSafely(ctx, runID, store, r)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, store := range stores {
			results[i] = s.syncStoreSafely(ctx, runID, store, r)
		}
	}

	fleet := &domain.FleetResult{
		RunID:    runID,
		Range:    r,
		PerStore: results,
	}
	for _, res := range results {
		fleet.TotalRecords += res.Persisted()
		if res.Success {
			fleet.Successful++
		} else {
			fleet.Failed++
		}
	}
	fleet.DurationMS = s.now().Sub(started).Milliseconds()

	s.publish(&domain.SyncEvent{
		Type:     domain.SyncEventFleetFinished,
		RunID:    runID,
		Success:  fleet.Failed == 0,
		Records:  fleet.TotalRecords,
		Occurred: s.now(),
	})

	s.logger.Info().
		Str("runId", runID).
		Int("successful", fleet.Successful).
		Int("failed", fleet.Failed).
		Int("records", fleet.TotalRecords).
		Int64("durationMs", fleet.DurationMS).
		Msg("Fleet sync finished")

	return fleet, nil
}

// syncStoreSafely turns a panic while syncing a store into a failed result
func (s *SyncService) syncStoreSafely(ctx context.Context, runID string, store domain.Store, r domain.Range) (result *domain.SyncResult) {
	started := s.now()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Str("storeId", store.StoreID).
				Interface("panic", rec).
				Msg("Store sync panicked")
			result = s.newResult(runID, store, r, started)
			result.Errors = append(result.Errors, fmt.Sprintf("panic: %v", rec))
			s.finish(ctx, result, started)
		}
	}()
	return s.syncStore(ctx, runID, store, r)
}

func (s *SyncService) syncStore(ctx context.Context, runID string, store domain.Store, r domain.Range) *domain.SyncResult {
	started := s.now()
	result := s.newResult(runID, store, r, started)

	s.publish(&domain.SyncEvent{
		Type:     domain.SyncEventStoreStarted,
		RunID:    runID,
		StoreID:  store.StoreID,
		Occurred: started,
	})

	// preflight, so rejected credentials fail the store without any fetch.
	// The endpoints then share this token instead of each looking one up.
	token, err := s.tokens.GetToken(ctx, store.StoreID, store.Email, store.Password)
	if err != nil {
		s.logger.Error().Err(err).Str("storeId", store.StoreID).Msg("Store authentication failed")
		for _, ep := range domain.Endpoints {
			result.Outcome(ep).Error = err.Error()
		}
		result.Errors = append(result.Errors, err.Error())
		s.finish(ctx, result, started)
		return result
	}

	shared := &storeToken{token: token}
	batches := make([]*domain.Batch, len(domain.Endpoints))
	var g errgroup.Group
	for i, ep := range domain.Endpoints {
		i, ep := i, ep
		g.Go(func() error {
			outcome := result.Outcome(ep)
			defer func() {
				if rec := recover(); rec != nil {
					s.logger.Error().
						Str("storeId", store.StoreID).
						Str("endpoint", string(ep)).
						Interface("panic", rec).
						Msg("Fetch panicked")
					outcome.Error = fmt.Sprintf("panic: %v", rec)
				}
			}()

			batch, retried, err := s.fetch(ctx, ep, store, shared, r)
			outcome.Retried = retried
			if err != nil {
				outcome.Error = err.Error()
				if fe, ok := asFetchError(err); ok {
					outcome.Status = fe.Status
				}
				return nil
			}
			outcome.Source = batch.Source
			outcome.Fetched = batch.Len()
			batches[i] = batch
			return nil
		})
	}
	_ = g.Wait()

	syncedAt := s.now()
	for i, ep := range domain.Endpoints {
		outcome := result.Outcome(ep)
		if outcome.Error != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", ep, outcome.Error))
			continue
		}
		if batches[i].Len() == 0 {
			continue
		}
		persisted, err := s.dispatcher.Dispatch(ctx, batches[i], syncedAt)
		if err != nil {
			outcome.Error = err.Error()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", ep, err))
			continue
		}
		outcome.Persisted = persisted.Persisted
		outcome.Failed = persisted.Failed
	}

	result.Success = result.Orders.OK() && result.Products.OK() && result.Sessions.OK()
	s.finish(ctx, result, started)
	return result
}

// storeToken is the token shared by the endpoint fetches of one store sync
type storeToken struct {
	mu    sync.Mutex
	token *domain.Token
}

func (t *storeToken) get() *domain.Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// fetch reads one endpoint, retrying once with a fresh token if the upstream rejected the current one
func (s *SyncService) fetch(ctx context.Context, ep domain.Endpoint, store domain.Store, shared *storeToken, r domain.Range) (*domain.Batch, bool, error) {
	used := shared.get()
	batch, err := s.fetcher.FetchWithToken(ctx, ep, store, used, r)
	if err == nil || !domain.IsUnauthorizedFetch(err) {
		s.observeFetch(ep, batch, err)
		return batch, false, err
	}

	s.logger.Warn().
		Err(err).
		Str("storeId", store.StoreID).
		Str("endpoint", string(ep)).
		Msg("Token rejected, re-authenticating and retrying once")

	fresh, err := s.refresh(ctx, store, shared, used)
	if err != nil {
		s.observeFetch(ep, nil, err)
		return nil, true, err
	}
	batch, err = s.fetcher.FetchWithToken(ctx, ep, store, fresh, r)
	s.observeFetch(ep, batch, err)
	return batch, true, err
}

// refresh replaces a rejected token once per store sync. Endpoints rejected with a
// token that was already replaced reuse the replacement.
func (s *SyncService) refresh(ctx context.Context, store domain.Store, shared *storeToken, rejected *domain.Token) (*domain.Token, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.token.Value != rejected.Value {
		return shared.token, nil
	}
	if err := s.tokens.Reject(ctx, store.StoreID, rejected.Value); err != nil {
		s.logger.Error().Err(err).Str("storeId", store.StoreID).Msg("Failed to invalidate token")
	}
	token, err := s.tokens.GetToken(ctx, store.StoreID, store.Email, store.Password)
	if err != nil {
		return nil, err
	}
	shared.token = token
	return token, nil
}

func (s *SyncService) observeFetch(ep domain.Endpoint, batch *domain.Batch, err error) {
	var source domain.Source
	if batch != nil {
		source = batch.Source
	}
	s.metrics.ObserveFetch(ep, source, err)
}

func (s *SyncService) newResult(runID string, store domain.Store, r domain.Range, started time.Time) *domain.SyncResult {
	return &domain.SyncResult{
		RunID:     runID,
		StoreID:   store.StoreID,
		StoreName: store.StoreName,
		Range:     r,
		Orders:    domain.EndpointOutcome{Endpoint: domain.EndpointOrders},
		Products:  domain.EndpointOutcome{Endpoint: domain.EndpointProducts},
		Sessions:  domain.EndpointOutcome{Endpoint: domain.EndpointSessions},
		StartedAt: started,
	}
}

// finish records bookkeeping, metrics and the finished event for a store result
func (s *SyncService) finish(ctx context.Context, result *domain.SyncResult, started time.Time) {
	elapsed := s.now().Sub(started)
	result.DurationMS = elapsed.Milliseconds()
	records := result.Persisted()

	entry := &domain.StoreSync{
		StoreID:  result.StoreID,
		LastSync: s.now(),
		Success:  result.Success,
		Records:  records,
	}
	if len(result.Errors) > 0 {
		entry.LastError = result.Errors[0]
	}
	// bookkeeping survives a cancelled caller
	if err := s.syncLog.RecordSync(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error().Err(err).Str("storeId", result.StoreID).Msg("Failed to record store sync")
	}

	s.metrics.ObserveStoreSync(result.StoreID, result.Success, records, elapsed)

	event := &domain.SyncEvent{
		Type:     domain.SyncEventStoreFinished,
		RunID:    result.RunID,
		StoreID:  result.StoreID,
		Success:  result.Success,
		Records:  records,
		Occurred: s.now(),
	}
	if len(result.Errors) > 0 {
		event.Error = result.Errors[0]
	}
	s.publish(event)

	log := s.logger.Info()
	if !result.Success {
		log = s.logger.Warn().Strs("errors", result.Errors)
	}
	log.
		Str("runId", result.RunID).
		Str("storeId", result.StoreID).
		Bool("success", result.Success).
		Int("records", records).
		Int64("durationMs", result.DurationMS).
		Msg("Store sync finished")
}

func (s *SyncService) publish(event *domain.SyncEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

func asFetchError(err error) (*domain.FetchError, bool) {
	var fe *domain.FetchError
	ok := errors.As(err, &fe)
	return fe, ok
}
