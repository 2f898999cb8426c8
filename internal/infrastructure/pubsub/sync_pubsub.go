package pubsub

import (
	"context"
	"fmt"
	"sync"

	"linisco-sync-layer/internal/domain"

	"github.com/rs/zerolog"
)

const channelBuffer = 32

// SyncEventChannel represents a subscription channel
type SyncEventChannel struct {
	ID     string
	Filter *SyncEventFilter
	Events chan *domain.SyncEvent
	Done   chan struct{}
	cancel context.CancelFunc
}

// SyncEventFilter filters sync events
type SyncEventFilter struct {
	Types   []domain.SyncEventType // Filter by event type
	StoreID string                 // Filter by store; fleet events always match
}

// SyncPubSub fans sync progress events out to subscribers
type SyncPubSub struct {
	mu       sync.RWMutex
	channels map[string]*SyncEventChannel
	logger   zerolog.Logger
	nextID   int64
	idMu     sync.Mutex
}

// NewSyncPubSub creates a new sync event pub/sub
func NewSyncPubSub(logger zerolog.Logger) *SyncPubSub {
	return &SyncPubSub{
		channels: make(map[string]*SyncEventChannel),
		logger:   logger,
	}
}

// Subscribe creates a subscription that lives until ctx is cancelled or Unsubscribe is called
func (ps *SyncPubSub) Subscribe(ctx context.Context, filter *SyncEventFilter) *SyncEventChannel {
	ps.idMu.Lock()
	ps.nextID++
	id := fmt.Sprintf("sync-%d", ps.nextID)
	ps.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)

	channel := &SyncEventChannel{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.SyncEvent, channelBuffer),
		Done:   make(chan struct{}),
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[id] = channel
	ps.mu.Unlock()

	ps.logger.Debug().Str("channelId", id).Msg("Sync event subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(id)
	}()

	return channel
}

// Unsubscribe removes a subscription channel and closes it
func (ps *SyncPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Debug().Str("channelId", channelID).Msg("Sync event subscription removed")
}

// Publish broadcasts an event to all matching subscribers without blocking.
// Subscribers with a full buffer miss the event.
func (ps *SyncPubSub) Publish(event *domain.SyncEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	delivered := 0
	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
			delivered++
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Str("type", string(event.Type)).
				Msg("Channel buffer full, dropping sync event")
		}
	}

	if delivered > 0 {
		ps.logger.Debug().
			Str("type", string(event.Type)).
			Str("runId", event.RunID).
			Int("subscribers", delivered).
			Msg("Published sync event")
	}
}

// Subscribers returns the number of active subscriptions
func (ps *SyncPubSub) Subscribers() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}

func matchesFilter(event *domain.SyncEvent, filter *SyncEventFilter) bool {
	if filter == nil {
		return true
	}

	if len(filter.Types) > 0 {
		match := false
		for _, t := range filter.Types {
			if event.Type == t {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	if filter.StoreID != "" && event.StoreID != "" && event.StoreID != filter.StoreID {
		return false
	}

	return true
}
