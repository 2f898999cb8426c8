package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"linisco-sync-layer/internal/domain"
)

type productKey struct {
	storeID string
	lineKey string
}

type aggregateKey struct {
	paymentMethod string
	storeID       string
}

// MemoryRepository keeps tokens, sales records and sync bookkeeping in process memory.
// It honours the same natural keys as the MongoDB repositories and is used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	tokens   map[string]domain.Token
	orders   map[domain.OrderKey]domain.Order
	products map[productKey]domain.ProductLine
	sessions map[string]domain.Session
	syncs    map[string]domain.StoreSync
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tokens:   make(map[string]domain.Token),
		orders:   make(map[domain.OrderKey]domain.Order),
		products: make(map[productKey]domain.ProductLine),
		sessions: make(map[string]domain.Session),
		syncs:    make(map[string]domain.StoreSync),
	}
}

// GetToken retrieves the token of a store
func (r *MemoryRepository) GetToken(ctx context.Context, storeID string) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[storeID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// SaveToken saves or overwrites the token row of its store
func (r *MemoryRepository) SaveToken(ctx context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := *token
	t.Demo = false
	r.tokens[token.StoreID] = t
	return nil
}

// UpdateTokenStatus changes the status of an existing token row
func (r *MemoryRepository) UpdateTokenStatus(ctx context.Context, storeID string, status domain.TokenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tokens[storeID]; ok {
		t.Status = status
		r.tokens[storeID] = t
	}
	return nil
}

// ListTokens retrieves all tokens ordered by store ID
func (r *MemoryRepository) ListTokens(ctx context.Context) ([]*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]*domain.Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		t := t
		tokens = append(tokens, &t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].StoreID < tokens[j].StoreID })
	return tokens, nil
}

// ExpireTokens marks overdue active tokens as expired
func (r *MemoryRepository) ExpireTokens(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.Status == domain.TokenActive && t.Expired(now) {
			t.Status = domain.TokenExpired
			r.tokens[id] = t
			n++
		}
	}
	return n, nil
}

// UpsertOrder saves or replaces an order keyed by (orderId, storeId)
func (r *MemoryRepository) UpsertOrder(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.Key()] = *order
	return nil
}

// UpsertProduct saves or replaces a product line keyed by (storeId, line key)
func (r *MemoryRepository) UpsertProduct(ctx context.Context, product *domain.ProductLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[productKey{storeID: product.StoreID, lineKey: product.LineKey()}] = *product
	return nil
}

// UpsertSession saves or replaces a session keyed by session ID alone
func (r *MemoryRepository) UpsertSession(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *session
	if session.EndTime != nil {
		end := *session.EndTime
		s.EndTime = &end
	}
	r.sessions[session.Key()] = s
	return nil
}

// ListOrders retrieves the orders dated inside the range, oldest first
func (r *MemoryRepository) ListOrders(ctx context.Context, rng domain.Range, storeIDs []string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ordersInRange(rng, storeIDs), nil
}

// ListProducts retrieves the product lines of the given orders
func (r *MemoryRepository) ListProducts(ctx context.Context, orders []domain.OrderKey) ([]domain.ProductLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[domain.OrderKey]bool, len(orders))
	for _, k := range orders {
		wanted[k] = true
	}

	var products []domain.ProductLine
	for _, p := range r.products {
		if wanted[domain.OrderKey{OrderID: p.OrderID, StoreID: p.StoreID}] {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].StoreID != products[j].StoreID {
			return products[i].StoreID < products[j].StoreID
		}
		return products[i].LineKey() < products[j].LineKey()
	})
	return products, nil
}

// QueryStats aggregates order counts and net revenue by payment method and store
func (r *MemoryRepository) QueryStats(ctx context.Context, rng domain.Range, storeIDs []string) (*domain.RawAggregates, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make(map[aggregateKey]*domain.AggregateGroup)
	var keys []aggregateKey
	for _, o := range r.ordersInRange(rng, storeIDs) {
		k := aggregateKey{paymentMethod: o.PaymentMethod, storeID: o.StoreID}
		g, ok := groups[k]
		if !ok {
			g = &domain.AggregateGroup{PaymentMethod: o.PaymentMethod, StoreID: o.StoreID}
			groups[k] = g
			keys = append(keys, k)
		}
		g.OrderCount++
		g.Revenue += o.NetRevenue()
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].storeID != keys[j].storeID {
			return keys[i].storeID < keys[j].storeID
		}
		return keys[i].paymentMethod < keys[j].paymentMethod
	})

	raw := &domain.RawAggregates{}
	for _, k := range keys {
		raw.Groups = append(raw.Groups, *groups[k])
	}
	return raw, nil
}

// CountRecords counts the stored records of a store
func (r *MemoryRepository) CountRecords(ctx context.Context, storeID string) (domain.RecordCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts domain.RecordCounts
	for k := range r.orders {
		if k.StoreID == storeID {
			counts.Orders++
		}
	}
	for k := range r.products {
		if k.storeID == storeID {
			counts.Products++
		}
	}
	for _, s := range r.sessions {
		if s.StoreID == storeID {
			counts.Sessions++
		}
	}
	return counts, nil
}

// Cleanup deletes orders by order date, products by sync time and sessions by start time
func (r *MemoryRepository) Cleanup(ctx context.Context, cutoff time.Time) (*domain.CleanupResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &domain.CleanupResult{Cutoff: cutoff}
	for k, o := range r.orders {
		if o.OrderDate.Before(cutoff) {
			delete(r.orders, k)
			result.OrdersDeleted++
		}
	}
	for k, p := range r.products {
		if p.SyncedAt.Before(cutoff) {
			delete(r.products, k)
			result.ProductsDeleted++
		}
	}
	for k, s := range r.sessions {
		if s.StartTime.Before(cutoff) {
			delete(r.sessions, k)
			result.SessionsDeleted++
		}
	}
	return result, nil
}

// RecordSync overwrites the last sync entry of a store
func (r *MemoryRepository) RecordSync(ctx context.Context, entry *domain.StoreSync) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.syncs[entry.StoreID] = *entry
	return nil
}

// ListStoreSyncs retrieves the last sync entry of every store, ordered by store ID
func (r *MemoryRepository) ListStoreSyncs(ctx context.Context) ([]*domain.StoreSync, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*domain.StoreSync, 0, len(r.syncs))
	for _, s := range r.syncs {
		s := s
		entries = append(entries, &s)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].StoreID < entries[j].StoreID })
	return entries, nil
}

// ordersInRange must be called with the lock held
func (r *MemoryRepository) ordersInRange(rng domain.Range, storeIDs []string) []domain.Order {
	var filter map[string]bool
	if len(storeIDs) > 0 {
		filter = make(map[string]bool, len(storeIDs))
		for _, id := range storeIDs {
			filter[id] = true
		}
	}

	var orders []domain.Order
	for _, o := range r.orders {
		if !rng.Contains(o.OrderDate) {
			continue
		}
		if filter != nil && !filter[o.StoreID] {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.OrderDate.Equal(b.OrderDate) {
			return a.OrderDate.Before(b.OrderDate)
		}
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		return a.OrderID < b.OrderID
	})
	return orders
}
