package cache

import (
	"time"

	"linisco-sync-layer/internal/domain"

	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// TokenCache is the in-memory token tier. Entries live until their token expires,
// and every read checks expiry again.
type TokenCache struct {
	items *cache.Cache
	now   func() time.Time
}

// NewTokenCache creates an empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{
		items: cache.New(domain.DefaultTokenTTL, cleanupInterval),
		now:   time.Now,
	}
}

// Get returns the cached token of a store if it is still valid
func (c *TokenCache) Get(storeID string) (*domain.Token, bool) {
	v, found := c.items.Get(storeID)
	if !found {
		return nil, false
	}
	token, ok := v.(domain.Token)
	if !ok || token.Expired(c.now()) {
		c.items.Delete(storeID)
		return nil, false
	}
	return &token, true
}

// Set caches a token until its expiry. Already expired tokens are not cached.
func (c *TokenCache) Set(token *domain.Token) {
	ttl := token.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	c.items.Set(token.StoreID, *token, ttl)
}

// Delete drops the cached token of a store
func (c *TokenCache) Delete(storeID string) {
	c.items.Delete(storeID)
}

// Len returns the number of cached entries, expired ones included until cleanup runs
func (c *TokenCache) Len() int {
	return c.items.ItemCount()
}
