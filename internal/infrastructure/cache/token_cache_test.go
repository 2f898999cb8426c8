package cache

import (
	"testing"
	"time"

	"linisco-sync-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCache(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	c := NewTokenCache()
	c.now = func() time.Time { return now }

	c.Set(&domain.Token{StoreID: "A", Value: "a", Status: domain.TokenActive, ExpiresAt: now.Add(time.Hour)})
	c.Set(&domain.Token{StoreID: "B", Value: "b", Status: domain.TokenActive, ExpiresAt: now.Add(-time.Second)})

	token, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "a", token.Value)

	_, ok = c.Get("B")
	assert.False(t, ok, "expired tokens are never cached")

	// the logical clock passes expiry before go-cache evicts the entry
	now = now.Add(time.Hour)
	_, ok = c.Get("A")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestTokenCacheDelete(t *testing.T) {
	c := NewTokenCache()
	c.Set(&domain.Token{StoreID: "A", Value: "a", Status: domain.TokenActive, ExpiresAt: time.Now().Add(time.Hour)})

	c.Delete("A")
	_, ok := c.Get("A")
	assert.False(t, ok)
}

func TestTokenCacheReturnsCopies(t *testing.T) {
	c := NewTokenCache()
	c.Set(&domain.Token{StoreID: "A", Value: "a", Status: domain.TokenActive, ExpiresAt: time.Now().Add(time.Hour)})

	first, ok := c.Get("A")
	require.True(t, ok)
	first.Value = "mutated"

	second, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "a", second.Value)
}
