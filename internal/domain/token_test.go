package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	token := &Token{StoreID: "63953", Value: "abc", Status: TokenActive, ExpiresAt: now.Add(time.Minute)}

	assert.False(t, token.Expired(now))
	assert.True(t, token.Usable(now))
	assert.True(t, token.Expired(now.Add(time.Minute)), "expiresAt itself is already expired")
	assert.False(t, token.Usable(now.Add(2*time.Minute)))

	token.Status = TokenFailed
	assert.False(t, token.Usable(now))

	var missing *Token
	assert.False(t, missing.Usable(now))
}

func TestNewTokenStatusReport(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	store := Store{StoreID: "63953", StoreName: "Centro", Email: "centro@example.com"}

	pending := NewTokenStatusReport(store, nil, now)
	assert.Equal(t, TokenPending, pending.Status)
	assert.True(t, pending.NeedsRenewal)

	fresh := NewTokenStatusReport(store, &Token{Status: TokenActive, IssuedAt: now, ExpiresAt: now.Add(DefaultTokenTTL)}, now)
	assert.False(t, fresh.IsExpired)
	assert.False(t, fresh.IsExpiringSoon)
	assert.False(t, fresh.NeedsRenewal)

	soon := NewTokenStatusReport(store, &Token{Status: TokenActive, ExpiresAt: now.Add(time.Hour)}, now)
	assert.True(t, soon.IsExpiringSoon)
	assert.True(t, soon.NeedsRenewal)

	expired := NewTokenStatusReport(store, &Token{Status: TokenActive, ExpiresAt: now.Add(-time.Hour)}, now)
	assert.True(t, expired.IsExpired)
	assert.False(t, expired.IsExpiringSoon)
	assert.True(t, expired.NeedsRenewal)
}

func TestStoreDirectory(t *testing.T) {
	dir := NewStoreDirectory([]Store{
		{StoreID: "1", StoreName: "One", Active: true},
		{StoreID: "2", StoreName: "Two", Active: false},
		{StoreID: "3", StoreName: "Three", Active: true},
		{StoreID: "1", StoreName: "Duplicate", Active: true},
	})

	assert.Len(t, dir.All(), 3)
	assert.Equal(t, "One", dir.Name("1"))
	assert.Equal(t, "9", dir.Name("9"))
	assert.Len(t, dir.Active(), 2)
	assert.Len(t, dir.Active("2", "3"), 1)
}
