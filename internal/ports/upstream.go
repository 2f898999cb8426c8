package ports

import (
	"context"

	"linisco-sync-layer/internal/domain"
)

// Authenticator exchanges store credentials for an upstream bearer token
type Authenticator interface {
	// Login returns the raw token. Unreachable upstreams yield a *domain.ConnectivityError,
	// rejected credentials or malformed answers a *domain.AuthError.
	Login(ctx context.Context, storeID, email, password string) (string, error)
}

// TokenProvider hands out usable tokens for stores
type TokenProvider interface {
	// GetToken returns a usable token; empty credentials fall back to the configured ones
	GetToken(ctx context.Context, storeID, email, password string) (*domain.Token, error)

	// Invalidate forgets the cached token of a store and marks the persisted one expired
	Invalidate(ctx context.Context, storeID string) error

	// Reject invalidates the store's token only while value is still the current one,
	// so a token refreshed by another caller survives a late rejection of its predecessor
	Reject(ctx context.Context, storeID, value string) error
}

// Fetcher reads one endpoint of the upstream for a store and range
type Fetcher interface {
	// Fetch obtains the store's token itself
	Fetch(ctx context.Context, endpoint domain.Endpoint, store domain.Store, r domain.Range) (*domain.Batch, error)

	// FetchWithToken uses a token the caller already holds, so several endpoints share one lookup
	FetchWithToken(ctx context.Context, endpoint domain.Endpoint, store domain.Store, token *domain.Token, r domain.Range) (*domain.Batch, error)
}
