package linisco

import (
	"context"
	"fmt"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Fetcher reads endpoints on behalf of stores, substituting synthetic data whenever
// the upstream is unreachable
type Fetcher struct {
	client *Client
	tokens ports.TokenProvider
	logger zerolog.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(client *Client, tokens ports.TokenProvider, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		tokens: tokens,
		logger: logger,
	}
}

// Fetch reads one endpoint for a store and range.
// Token errors are returned before any request is made. A demo token, a transport
// failure, or an HTTP 503/404 yields the synthetic batch. Rejected tokens, malformed
// bodies and other statuses yield a *domain.FetchError; there is no retry here.
func (f *Fetcher) Fetch(ctx context.Context, endpoint domain.Endpoint, store domain.Store, r domain.Range) (*domain.Batch, error) {
	token, err := f.tokens.GetToken(ctx, store.StoreID, store.Email, store.Password)
	if err != nil {
		return nil, err
	}
	return f.FetchWithToken(ctx, endpoint, store, token, r)
}

// FetchWithToken reads one endpoint with a token the caller already obtained
func (f *Fetcher) FetchWithToken(ctx context.Context, endpoint domain.Endpoint, store domain.Store, token *domain.Token, r domain.Range) (*domain.Batch, error) {
	if token.Demo {
		f.logger.Debug().
			Str("storeId", store.StoreID).
			Str("endpoint", string(endpoint)).
			Msg("Demo token in use, serving synthetic data")
		return Synthetic(endpoint, store.StoreID, r), nil
	}

	status, body, err := f.client.get(ctx, endpoint, store, token.Value, r)
	if err != nil {
		if Recoverable(err) {
			f.logger.Warn().
				Err(err).
				Str("storeId", store.StoreID).
				Str("endpoint", string(endpoint)).
				Msg("Upstream unavailable, serving synthetic data")
			return Synthetic(endpoint, store.StoreID, r), nil
		}
		return nil, err
	}

	batch, skipped, err := decodeBatch(endpoint, store.StoreID, body)
	if err != nil {
		return nil, &domain.FetchError{Endpoint: endpoint, StoreID: store.StoreID, Status: status, Err: fmt.Errorf("malformed body: %w", err)}
	}
	if skipped > 0 {
		f.logger.Warn().
			Str("storeId", store.StoreID).
			Str("endpoint", string(endpoint)).
			Int("skipped", skipped).
			Msg("Skipped upstream records without identifying fields")
	}
	return batch, nil
}
