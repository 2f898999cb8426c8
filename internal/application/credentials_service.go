package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const demoTokenPrefix = "demo-token-"

// Auth outcomes reported to metrics
const (
	authCached    = "cached"
	authPersisted = "persisted"
	authFresh     = "fresh"
	authDemo      = "demo"
	authFailed    = "failed"
)

// CredentialsConfig holds the credential store settings
type CredentialsConfig struct {
	TokenTTL        time.Duration
	DefaultEmail    string
	DefaultPassword string
}

// CredentialsService is the per-store credential store. It hands out upstream tokens
// from the in-memory tier, then the persisted tier, and only then by logging in.
type CredentialsService struct {
	stores  *domain.StoreDirectory
	repo    ports.TokenRepository
	cache   ports.TokenCache
	locker  ports.AuthLocker
	auth    ports.Authenticator
	metrics ports.SyncMetrics
	logger  zerolog.Logger
	config  CredentialsConfig
	now     func() time.Time
}

// NewCredentialsService creates a new credentials service
func NewCredentialsService(
	stores *domain.StoreDirectory,
	repo ports.TokenRepository,
	cache ports.TokenCache,
	locker ports.AuthLocker,
	auth ports.Authenticator,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
	config CredentialsConfig,
) *CredentialsService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = domain.DefaultTokenTTL
	}
	return &CredentialsService{
		stores:  stores,
		repo:    repo,
		cache:   cache,
		locker:  locker,
		auth:    auth,
		metrics: orNop(metrics),
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// GetToken returns a usable token for a store. Empty credentials fall back to the
// store's configured pair, then to the default pair.
//
// An unreachable upstream yields a demo token, which is neither cached nor persisted
// so the next call tries the upstream again. Rejected credentials yield a
// *domain.AuthError and mark the persisted token failed.
func (s *CredentialsService) GetToken(ctx context.Context, storeID, email, password string) (*domain.Token, error) {
	if storeID == "" {
		return nil, domain.NewValidationError("storeId is required")
	}
	email, password, err := s.resolveCredentials(storeID, email, password)
	if err != nil {
		return nil, err
	}

	if token := s.lookup(ctx, storeID); token != nil {
		return token, nil
	}

	unlock, err := s.locker.Lock(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire auth lock for store %s: %w", storeID, err)
	}
	defer unlock()

	// another caller may have logged in while we waited
	if token := s.lookup(ctx, storeID); token != nil {
		return token, nil
	}

	return s.authenticate(ctx, storeID, email, password)
}

// Invalidate drops the cached token of a store and marks the persisted one expired
func (s *CredentialsService) Invalidate(ctx context.Context, storeID string) error {
	s.cache.Delete(storeID)

	if err := s.repo.UpdateTokenStatus(ctx, storeID, domain.TokenExpired); err != nil {
		return fmt.Errorf("failed to invalidate token for store %s: %w", storeID, err)
	}

	s.logger.Info().Str("storeId", storeID).Msg("Token invalidated")
	return nil
}

// Reject invalidates the store's token after the upstream refused value. When the
// current token already differs, another caller has re-authenticated and the
// fresh token is kept.
func (s *CredentialsService) Reject(ctx context.Context, storeID, value string) error {
	unlock, err := s.locker.Lock(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to acquire auth lock for store %s: %w", storeID, err)
	}
	defer unlock()

	if current := s.current(ctx, storeID); current != nil && current.Value != value {
		s.logger.Debug().Str("storeId", storeID).Msg("Rejected token already replaced, keeping the current one")
		return nil
	}
	return s.Invalidate(ctx, storeID)
}

// AuthOutcome is the result of warming one store's token
type AuthOutcome struct {
	StoreID   string     `json:"store_id"`
	StoreName string     `json:"store_name"`
	Success   bool       `json:"success"`
	Demo      bool       `json:"demo"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// AuthenticateAll obtains a token for every active store, one store at a time.
// With force set, existing tokens are invalidated first.
func (s *CredentialsService) AuthenticateAll(ctx context.Context, force bool) []AuthOutcome {
	stores := s.stores.Active()
	outcomes := make([]AuthOutcome, 0, len(stores))

	for _, store := range stores {
		outcome := AuthOutcome{StoreID: store.StoreID, StoreName: store.StoreName}

		if force {
			if err := s.Invalidate(ctx, store.StoreID); err != nil {
				s.logger.Warn().Err(err).Str("storeId", store.StoreID).Msg("Failed to invalidate token before refresh")
			}
		}

		token, err := s.GetToken(ctx, store.StoreID, "", "")
		if err != nil {
			outcome.Error = err.Error()
		} else {
			expires := token.ExpiresAt
			outcome.Success = true
			outcome.Demo = token.Demo
			outcome.ExpiresAt = &expires
		}
		outcomes = append(outcomes, outcome)
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	s.logger.Info().
		Int("stores", len(outcomes)).
		Int("succeeded", succeeded).
		Bool("force", force).
		Msg("Authenticated all stores")

	return outcomes
}

// AuthStatus reports the persisted authentication state of every configured store
func (s *CredentialsService) AuthStatus(ctx context.Context) ([]domain.TokenStatusReport, error) {
	tokens, err := s.repo.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	byStore := make(map[string]*domain.Token, len(tokens))
	for _, t := range tokens {
		byStore[t.StoreID] = t
	}

	now := s.now()
	stores := s.stores.All()
	reports := make([]domain.TokenStatusReport, 0, len(stores))
	for _, store := range stores {
		reports = append(reports, domain.NewTokenStatusReport(store, byStore[store.StoreID], now))
	}
	return reports, nil
}

// ExpireStale marks persisted tokens past their expiry as expired
func (s *CredentialsService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("Marked stale tokens as expired")
	}
	return n, nil
}

// lookup checks the in-memory tier, then the persisted tier
func (s *CredentialsService) lookup(ctx context.Context, storeID string) *domain.Token {
	now := s.now()

	if token, ok := s.cache.Get(storeID); ok && token.Usable(now) {
		s.metrics.ObserveAuth(authCached)
		return token
	}

	token, err := s.repo.GetToken(ctx, storeID)
	if err != nil {
		s.logger.Warn().Err(err).Str("storeId", storeID).Msg("Failed to read persisted token, falling back to login")
		return nil
	}
	if !token.Usable(now) {
		return nil
	}

	s.cache.Set(token)
	s.metrics.ObserveAuth(authPersisted)
	return token
}

// current returns the usable token of a store without recording a lookup
func (s *CredentialsService) current(ctx context.Context, storeID string) *domain.Token {
	now := s.now()
	if token, ok := s.cache.Get(storeID); ok && token.Usable(now) {
		return token
	}
	token, err := s.repo.GetToken(ctx, storeID)
	if err != nil || !token.Usable(now) {
		return nil
	}
	return token
}

func (s *CredentialsService) authenticate(ctx context.Context, storeID, email, password string) (*domain.Token, error) {
	now := s.now()

	raw, err := s.auth.Login(ctx, storeID, email, password)
	if err != nil {
		var connErr *domain.ConnectivityError
		if errors.As(err, &connErr) {
			s.metrics.ObserveAuth(authDemo)
			s.logger.Warn().
				Err(err).
				Str("storeId", storeID).
				Msg("Upstream unreachable, issuing demo token")
			return &domain.Token{
				StoreID:   storeID,
				Email:     email,
				Value:     demoTokenPrefix + uuid.NewString(),
				IssuedAt:  now,
				ExpiresAt: now.Add(s.config.TokenTTL),
				Status:    domain.TokenActive,
				Demo:      true,
			}, nil
		}

		var authErr *domain.AuthError
		if !errors.As(err, &authErr) {
			return nil, fmt.Errorf("failed to authenticate store %s: %w", storeID, err)
		}

		s.metrics.ObserveAuth(authFailed)
		s.cache.Delete(storeID)
		failed := &domain.Token{StoreID: storeID, Email: email, IssuedAt: now, ExpiresAt: now, Status: domain.TokenFailed}
		if serr := s.repo.SaveToken(ctx, failed); serr != nil {
			s.logger.Error().Err(serr).Str("storeId", storeID).Msg("Failed to record failed authentication")
		}
		s.logger.Error().
			Err(err).
			Str("storeId", storeID).
			Int("status", authErr.Status).
			Msg("Authentication rejected")
		return nil, authErr
	}

	token := &domain.Token{
		StoreID:   storeID,
		Email:     email,
		Value:     raw,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.config.TokenTTL),
		Status:    domain.TokenActive,
	}
	if err := s.repo.SaveToken(ctx, token); err != nil {
		s.logger.Error().
			Err(&domain.PersistenceError{Entity: "token", Key: storeID, Err: err}).
			Str("storeId", storeID).
			Msg("Failed to persist token, keeping it in memory only")
	}
	s.cache.Set(token)
	s.metrics.ObserveAuth(authFresh)

	s.logger.Info().
		Str("storeId", storeID).
		Time("expiresAt", token.ExpiresAt).
		Msg("Authenticated store")
	return token, nil
}

func (s *CredentialsService) resolveCredentials(storeID, email, password string) (string, string, error) {
	if email != "" && password != "" {
		return email, password, nil
	}
	if store, ok := s.stores.Get(storeID); ok && store.Email != "" && store.Password != "" {
		return store.Email, store.Password, nil
	}
	if s.config.DefaultEmail != "" && s.config.DefaultPassword != "" {
		return s.config.DefaultEmail, s.config.DefaultPassword, nil
	}
	return "", "", domain.NewValidationError("no credentials available for store %s", storeID)
}
