package domain

import "time"

// TokenStatus is the lifecycle state of a store's upstream bearer token
type TokenStatus string

const (
	TokenPending TokenStatus = "pending"
	TokenActive  TokenStatus = "active"
	TokenExpired TokenStatus = "expired"
	TokenFailed  TokenStatus = "failed"
)

// DefaultTokenTTL is the validity window assumed for upstream tokens; the upstream reports none
const DefaultTokenTTL = 24 * time.Hour

// ExpiringSoonWindow flags tokens that will need renewal shortly
const ExpiringSoonWindow = 2 * time.Hour

// Token is the upstream bearer credential for one store. StoreID is its natural key.
type Token struct {
	StoreID   string      `json:"store_id" bson:"storeId"`
	Email     string      `json:"email" bson:"email"`
	Value     string      `json:"-" bson:"token"`
	IssuedAt  time.Time   `json:"issued_at" bson:"issuedAt"`
	ExpiresAt time.Time   `json:"expires_at" bson:"expiresAt"`
	Status    TokenStatus `json:"status" bson:"status"`
	Demo      bool        `json:"demo" bson:"-"` // synthesized while the upstream is unreachable
}

// Expired reports whether the token is past its validity window at now
func (t *Token) Expired(now time.Time) bool {
	return TokenExpiredAt(now, t.ExpiresAt)
}

// Usable reports whether the token can be handed out at now
func (t *Token) Usable(now time.Time) bool {
	return t != nil && t.Value != "" && t.Status == TokenActive && !t.Expired(now)
}

// TokenExpiredAt is the pure expiry check: a token is expired once now reaches expiresAt
func TokenExpiredAt(now, expiresAt time.Time) bool {
	return !now.Before(expiresAt)
}

// TokenStatusReport describes a store's authentication state for status views
type TokenStatusReport struct {
	StoreID        string      `json:"store_id"`
	StoreName      string      `json:"store_name"`
	Email          string      `json:"email"`
	Status         TokenStatus `json:"status"`
	LastAuth       *time.Time  `json:"last_auth,omitempty"`
	ExpiresAt      *time.Time  `json:"expires_at,omitempty"`
	IsExpired      bool        `json:"is_expired"`
	IsExpiringSoon bool        `json:"is_expiring_soon"`
	NeedsRenewal   bool        `json:"needs_renewal"`
}

// NewTokenStatusReport builds the status view of a persisted token at now.
// A nil token reports the store as pending.
func NewTokenStatusReport(store Store, token *Token, now time.Time) TokenStatusReport {
	report := TokenStatusReport{
		StoreID:   store.StoreID,
		StoreName: store.StoreName,
		Email:     store.Email,
		Status:    TokenPending,
	}
	if token == nil {
		report.NeedsRenewal = true
		return report
	}

	issued := token.IssuedAt
	expires := token.ExpiresAt
	report.Status = token.Status
	report.LastAuth = &issued
	report.ExpiresAt = &expires
	report.IsExpired = token.Expired(now)
	report.IsExpiringSoon = !report.IsExpired && TokenExpiredAt(now.Add(ExpiringSoonWindow), token.ExpiresAt)
	report.NeedsRenewal = report.IsExpired || report.IsExpiringSoon || token.Status != TokenActive
	return report
}
