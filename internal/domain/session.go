package domain

import "time"

// Session represents a POS cash-register session (shift) reported by the upstream.
// SessionID is unique across all stores, unlike orders and product lines which are
// scoped per store.
type Session struct {
	SessionID string     `json:"session_id" bson:"sessionId"`
	StoreID   string     `json:"store_id" bson:"storeId"`
	StartTime time.Time  `json:"start_time" bson:"startTime"`
	EndTime   *time.Time `json:"end_time,omitempty" bson:"endTime,omitempty"`
	Status    string     `json:"status" bson:"status"`
	SyncedAt  time.Time  `json:"synced_at" bson:"syncedAt"`
}

// Key returns the natural key of the session
func (s *Session) Key() string {
	return s.SessionID
}
