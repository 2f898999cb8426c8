package domain

import "time"

// EndpointOutcome records what happened to one endpoint during a store sync
type EndpointOutcome struct {
	Endpoint  Endpoint `json:"endpoint"`
	Source    Source   `json:"source,omitempty"`
	Fetched   int      `json:"fetched"`
	Persisted int      `json:"persisted"`
	Failed    int      `json:"failed"` // records whose write failed
	Retried   bool     `json:"retried,omitempty"`
	Status    int      `json:"status,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// OK reports whether the endpoint was fetched without error
func (o *EndpointOutcome) OK() bool {
	return o.Error == ""
}

// SyncResult is the outcome of synchronizing one store
type SyncResult struct {
	RunID      string          `json:"run_id"`
	StoreID    string          `json:"store_id"`
	StoreName  string          `json:"store_name"`
	Range      Range           `json:"range"`
	Success    bool            `json:"success"`
	Orders     EndpointOutcome `json:"orders"`
	Products   EndpointOutcome `json:"products"`
	Sessions   EndpointOutcome `json:"sessions"`
	Errors     []string        `json:"errors,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
}

// Outcome returns the outcome slot for an endpoint
func (r *SyncResult) Outcome(endpoint Endpoint) *EndpointOutcome {
	switch endpoint {
	case EndpointOrders:
		return &r.Orders
	case EndpointProducts:
		return &r.Products
	default:
		return &r.Sessions
	}
}

// Persisted is the number of records written for this store
func (r *SyncResult) Persisted() int {
	return r.Orders.Persisted + r.Products.Persisted + r.Sessions.Persisted
}

// FleetResult is the outcome of synchronizing every active store
type FleetResult struct {
	RunID        string        `json:"run_id"`
	Range        Range         `json:"range"`
	PerStore     []*SyncResult `json:"per_store"`
	TotalRecords int           `json:"total_records"`
	Successful   int           `json:"successful"`
	Failed       int           `json:"failed"`
	DurationMS   int64         `json:"duration_ms"`
}

// StoreSync is the persisted bookkeeping of a store's last synchronization
type StoreSync struct {
	StoreID   string    `json:"store_id" bson:"storeId"`
	LastSync  time.Time `json:"last_sync" bson:"lastSync"`
	Success   bool      `json:"success" bson:"success"`
	Records   int       `json:"records" bson:"records"`
	LastError string    `json:"last_error,omitempty" bson:"lastError,omitempty"`
}

// RecordCounts is the number of stored records of a store
type RecordCounts struct {
	Orders   int64 `json:"orders"`
	Products int64 `json:"products"`
	Sessions int64 `json:"sessions"`
}

// StoreSyncStatus is one row of the sync status report
type StoreSyncStatus struct {
	StoreID   string            `json:"store_id"`
	StoreName string            `json:"store_name"`
	Active    bool              `json:"active"`
	LastSync  *StoreSync        `json:"last_sync,omitempty"`
	Counts    RecordCounts      `json:"counts"`
	Auth      TokenStatusReport `json:"auth"`
}

// SyncStatus is the report returned by getSyncStatus
type SyncStatus struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Stores      []StoreSyncStatus `json:"stores"`
}

// CleanupResult reports how many records retention cleanup deleted per table
type CleanupResult struct {
	Cutoff          time.Time `json:"cutoff"`
	OrdersDeleted   int64     `json:"orders_deleted"`
	ProductsDeleted int64     `json:"products_deleted"`
	SessionsDeleted int64     `json:"sessions_deleted"`
}

// SyncEventType classifies sync progress events
type SyncEventType string

const (
	SyncEventStoreStarted  SyncEventType = "store_started"
	SyncEventStoreFinished SyncEventType = "store_finished"
	SyncEventFleetFinished SyncEventType = "fleet_finished"
)

// SyncEvent is published while synchronizations run
type SyncEvent struct {
	Type     SyncEventType `json:"type"`
	RunID    string        `json:"run_id"`
	StoreID  string        `json:"store_id,omitempty"`
	Success  bool          `json:"success"`
	Records  int           `json:"records"`
	Error    string        `json:"error,omitempty"`
	Occurred time.Time     `json:"occurred"`
}
