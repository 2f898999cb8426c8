package domain

// Endpoint is an upstream read endpoint
type Endpoint string

const (
	EndpointOrders   Endpoint = "/sale_orders"
	EndpointProducts Endpoint = "/sale_products"
	EndpointSessions Endpoint = "/sessions"
)

// Endpoints lists the endpoints synchronized for every store
var Endpoints = []Endpoint{EndpointOrders, EndpointProducts, EndpointSessions}

// Source tags where a batch of records came from
type Source string

const (
	SourceReal      Source = "real"
	SourceSynthetic Source = "synthetic"
)

// Batch is the result of one upstream read. Only the slice matching Endpoint is populated.
type Batch struct {
	Endpoint Endpoint      `json:"endpoint"`
	StoreID  string        `json:"store_id"`
	Source   Source        `json:"source"`
	Orders   []Order       `json:"orders,omitempty"`
	Products []ProductLine `json:"products,omitempty"`
	Sessions []Session     `json:"sessions,omitempty"`
}

// Len returns the number of records in the batch
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Orders) + len(b.Products) + len(b.Sessions)
}

// Synthetic reports whether the batch was substituted for unreachable upstream data
func (b *Batch) Synthetic() bool {
	return b != nil && b.Source == SourceSynthetic
}
