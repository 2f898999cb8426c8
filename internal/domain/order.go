package domain

import "time"

// Order is a sale order of one store. (OrderID, StoreID) is its natural key.
type Order struct {
	OrderID       string    `json:"order_id" bson:"orderId"`
	StoreID       string    `json:"store_id" bson:"storeId"`
	OrderDate     time.Time `json:"order_date" bson:"orderDate"`
	Total         float64   `json:"total" bson:"total"`
	Discount      float64   `json:"discount" bson:"discount"`
	PaymentMethod string    `json:"payment_method" bson:"paymentMethod"`
	SyncedAt      time.Time `json:"synced_at" bson:"syncedAt"`
}

// NetRevenue is the order's contribution to revenue. Discount passes through as given.
func (o *Order) NetRevenue() float64 {
	return o.Total - o.Discount
}

// Key returns the natural key of the order
func (o *Order) Key() OrderKey {
	return OrderKey{OrderID: o.OrderID, StoreID: o.StoreID}
}

// OrderKey identifies an order within its store
type OrderKey struct {
	OrderID string
	StoreID string
}

// ProductLine is one product sold within an order. It references its order by ID only;
// deleting an order does not delete its lines.
type ProductLine struct {
	ProductID string    `json:"product_id,omitempty" bson:"productId,omitempty"`
	OrderID   string    `json:"order_id" bson:"orderId"`
	StoreID   string    `json:"store_id" bson:"storeId"`
	Name      string    `json:"name" bson:"name"`
	Quantity  float64   `json:"quantity" bson:"quantity"`
	Price     float64   `json:"price" bson:"price"`
	Total     float64   `json:"total" bson:"total"`
	SyncedAt  time.Time `json:"synced_at" bson:"syncedAt"`
}

// LineKey returns the per-store part of the natural key: the product ID when the
// upstream supplies one, otherwise the order ID joined with the product name.
func (p *ProductLine) LineKey() string {
	if p.ProductID != "" {
		return p.ProductID
	}
	return p.OrderID + "/" + p.Name
}
