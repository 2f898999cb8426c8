package linisco

import (
	"time"

	"linisco-sync-layer/internal/domain"
)

type syntheticOrder struct {
	id       string
	date     time.Time
	total    float64
	discount float64
	method   string
}

type syntheticProduct struct {
	id      string
	orderID string
	name    string
	price   float64
}

type syntheticSession struct {
	id    string
	start time.Time
	end   time.Time
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.October, 17, hour, minute, 0, 0, time.UTC)
}

var (
	syntheticOrders = []syntheticOrder{
		{id: "1", date: at(10, 30), total: 1500, method: "cash"},
		{id: "2", date: at(11, 15), total: 2400, method: "cc_rappiol"},
		{id: "3", date: at(12, 0), total: 3200, discount: 200, method: "cc_pedidosyaft"},
		{id: "4", date: at(13, 30), total: 1800, method: "cc_pedidosyaol"},
		{id: "5", date: at(14, 45), total: 4500, method: "cash"},
	}

	syntheticProducts = []syntheticProduct{
		{id: "1", orderID: "1", name: "Sub de Pollo", price: 1500},
		{id: "2", orderID: "2", name: "Sub de Carne", price: 1800},
		{id: "3", orderID: "2", name: "Bebida", price: 600},
		{id: "4", orderID: "3", name: "Combo Familiar", price: 3400},
		{id: "5", orderID: "4", name: "Sub Vegetariano", price: 1800},
		{id: "6", orderID: "5", name: "Helado 1/2 Kilo", price: 4500},
	}

	syntheticSessions = []syntheticSession{
		{id: "1", start: at(8, 0), end: at(16, 0)},
		{id: "2", start: at(9, 0), end: at(17, 0)},
	}
)

// Synthetic returns the fixed fallback dataset for an endpoint, restricted to the range
// and stamped with the requesting store. Products follow the date of their order.
// Session IDs are global, so synthetic ones are prefixed with the store to keep stores apart.
func Synthetic(endpoint domain.Endpoint, storeID string, r domain.Range) *domain.Batch {
	batch := &domain.Batch{Endpoint: endpoint, StoreID: storeID, Source: domain.SourceSynthetic}

	switch endpoint {
	case domain.EndpointOrders:
		for _, o := range syntheticOrders {
			if !r.Contains(o.date) {
				continue
			}
			batch.Orders = append(batch.Orders, domain.Order{
				OrderID:       o.id,
				StoreID:       storeID,
				OrderDate:     o.date,
				Total:         o.total,
				Discount:      o.discount,
				PaymentMethod: o.method,
			})
		}
	case domain.EndpointProducts:
		dates := make(map[string]time.Time, len(syntheticOrders))
		for _, o := range syntheticOrders {
			dates[o.id] = o.date
		}
		for _, p := range syntheticProducts {
			if !r.Contains(dates[p.orderID]) {
				continue
			}
			batch.Products = append(batch.Products, domain.ProductLine{
				ProductID: p.id,
				OrderID:   p.orderID,
				StoreID:   storeID,
				Name:      p.name,
				Quantity:  1,
				Price:     p.price,
				Total:     p.price,
			})
		}
	case domain.EndpointSessions:
		for _, s := range syntheticSessions {
			if !r.Contains(s.start) {
				continue
			}
			end := s.end
			batch.Sessions = append(batch.Sessions, domain.Session{
				SessionID: "synthetic-" + storeID + "-" + s.id,
				StoreID:   storeID,
				StartTime: s.start,
				EndTime:   &end,
				Status:    "closed",
			})
		}
	}
	return batch
}
