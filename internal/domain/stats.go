package domain

import (
	"sort"
	"strings"
)

// PaymentCategory groups upstream payment methods for reporting
type PaymentCategory string

const (
	PaymentCash   PaymentCategory = "Efectivo"
	PaymentApps   PaymentCategory = "Apps"
	PaymentOthers PaymentCategory = "Otros"
)

// TopProductsLimit is the number of products kept in the top products ranking
const TopProductsLimit = 5

var paymentCategories = map[string]PaymentCategory{
	"cash":           PaymentCash,
	"cc_pedidosyaft": PaymentCash,
	"cc_rappiol":     PaymentApps,
	"cc_pedidosyaol": PaymentApps,
}

// CategorizePayment maps an upstream payment method to its reporting category.
// The mapping is fixed; unknown methods fall into Otros.
func CategorizePayment(method string) PaymentCategory {
	if c, ok := paymentCategories[method]; ok {
		return c
	}
	return PaymentOthers
}

// PaymentBreakdown is the order count and net revenue of one payment category
type PaymentBreakdown struct {
	Category    PaymentCategory `json:"payment_category"`
	OrderCount  int64           `json:"order_count"`
	TotalAmount float64         `json:"total_amount"`
}

// StoreBreakdown is the order count and net revenue of one store
type StoreBreakdown struct {
	StoreID     string  `json:"store_id"`
	StoreName   string  `json:"store_name"`
	OrderCount  int64   `json:"order_count"`
	TotalAmount float64 `json:"total_amount"`
}

// TopProduct is one entry of the best-selling products ranking
type TopProduct struct {
	Name         string  `json:"name"`
	StoreID      string  `json:"store_id,omitempty"`
	TimesSold    float64 `json:"times_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

// Stats is the consolidated sales snapshot for a range and store selection.
// It is computed on demand and never stored.
type Stats struct {
	TotalOrders       int64              `json:"total_orders"`
	TotalRevenue      float64            `json:"total_revenue"`
	AverageOrderValue float64            `json:"average_order_value"`
	PaymentBreakdown  []PaymentBreakdown `json:"payment_breakdown"`
	TopProducts       []TopProduct       `json:"top_products"`
	StoreBreakdown    []StoreBreakdown   `json:"store_breakdown"`
}

// StoreNamer resolves display names for store IDs
type StoreNamer interface {
	Name(storeID string) string
}

// StatsOptions tunes the aggregation
type StatsOptions struct {
	// PerStoreProducts ranks products per (name, store) instead of per name
	PerStoreProducts bool
	Names            StoreNamer
}

// AggregateGroup is a pre-aggregated slice of orders sharing a payment method and store
type AggregateGroup struct {
	PaymentMethod string  `json:"payment_method" bson:"paymentMethod"`
	StoreID       string  `json:"store_id" bson:"storeId"`
	OrderCount    int64   `json:"order_count" bson:"orderCount"`
	Revenue       float64 `json:"revenue" bson:"revenue"`
}

// RawAggregates is what the persistence layer returns for a stats query
type RawAggregates struct {
	Groups []AggregateGroup `json:"groups"`
}

// ComputeStats folds orders and product lines into a Stats snapshot. It is pure.
func ComputeStats(orders []Order, products []ProductLine, opts StatsOptions) Stats {
	groups := make([]AggregateGroup, 0, len(orders))
	for i := range orders {
		groups = append(groups, AggregateGroup{
			PaymentMethod: orders[i].PaymentMethod,
			StoreID:       orders[i].StoreID,
			OrderCount:    1,
			Revenue:       orders[i].NetRevenue(),
		})
	}
	return foldStats(groups, products, opts)
}

// StatsFromAggregates builds a Stats snapshot from grouped sums read from storage.
// For the same orders it yields the same snapshot as ComputeStats.
func StatsFromAggregates(raw *RawAggregates, products []ProductLine, opts StatsOptions) Stats {
	var groups []AggregateGroup
	if raw != nil {
		groups = raw.Groups
	}
	return foldStats(groups, products, opts)
}

func foldStats(groups []AggregateGroup, products []ProductLine, opts StatsOptions) Stats {
	stats := Stats{
		PaymentBreakdown: []PaymentBreakdown{},
		TopProducts:      []TopProduct{},
		StoreBreakdown:   []StoreBreakdown{},
	}

	byCategory := make(map[PaymentCategory]*PaymentBreakdown)
	byStore := make(map[string]*StoreBreakdown)

	for _, g := range groups {
		stats.TotalOrders += g.OrderCount
		stats.TotalRevenue += g.Revenue

		category := CategorizePayment(g.PaymentMethod)
		pb, ok := byCategory[category]
		if !ok {
			pb = &PaymentBreakdown{Category: category}
			byCategory[category] = pb
		}
		pb.OrderCount += g.OrderCount
		pb.TotalAmount += g.Revenue

		sb, ok := byStore[g.StoreID]
		if !ok {
			sb = &StoreBreakdown{StoreID: g.StoreID, StoreName: storeName(opts.Names, g.StoreID)}
			byStore[g.StoreID] = sb
		}
		sb.OrderCount += g.OrderCount
		sb.TotalAmount += g.Revenue
	}

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}

	for _, pb := range byCategory {
		stats.PaymentBreakdown = append(stats.PaymentBreakdown, *pb)
	}
	sort.Slice(stats.PaymentBreakdown, func(i, j int) bool {
		a, b := stats.PaymentBreakdown[i], stats.PaymentBreakdown[j]
		if a.TotalAmount != b.TotalAmount {
			return a.TotalAmount > b.TotalAmount
		}
		return a.Category < b.Category
	})

	for _, sb := range byStore {
		stats.StoreBreakdown = append(stats.StoreBreakdown, *sb)
	}
	sort.Slice(stats.StoreBreakdown, func(i, j int) bool {
		a, b := stats.StoreBreakdown[i], stats.StoreBreakdown[j]
		if a.TotalAmount != b.TotalAmount {
			return a.TotalAmount > b.TotalAmount
		}
		return a.StoreID < b.StoreID
	})

	stats.TopProducts = TopProducts(products, opts.PerStoreProducts, TopProductsLimit)
	return stats
}

// TopProducts ranks product lines by summed revenue, highest first, keeping at most limit entries
func TopProducts(products []ProductLine, perStore bool, limit int) []TopProduct {
	type key struct{ name, store string }

	index := make(map[key]*TopProduct)
	var order []key
	for i := range products {
		p := &products[i]
		name := strings.TrimSpace(p.Name)
		k := key{name: name}
		if perStore {
			k.store = p.StoreID
		}
		tp, ok := index[k]
		if !ok {
			tp = &TopProduct{Name: name, StoreID: k.store}
			index[k] = tp
			order = append(order, k)
		}
		tp.TimesSold += p.Quantity
		tp.TotalRevenue += p.Total
	}

	out := make([]TopProduct, 0, len(order))
	for _, k := range order {
		out = append(out, *index[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRevenue != out[j].TotalRevenue {
			return out[i].TotalRevenue > out[j].TotalRevenue
		}
		return out[i].Name < out[j].Name
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func storeName(names StoreNamer, storeID string) string {
	if names == nil {
		return storeID
	}
	return names.Name(storeID)
}
