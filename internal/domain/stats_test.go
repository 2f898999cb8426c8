package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizePayment(t *testing.T) {
	tests := []struct {
		method   string
		expected PaymentCategory
	}{
		{"cash", PaymentCash},
		{"cc_pedidosyaft", PaymentCash},
		{"cc_rappiol", PaymentApps},
		{"cc_pedidosyaol", PaymentApps},
		{"cc_visa", PaymentOthers},
		{"", PaymentOthers},
		{"CASH", PaymentOthers},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizePayment(tt.method))
		})
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, nil, StatsOptions{})

	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.TotalRevenue)
	assert.Zero(t, stats.AverageOrderValue)
	assert.NotNil(t, stats.PaymentBreakdown)
	assert.Empty(t, stats.PaymentBreakdown)
	assert.Empty(t, stats.StoreBreakdown)
	assert.Empty(t, stats.TopProducts)
}

func TestComputeStatsRevenue(t *testing.T) {
	orders := []Order{
		{OrderID: "1", StoreID: "63953", Total: 1500, PaymentMethod: "cash"},
		{OrderID: "2", StoreID: "63953", Total: 2400, PaymentMethod: "cc_rappiol"},
		{OrderID: "3", StoreID: "66220", Total: 3200, Discount: 200, PaymentMethod: "cc_pedidosyaft"},
		{OrderID: "4", StoreID: "72267", Total: 1800, PaymentMethod: "cc_visa"},
		{OrderID: "5", StoreID: "66220", Total: 100, Discount: 150, PaymentMethod: "cash"},
	}

	stats := ComputeStats(orders, nil, StatsOptions{})

	var want float64
	for i := range orders {
		want += orders[i].Total - orders[i].Discount
	}
	assert.Equal(t, int64(5), stats.TotalOrders)
	assert.InDelta(t, want, stats.TotalRevenue, 1e-9)
	assert.InDelta(t, stats.TotalRevenue, stats.AverageOrderValue*float64(stats.TotalOrders), 1e-9)
}

func TestComputeStatsBreakdowns(t *testing.T) {
	orders := []Order{
		{OrderID: "1", StoreID: "A", Total: 100, PaymentMethod: "cash"},
		{OrderID: "2", StoreID: "B", Total: 500, PaymentMethod: "cc_rappiol"},
		{OrderID: "3", StoreID: "B", Total: 50, PaymentMethod: "mystery"},
		{OrderID: "4", StoreID: "A", Total: 20, PaymentMethod: "cc_pedidosyaft"},
	}
	names := NewStoreDirectory([]Store{{StoreID: "A", StoreName: "Alpha"}, {StoreID: "B", StoreName: "Beta"}})

	stats := ComputeStats(orders, nil, StatsOptions{Names: names})

	require.Len(t, stats.PaymentBreakdown, 3)
	assert.Equal(t, PaymentBreakdown{Category: PaymentApps, OrderCount: 1, TotalAmount: 500}, stats.PaymentBreakdown[0])
	assert.Equal(t, PaymentBreakdown{Category: PaymentCash, OrderCount: 2, TotalAmount: 120}, stats.PaymentBreakdown[1])
	assert.Equal(t, PaymentBreakdown{Category: PaymentOthers, OrderCount: 1, TotalAmount: 50}, stats.PaymentBreakdown[2])

	require.Len(t, stats.StoreBreakdown, 2)
	assert.Equal(t, StoreBreakdown{StoreID: "B", StoreName: "Beta", OrderCount: 2, TotalAmount: 550}, stats.StoreBreakdown[0])
	assert.Equal(t, StoreBreakdown{StoreID: "A", StoreName: "Alpha", OrderCount: 2, TotalAmount: 120}, stats.StoreBreakdown[1])
}

func TestStatsJSONUsesSnakeCase(t *testing.T) {
	orders := []Order{{OrderID: "1", StoreID: "A", Total: 100, PaymentMethod: "cash"}}
	products := []ProductLine{{OrderID: "1", StoreID: "A", Name: "Cono", Quantity: 1, Total: 100}}

	raw, err := json.Marshal(ComputeStats(orders, products, StatsOptions{}))
	require.NoError(t, err)

	var payload struct {
		TotalOrders       *int64                   `json:"total_orders"`
		TotalRevenue      *float64                 `json:"total_revenue"`
		AverageOrderValue *float64                 `json:"average_order_value"`
		PaymentBreakdown  []map[string]interface{} `json:"payment_breakdown"`
		TopProducts       []map[string]interface{} `json:"top_products"`
		StoreBreakdown    []map[string]interface{} `json:"store_breakdown"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.NotNil(t, payload.TotalOrders)
	require.NotNil(t, payload.TotalRevenue)
	require.NotNil(t, payload.AverageOrderValue)
	require.Len(t, payload.PaymentBreakdown, 1)
	require.Len(t, payload.TopProducts, 1)
	require.Len(t, payload.StoreBreakdown, 1)

	assert.Contains(t, payload.PaymentBreakdown[0], "order_count")
	assert.Contains(t, payload.TopProducts[0], "total_revenue")
	assert.Contains(t, payload.StoreBreakdown[0], "total_amount")
	assert.NotContains(t, string(raw), "totalOrders")
}

func TestTopProductsOrdering(t *testing.T) {
	products := []ProductLine{
		{Name: "X", Total: 100, Quantity: 1},
		{Name: "Y", Total: 300, Quantity: 2},
		{Name: "Y", Total: 50, Quantity: 1},
	}

	top := TopProducts(products, false, TopProductsLimit)

	require.Len(t, top, 2)
	assert.Equal(t, "Y", top[0].Name)
	assert.Equal(t, 350.0, top[0].TotalRevenue)
	assert.Equal(t, 3.0, top[0].TimesSold)
	assert.Equal(t, "X", top[1].Name)
	assert.Equal(t, 100.0, top[1].TotalRevenue)
}

func TestTopProductsTruncatesAndScopesPerStore(t *testing.T) {
	var products []ProductLine
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		products = append(products, ProductLine{Name: name, StoreID: "S1", Total: float64(10 * (i + 1)), Quantity: 1})
	}
	products = append(products, ProductLine{Name: "g", StoreID: "S2", Total: 5, Quantity: 1})

	top := TopProducts(products, false, TopProductsLimit)
	require.Len(t, top, TopProductsLimit)
	assert.Equal(t, "g", top[0].Name)
	assert.Equal(t, 75.0, top[0].TotalRevenue)

	perStore := TopProducts(products, true, 0)
	require.Len(t, perStore, 8)
	assert.Equal(t, TopProduct{Name: "g", StoreID: "S1", TimesSold: 1, TotalRevenue: 70}, perStore[0])
	assert.Equal(t, TopProduct{Name: "g", StoreID: "S2", TimesSold: 1, TotalRevenue: 5}, perStore[7])
}

func TestStatsFromAggregatesMatchesComputeStats(t *testing.T) {
	orders := []Order{
		{OrderID: "1", StoreID: "A", Total: 100, PaymentMethod: "cash"},
		{OrderID: "2", StoreID: "A", Total: 200, Discount: 10, PaymentMethod: "cash"},
		{OrderID: "3", StoreID: "B", Total: 70, PaymentMethod: "cc_pedidosyaol"},
	}
	raw := &RawAggregates{Groups: []AggregateGroup{
		{PaymentMethod: "cash", StoreID: "A", OrderCount: 2, Revenue: 290},
		{PaymentMethod: "cc_pedidosyaol", StoreID: "B", OrderCount: 1, Revenue: 70},
	}}

	assert.Equal(t, ComputeStats(orders, nil, StatsOptions{}), StatsFromAggregates(raw, nil, StatsOptions{}))
	assert.Zero(t, StatsFromAggregates(nil, nil, StatsOptions{}).AverageOrderValue)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("2025-10-17", "2025-10-17")
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2025, 10, 17, 23, 30, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-10-17", r.FromParam())
	assert.Equal(t, "2025-10-17", r.ToParam())

	r, err = ParseRange("2025-10-17T10:00:00Z", "2025-10-17T12:00:00Z")
	require.NoError(t, err)
	assert.False(t, r.Contains(time.Date(2025, 10, 17, 12, 0, 1, 0, time.UTC)))

	for _, tc := range [][2]string{{"", "2025-10-17"}, {"2025-10-17", ""}, {"17/10/2025", "2025-10-18"}, {"2025-10-18", "2025-10-17"}} {
		_, err := ParseRange(tc[0], tc[1])
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "range %v", tc)
	}
}
