package linisco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"linisco-sync-layer/internal/domain"
)

// record is one upstream row. The upstream is loose about field spellings and
// number encodings, so rows are read field by field instead of into fixed structs.
type record map[string]interface{}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// decodeRecords accepts either a bare array or an object wrapping the array under data, items or results
func decodeRecords(body []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	switch trimmed[0] {
	case '[':
		var rows []record
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
		return rows, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := dec.Decode(&envelope); err != nil {
			return nil, fmt.Errorf("failed to decode envelope: %w", err)
		}
		for _, key := range []string{"data", "items", "results"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				return nil, nil
			}
			inner := json.NewDecoder(bytes.NewReader(raw))
			inner.UseNumber()
			var rows []record
			if err := inner.Decode(&rows); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", key, err)
			}
			return rows, nil
		}
		return nil, fmt.Errorf("response object has no record list")
	default:
		return nil, fmt.Errorf("unexpected response body: %s", snippet(trimmed))
	}
}

// decodeBatch turns a response body into a batch stamped with the requesting store.
// Rows missing their identifying fields are skipped and counted.
func decodeBatch(endpoint domain.Endpoint, storeID string, body []byte) (*domain.Batch, int, error) {
	rows, err := decodeRecords(body)
	if err != nil {
		return nil, 0, err
	}

	batch := &domain.Batch{Endpoint: endpoint, StoreID: storeID, Source: domain.SourceReal}
	skipped := 0
	for _, row := range rows {
		var ok bool
		switch endpoint {
		case domain.EndpointOrders:
			var o domain.Order
			if o, ok = row.order(storeID); ok {
				batch.Orders = append(batch.Orders, o)
			}
		case domain.EndpointProducts:
			var p domain.ProductLine
			if p, ok = row.product(storeID); ok {
				batch.Products = append(batch.Products, p)
			}
		case domain.EndpointSessions:
			var s domain.Session
			if s, ok = row.session(storeID); ok {
				batch.Sessions = append(batch.Sessions, s)
			}
		default:
			return nil, 0, fmt.Errorf("unknown endpoint %s", endpoint)
		}
		if !ok {
			skipped++
		}
	}
	return batch, skipped, nil
}

func (r record) order(storeID string) (domain.Order, bool) {
	id := r.str("idSaleOrder", "id_sale_order", "orderId", "order_id", "id")
	date, hasDate := r.timestamp("orderDate", "order_date", "date", "created_at")
	if id == "" || !hasDate {
		return domain.Order{}, false
	}
	total, _ := r.num("total", "amount")
	discount, _ := r.num("discount")
	return domain.Order{
		OrderID:       id,
		StoreID:       storeID,
		OrderDate:     date,
		Total:         total,
		Discount:      discount,
		PaymentMethod: r.str("paymentmethod", "paymentMethod", "payment_method"),
	}, true
}

func (r record) product(storeID string) (domain.ProductLine, bool) {
	p := domain.ProductLine{
		ProductID: r.str("idSaleProduct", "id_sale_product", "productId", "product_id", "id"),
		OrderID:   r.str("idSaleOrder", "id_sale_order", "orderId", "order_id"),
		StoreID:   storeID,
		Name:      strings.TrimSpace(r.str("name", "fixed_name", "fixedName", "product_name")),
	}
	if p.OrderID == "" || (p.ProductID == "" && p.Name == "") {
		return domain.ProductLine{}, false
	}

	quantity, ok := r.num("quantity", "qty")
	if !ok {
		quantity = 1
	}
	p.Quantity = quantity
	p.Price, _ = r.num("price", "sale_price", "salePrice", "unit_price")
	if total, ok := r.num("total", "total_price", "totalPrice"); ok {
		p.Total = total
	} else {
		p.Total = p.Price * p.Quantity
	}
	return p, true
}

func (r record) session(storeID string) (domain.Session, bool) {
	id := r.str("idSession", "id_session", "sessionId", "session_id", "id")
	start, hasStart := r.timestamp("checkin", "start_time", "startTime", "opened_at")
	if id == "" || !hasStart {
		return domain.Session{}, false
	}
	s := domain.Session{SessionID: id, StoreID: storeID, StartTime: start, Status: r.str("status")}
	if end, ok := r.timestamp("checkout", "end_time", "endTime", "closed_at"); ok {
		s.EndTime = &end
	}
	if s.Status == "" {
		s.Status = "open"
		if s.EndTime != nil {
			s.Status = "closed"
		}
	}
	return s, true
}

func (r record) lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r record) str(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func (r record) num(keys ...string) (float64, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

func (r record) timestamp(keys ...string) (time.Time, bool) {
	s := r.str(keys...)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
