package entity

import (
	"time"

	"linisco-sync-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderDoc represents a sale order in MongoDB
type MongoOrderDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OrderID       string             `bson:"orderId"`
	StoreID       string             `bson:"storeId"`
	OrderDate     time.Time          `bson:"orderDate"`
	Total         float64            `bson:"total"`
	Discount      float64            `bson:"discount"`
	PaymentMethod string             `bson:"paymentMethod"`
	SyncedAt      time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderDoc) ToDomain() domain.Order {
	return domain.Order{
		OrderID:       d.OrderID,
		StoreID:       d.StoreID,
		OrderDate:     d.OrderDate,
		Total:         d.Total,
		Discount:      d.Discount,
		PaymentMethod: d.PaymentMethod,
		SyncedAt:      d.SyncedAt,
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderDocFromDomain(order *domain.Order) *MongoOrderDoc {
	return &MongoOrderDoc{
		OrderID:       order.OrderID,
		StoreID:       order.StoreID,
		OrderDate:     order.OrderDate,
		Total:         order.Total,
		Discount:      order.Discount,
		PaymentMethod: order.PaymentMethod,
		SyncedAt:      order.SyncedAt,
	}
}

// MongoProductDoc represents a product line in MongoDB.
// LineKey is stored so the (storeId, lineKey) unique index can enforce the natural key.
type MongoProductDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	LineKey   string             `bson:"lineKey"`
	ProductID string             `bson:"productId,omitempty"`
	OrderID   string             `bson:"orderId"`
	StoreID   string             `bson:"storeId"`
	Name      string             `bson:"name"`
	Quantity  float64            `bson:"quantity"`
	Price     float64            `bson:"price"`
	Total     float64            `bson:"total"`
	SyncedAt  time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoProductDoc) ToDomain() domain.ProductLine {
	return domain.ProductLine{
		ProductID: d.ProductID,
		OrderID:   d.OrderID,
		StoreID:   d.StoreID,
		Name:      d.Name,
		Quantity:  d.Quantity,
		Price:     d.Price,
		Total:     d.Total,
		SyncedAt:  d.SyncedAt,
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document
func MongoProductDocFromDomain(product *domain.ProductLine) *MongoProductDoc {
	return &MongoProductDoc{
		LineKey:   product.LineKey(),
		ProductID: product.ProductID,
		OrderID:   product.OrderID,
		StoreID:   product.StoreID,
		Name:      product.Name,
		Quantity:  product.Quantity,
		Price:     product.Price,
		Total:     product.Total,
		SyncedAt:  product.SyncedAt,
	}
}

// MongoSessionDoc represents a POS session in MongoDB
type MongoSessionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	SessionID string             `bson:"sessionId"`
	StoreID   string             `bson:"storeId"`
	StartTime time.Time          `bson:"startTime"`
	EndTime   *time.Time         `bson:"endTime,omitempty"`
	Status    string             `bson:"status"`
	SyncedAt  time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSessionDoc) ToDomain() domain.Session {
	return domain.Session{
		SessionID: d.SessionID,
		StoreID:   d.StoreID,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Status:    d.Status,
		SyncedAt:  d.SyncedAt,
	}
}

// MongoSessionDocFromDomain converts a domain entity to a MongoDB document
func MongoSessionDocFromDomain(session *domain.Session) *MongoSessionDoc {
	return &MongoSessionDoc{
		SessionID: session.SessionID,
		StoreID:   session.StoreID,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Status:    session.Status,
		SyncedAt:  session.SyncedAt,
	}
}

// MongoAggregateDoc is one group produced by the stats aggregation pipeline
type MongoAggregateDoc struct {
	Group struct {
		PaymentMethod string `bson:"paymentMethod"`
		StoreID       string `bson:"storeId"`
	} `bson:"_id"`
	OrderCount int64   `bson:"orderCount"`
	Revenue    float64 `bson:"revenue"`
}

// ToDomain converts the aggregation group to a domain entity
func (d *MongoAggregateDoc) ToDomain() domain.AggregateGroup {
	return domain.AggregateGroup{
		PaymentMethod: d.Group.PaymentMethod,
		StoreID:       d.Group.StoreID,
		OrderCount:    d.OrderCount,
		Revenue:       d.Revenue,
	}
}
