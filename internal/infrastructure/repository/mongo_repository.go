package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSalesRepository implements SalesRepository using MongoDB
type MongoSalesRepository struct {
	ordersCollection   *mongo.Collection
	productsCollection *mongo.Collection
	sessionsCollection *mongo.Collection
}

// NewMongoSalesRepository creates a new MongoDB sales repository
func NewMongoSalesRepository(db *mongo.Database) *MongoSalesRepository {
	return &MongoSalesRepository{
		ordersCollection:   db.Collection("orders"),
		productsCollection: db.Collection("products"),
		sessionsCollection: db.Collection("sessions"),
	}
}

// EnsureIndexes creates the unique indexes enforcing the natural keys, plus the date
// indexes used by range queries and cleanup
func (r *MongoSalesRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		models     []mongo.IndexModel
	}{
		{r.ordersCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "storeId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "orderDate", Value: 1}}},
		}},
		{r.productsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "storeId", Value: 1}, {Key: "lineKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "storeId", Value: 1}, {Key: "orderId", Value: 1}}},
			{Keys: bson.D{{Key: "syncedAt", Value: 1}}},
		}},
		{r.sessionsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "startTime", Value: 1}}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", idx.collection.Name(), err)
		}
	}
	return nil
}

// UpsertOrder saves or replaces an order keyed by (orderId, storeId)
func (r *MongoSalesRepository) UpsertOrder(ctx context.Context, order *domain.Order) error {
	doc := entity.MongoOrderDocFromDomain(order)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"orderId": order.OrderID, "storeId": order.StoreID}
	update := bson.M{"$set": doc}

	if _, err := r.ordersCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

// UpsertProduct saves or replaces a product line keyed by (storeId, lineKey)
func (r *MongoSalesRepository) UpsertProduct(ctx context.Context, product *domain.ProductLine) error {
	doc := entity.MongoProductDocFromDomain(product)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"storeId": product.StoreID, "lineKey": doc.LineKey}
	update := bson.M{"$set": doc}
	if product.ProductID == "" {
		update["$unset"] = bson.M{"productId": ""}
	}

	if _, err := r.productsCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// UpsertSession saves or replaces a session keyed by sessionId alone
func (r *MongoSalesRepository) UpsertSession(ctx context.Context, session *domain.Session) error {
	doc := entity.MongoSessionDocFromDomain(session)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"sessionId": session.SessionID}
	update := bson.M{"$set": doc}
	if session.EndTime == nil {
		update["$unset"] = bson.M{"endTime": ""}
	}

	if _, err := r.sessionsCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// ListOrders retrieves the orders dated inside the range
func (r *MongoSalesRepository) ListOrders(ctx context.Context, rng domain.Range, storeIDs []string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: 1}, {Key: "storeId", Value: 1}, {Key: "orderId", Value: 1}})
	cursor, err := r.ordersCollection.Find(ctx, ordersInRangeFilter(rng, storeIDs), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return orders, nil
}

// ListProducts retrieves the product lines of the given orders
func (r *MongoSalesRepository) ListProducts(ctx context.Context, orders []domain.OrderKey) ([]domain.ProductLine, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	cursor, err := r.productsCollection.Find(ctx, productsForOrdersFilter(orders))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []domain.ProductLine
	for cursor.Next(ctx) {
		var doc entity.MongoProductDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return products, nil
}

// QueryStats aggregates order counts and net revenue by payment method and store
func (r *MongoSalesRepository) QueryStats(ctx context.Context, rng domain.Range, storeIDs []string) (*domain.RawAggregates, error) {
	cursor, err := r.ordersCollection.Aggregate(ctx, statsPipeline(rng, storeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	defer cursor.Close(ctx)

	raw := &domain.RawAggregates{}
	for cursor.Next(ctx) {
		var doc entity.MongoAggregateDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode aggregate: %w", err)
		}
		raw.Groups = append(raw.Groups, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return raw, nil
}

// CountRecords counts the stored records of a store
func (r *MongoSalesRepository) CountRecords(ctx context.Context, storeID string) (domain.RecordCounts, error) {
	var counts domain.RecordCounts
	filter := bson.M{"storeId": storeID}

	var err error
	if counts.Orders, err = r.ordersCollection.CountDocuments(ctx, filter); err != nil {
		return counts, fmt.Errorf("failed to count orders: %w", err)
	}
	if counts.Products, err = r.productsCollection.CountDocuments(ctx, filter); err != nil {
		return counts, fmt.Errorf("failed to count products: %w", err)
	}
	if counts.Sessions, err = r.sessionsCollection.CountDocuments(ctx, filter); err != nil {
		return counts, fmt.Errorf("failed to count sessions: %w", err)
	}
	return counts, nil
}

// Cleanup deletes records older than cutoff. Tables are cleaned one after the
// other; a failure leaves earlier deletions in place.
func (r *MongoSalesRepository) Cleanup(ctx context.Context, cutoff time.Time) (*domain.CleanupResult, error) {
	result := &domain.CleanupResult{Cutoff: cutoff}

	res, err := r.ordersCollection.DeleteMany(ctx, bson.M{"orderDate": bson.M{"$lt": cutoff}})
	if err != nil {
		return result, fmt.Errorf("failed to delete old orders: %w", err)
	}
	result.OrdersDeleted = res.DeletedCount

	res, err = r.productsCollection.DeleteMany(ctx, bson.M{"syncedAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return result, fmt.Errorf("failed to delete old products: %w", err)
	}
	result.ProductsDeleted = res.DeletedCount

	res, err = r.sessionsCollection.DeleteMany(ctx, bson.M{"startTime": bson.M{"$lt": cutoff}})
	if err != nil {
		return result, fmt.Errorf("failed to delete old sessions: %w", err)
	}
	result.SessionsDeleted = res.DeletedCount

	return result, nil
}

func ordersInRangeFilter(rng domain.Range, storeIDs []string) bson.M {
	filter := bson.M{"orderDate": bson.M{"$gte": rng.From, "$lte": rng.To}}
	if len(storeIDs) > 0 {
		filter["storeId"] = bson.M{"$in": storeIDs}
	}
	return filter
}

func statsPipeline(rng domain.Range, storeIDs []string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: ordersInRangeFilter(rng, storeIDs)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "paymentMethod", Value: "$paymentMethod"}, {Key: "storeId", Value: "$storeId"}}},
			{Key: "orderCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$subtract", Value: bson.A{"$total", "$discount"}}}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.storeId", Value: 1}, {Key: "_id.paymentMethod", Value: 1}}}},
	}
}

// productsForOrdersFilter groups the order keys per store so each store becomes one $in clause
func productsForOrdersFilter(orders []domain.OrderKey) bson.M {
	byStore := make(map[string][]string)
	for _, k := range orders {
		byStore[k.StoreID] = append(byStore[k.StoreID], k.OrderID)
	}

	stores := make([]string, 0, len(byStore))
	for storeID := range byStore {
		stores = append(stores, storeID)
	}
	sort.Strings(stores)

	clauses := make(bson.A, 0, len(stores))
	for _, storeID := range stores {
		clauses = append(clauses, bson.M{"storeId": storeID, "orderId": bson.M{"$in": byStore[storeID]}})
	}
	return bson.M{"$or": clauses}
}
