package repository

import (
	"context"
	"fmt"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSyncLogRepository implements SyncLogRepository using MongoDB.
// It keeps one document per store in the store_syncs collection.
type MongoSyncLogRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncLogRepository creates a new MongoDB sync log repository
func NewMongoSyncLogRepository(db *mongo.Database) *MongoSyncLogRepository {
	return &MongoSyncLogRepository{
		collection: db.Collection("store_syncs"),
	}
}

// EnsureIndexes creates the unique index on storeId
func (r *MongoSyncLogRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "storeId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create store sync index: %w", err)
	}
	return nil
}

// RecordSync overwrites the last sync entry of a store
func (r *MongoSyncLogRepository) RecordSync(ctx context.Context, entry *domain.StoreSync) error {
	doc := entity.MongoStoreSyncDocFromDomain(entry)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"storeId": entry.StoreID}
	update := bson.M{"$set": doc}
	if entry.LastError == "" {
		update["$unset"] = bson.M{"lastError": ""}
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}

	return nil
}

// ListStoreSyncs retrieves the last sync entry of every store
func (r *MongoSyncLogRepository) ListStoreSyncs(ctx context.Context) ([]*domain.StoreSync, error) {
	opts := options.Find().SetSort(bson.D{{Key: "storeId", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list store syncs: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*domain.StoreSync
	for cursor.Next(ctx) {
		var doc entity.MongoStoreSyncDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode store sync: %w", err)
		}
		entries = append(entries, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return entries, nil
}
