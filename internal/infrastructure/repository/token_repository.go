package repository

import (
	"context"
	"fmt"
	"time"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTokenRepository implements TokenRepository using MongoDB
type MongoTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoTokenRepository creates a new MongoDB token repository
func NewMongoTokenRepository(db *mongo.Database) *MongoTokenRepository {
	return &MongoTokenRepository{
		collection: db.Collection("tokens"),
	}
}

// EnsureIndexes creates the unique index on storeId
func (r *MongoTokenRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "storeId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create token index: %w", err)
	}
	return nil
}

// GetToken retrieves the token of a store
func (r *MongoTokenRepository) GetToken(ctx context.Context, storeID string) (*domain.Token, error) {
	var doc entity.MongoTokenDoc
	filter := bson.M{"storeId": storeID}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return doc.ToDomain(), nil
}

// SaveToken saves or overwrites the token row of its store
func (r *MongoTokenRepository) SaveToken(ctx context.Context, token *domain.Token) error {
	doc := entity.MongoTokenDocFromDomain(token)
	doc.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"storeId": token.StoreID}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// UpdateTokenStatus changes the status of an existing token row
func (r *MongoTokenRepository) UpdateTokenStatus(ctx context.Context, storeID string, status domain.TokenStatus) error {
	filter := bson.M{"storeId": storeID}
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now()}}

	_, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update token status: %w", err)
	}

	return nil
}

// ListTokens retrieves all tokens
func (r *MongoTokenRepository) ListTokens(ctx context.Context) ([]*domain.Token, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []*domain.Token
	for cursor.Next(ctx) {
		var doc entity.MongoTokenDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		tokens = append(tokens, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return tokens, nil
}

// ExpireTokens marks overdue active tokens as expired
func (r *MongoTokenRepository) ExpireTokens(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":    string(domain.TokenActive),
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{"status": string(domain.TokenExpired), "updatedAt": now}}

	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire tokens: %w", err)
	}

	return res.ModifiedCount, nil
}
