package entity

import (
	"time"

	"linisco-sync-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoTokenDoc represents a store's upstream token in MongoDB
type MongoTokenDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StoreID   string             `bson:"storeId"`
	Email     string             `bson:"email"`
	Token     string             `bson:"token"`
	IssuedAt  time.Time          `bson:"issuedAt"`
	ExpiresAt time.Time          `bson:"expiresAt"`
	Status    string             `bson:"status"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoTokenDoc) ToDomain() *domain.Token {
	return &domain.Token{
		StoreID:   d.StoreID,
		Email:     d.Email,
		Value:     d.Token,
		IssuedAt:  d.IssuedAt,
		ExpiresAt: d.ExpiresAt,
		Status:    domain.TokenStatus(d.Status),
	}
}

// MongoTokenDocFromDomain converts a domain entity to a MongoDB document
func MongoTokenDocFromDomain(token *domain.Token) *MongoTokenDoc {
	return &MongoTokenDoc{
		StoreID:   token.StoreID,
		Email:     token.Email,
		Token:     token.Value,
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
		Status:    string(token.Status),
	}
}

// MongoStoreSyncDoc represents the last sync of a store in MongoDB
type MongoStoreSyncDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StoreID   string             `bson:"storeId"`
	LastSync  time.Time          `bson:"lastSync"`
	Success   bool               `bson:"success"`
	Records   int                `bson:"records"`
	LastError string             `bson:"lastError,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoStoreSyncDoc) ToDomain() *domain.StoreSync {
	return &domain.StoreSync{
		StoreID:   d.StoreID,
		LastSync:  d.LastSync,
		Success:   d.Success,
		Records:   d.Records,
		LastError: d.LastError,
	}
}

// MongoStoreSyncDocFromDomain converts a domain entity to a MongoDB document
func MongoStoreSyncDocFromDomain(entry *domain.StoreSync) *MongoStoreSyncDoc {
	return &MongoStoreSyncDoc{
		StoreID:   entry.StoreID,
		LastSync:  entry.LastSync,
		Success:   entry.Success,
		Records:   entry.Records,
		LastError: entry.LastError,
	}
}
