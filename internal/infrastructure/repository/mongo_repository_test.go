package repository

import (
	"testing"

	"linisco-sync-layer/internal/domain"
	"linisco-sync-layer/internal/infrastructure/repository/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestOrdersInRangeFilter(t *testing.T) {
	rng := fullDay(t, "2025-10-17")

	all := ordersInRangeFilter(rng, nil)
	assert.Equal(t, bson.M{"$gte": rng.From, "$lte": rng.To}, all["orderDate"])
	assert.NotContains(t, all, "storeId")

	some := ordersInRangeFilter(rng, []string{"A", "B"})
	assert.Equal(t, bson.M{"$in": []string{"A", "B"}}, some["storeId"])
}

func TestStatsPipelineGroupsByPaymentMethodAndStore(t *testing.T) {
	pipeline := statsPipeline(fullDay(t, "2025-10-17"), nil)
	require.Len(t, pipeline, 3)
	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, "$group", pipeline[1][0].Key)

	group, ok := pipeline[1][0].Value.(bson.D)
	require.True(t, ok)
	id, ok := group.Map()["_id"].(bson.D)
	require.True(t, ok)
	assert.Equal(t, "$paymentMethod", id.Map()["paymentMethod"])
	assert.Equal(t, "$storeId", id.Map()["storeId"])
}

func TestProductsForOrdersFilterGroupsByStore(t *testing.T) {
	filter := productsForOrdersFilter([]domain.OrderKey{
		{OrderID: "2", StoreID: "B"},
		{OrderID: "1", StoreID: "A"},
		{OrderID: "3", StoreID: "A"},
	})

	clauses, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, clauses, 2)
	assert.Equal(t, bson.M{"storeId": "A", "orderId": bson.M{"$in": []string{"1", "3"}}}, clauses[0])
	assert.Equal(t, bson.M{"storeId": "B", "orderId": bson.M{"$in": []string{"2"}}}, clauses[1])
}

func TestProductDocCarriesLineKey(t *testing.T) {
	withID := entity.MongoProductDocFromDomain(&domain.ProductLine{ProductID: "p1", OrderID: "1", StoreID: "A", Name: "Sub"})
	assert.Equal(t, "p1", withID.LineKey)

	withoutID := entity.MongoProductDocFromDomain(&domain.ProductLine{OrderID: "1", StoreID: "A", Name: "Sub"})
	assert.Equal(t, "1/Sub", withoutID.LineKey)
	assert.Equal(t, "Sub", withoutID.ToDomain().Name)
}

func TestTokenDocDropsDemoFlag(t *testing.T) {
	doc := entity.MongoTokenDocFromDomain(&domain.Token{StoreID: "A", Value: "tok", Status: domain.TokenActive, Demo: true})
	token := doc.ToDomain()
	assert.Equal(t, "tok", token.Value)
	assert.Equal(t, domain.TokenActive, token.Status)
	assert.False(t, token.Demo)
}
