package etl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

func TestMongoExtractor_DocumentToComment(t *testing.T) {
	m := NewMongoExtractor(nil, MongoOptions{Database: "opinions", Collection: "reviews"})
	importedAt := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC)
	id := primitive.NewObjectID()

	c, err := m.documentToComment(bson.M{
		"_id":        id,
		"productId":  "P1",
		"customerId": "C1",
		"createdAt":  primitive.NewDateTimeFromTime(created),
		"text":       " great ",
		"stars":      int32(5),
		"sentiment":  "VeryPositive",
	}, importedAt)
	require.NoError(t, err)

	assert.Equal(t, id.Hex(), c.ID)
	assert.Equal(t, "P1", c.ProductID)
	assert.Equal(t, "great", c.Text)
	assert.True(t, created.Equal(c.CreatedAt))
	require.NotNil(t, c.Rating)
	assert.Equal(t, 5.0, *c.Rating)
	assert.Equal(t, models.VeryPositive, c.Sentiment)
	assert.Equal(t, models.SourceDatabase, c.SourceType)
	assert.Equal(t, "Review Store", c.Source)
	assert.Equal(t, importedAt, c.ImportedAt)
}

func TestMongoExtractor_DocumentWithoutDateIsSkipped(t *testing.T) {
	m := NewMongoExtractor(nil, MongoOptions{Database: "opinions", Collection: "reviews"})
	_, err := m.documentToComment(bson.M{"productId": "P1", "text": "ok"}, time.Now())
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestMongoExtractor_FilterUsesWindow(t *testing.T) {
	m := NewMongoExtractor(nil, MongoOptions{Window: 2 * time.Hour})
	m.now = func() time.Time { return time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC) }

	created, ok := m.Filter()["createdAt"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC), created["$gte"])
}

func TestMongoExtractor_WithoutClientFailsSoft(t *testing.T) {
	m := NewMongoExtractor(nil, MongoOptions{Database: "opinions", Collection: "reviews"})
	assert.False(t, m.ValidateConfiguration())

	result := m.Extract(context.Background())
	assert.False(t, result.Success)
	assert.Equal(t, "MongoDB Extractor", result.SourceName)
	assert.NotEmpty(t, result.ErrorMessage)
}
