package etl

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

// reviewDocumentMapping maps opinion documents of the review collection.
var reviewDocumentMapping = models.FieldMapping{
	ID:            []string{"_id", "reviewId"},
	ProductID:     []string{"productId", "product_id"},
	CustomerID:    []string{"customerId", "customer_id", "userId"},
	CreatedAt:     []string{"createdAt", "created_at"},
	Text:          []string{"text", "comment", "body"},
	Rating:        []string{"rating", "stars"},
	Source:        []string{"source"},
	Sentiment:     []string{"sentiment"},
	DefaultSource: "Review Store",
	RequireDate:   true,
}

type MongoOptions struct {
	Database   string
	Collection string
	Window     time.Duration
	Timeout    time.Duration
}

// MongoExtractor reads opinion documents created within a time window from
// a MongoDB collection.
type MongoExtractor struct {
	client      *mongo.Client
	opts        MongoOptions
	transformer *Transformer
	validator   *Validator
	now         func() time.Time
}

func NewMongoExtractor(client *mongo.Client, opts MongoOptions) *MongoExtractor {
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	return &MongoExtractor{
		client:      client,
		opts:        opts,
		transformer: NewTransformer(reviewDocumentMapping, models.SourceDatabase),
		validator:   NewValidator(),
		now:         time.Now,
	}
}

func (m *MongoExtractor) Name() string { return "MongoDB Extractor" }

func (m *MongoExtractor) SourceType() models.SourceType { return models.SourceDatabase }

func (m *MongoExtractor) ValidateConfiguration() bool {
	if m.client == nil {
		logger.Error("%s: client not configured", m.Name())
		return false
	}
	if m.opts.Database == "" || m.opts.Collection == "" {
		logger.Error("%s: database and collection are required", m.Name())
		return false
	}
	return true
}

func (m *MongoExtractor) Extract(ctx context.Context) models.ExtractionResult {
	return runExtraction(ctx, m.Name(), m.ValidateConfiguration(), m.opts.Timeout, m.extract)
}

// Filter selects documents created since the start of the window.
func (m *MongoExtractor) Filter() bson.M {
	since := m.now().UTC().Add(-m.opts.Window)
	return bson.M{"createdAt": bson.M{"$gte": since}}
}

func (m *MongoExtractor) extract(ctx context.Context, importedAt time.Time) ([]models.Comment, error) {
	coll := m.client.Database(m.opts.Database).Collection(m.opts.Collection)

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := coll.Find(ctx, m.Filter(), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			logger.Errorf("Error decoding mongo doc: %v", err)
			continue
		}
		comment, err := m.documentToComment(doc, importedAt)
		if err != nil {
			logger.Warn("%s: skipping document %v: %v", m.Name(), doc["_id"], err)
			continue
		}
		comments = append(comments, comment)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return comments, nil
}

func (m *MongoExtractor) documentToComment(doc bson.M, importedAt time.Time) (models.Comment, error) {
	comment, err := m.transformer.RowToComment(doc, importedAt)
	if err != nil {
		return models.Comment{}, err
	}
	return m.validator.Normalize(comment, reviewDocumentMapping.DefaultSource)
}
