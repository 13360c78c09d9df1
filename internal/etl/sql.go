package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

// Web reviews created in the last @p1 minutes.
const webReviewsQuery = `
SELECT review_id, product_id, customer_id, created_at, review_text, rating, sentiment
FROM web_reviews
WHERE created_at >= DATEADD(minute, -@p1, SYSUTCDATETIME())
ORDER BY created_at`

// webReviewsMapping maps the columns of webReviewsQuery.
var webReviewsMapping = models.FieldMapping{
	ID:            []string{"review_id"},
	ProductID:     []string{"product_id"},
	CustomerID:    []string{"customer_id"},
	CreatedAt:     []string{"created_at"},
	Text:          []string{"review_text"},
	Rating:        []string{"rating"},
	Sentiment:     []string{"sentiment"},
	DefaultSource: "Web Reviews",
	RequireDate:   true,
}

type DatabaseOptions struct {
	// Window is how far back the query looks.
	Window  time.Duration
	Timeout time.Duration
}

// DatabaseExtractor runs a fixed, time-windowed query against a relational
// source of web reviews.
type DatabaseExtractor struct {
	db          *sql.DB
	opts        DatabaseOptions
	transformer *Transformer
	validator   *Validator
}

func NewDatabaseExtractor(db *sql.DB, opts DatabaseOptions) *DatabaseExtractor {
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	return &DatabaseExtractor{
		db:          db,
		opts:        opts,
		transformer: NewTransformer(webReviewsMapping, models.SourceDatabase),
		validator:   NewValidator(),
	}
}

func (e *DatabaseExtractor) Name() string { return "Database Extractor" }

func (e *DatabaseExtractor) SourceType() models.SourceType { return models.SourceDatabase }

func (e *DatabaseExtractor) ValidateConfiguration() bool {
	if e.db == nil {
		logger.Error("%s: connection string not configured", e.Name())
		return false
	}
	return true
}

func (e *DatabaseExtractor) Extract(ctx context.Context) models.ExtractionResult {
	return runExtraction(ctx, e.Name(), e.ValidateConfiguration(), e.opts.Timeout, e.extract)
}

func (e *DatabaseExtractor) extract(ctx context.Context, importedAt time.Time) ([]models.Comment, error) {
	rows, err := e.db.QueryContext(ctx, webReviewsQuery, int(e.opts.Window.Minutes()))
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan web review: %w", err)
		}

		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}

		comment, err := e.transformer.RowToComment(row, importedAt)
		if err != nil {
			logger.Warn("%s: skipping review %v: %v", e.Name(), row["review_id"], err)
			continue
		}
		comment, err = e.validator.Normalize(comment, webReviewsMapping.DefaultSource)
		if err != nil {
			logger.Warn("%s: skipping review %v: %v", e.Name(), row["review_id"], err)
			continue
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return comments, nil
}
