package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

const (
	factTable          = "fact_opinions"
	factRowsPerBatch   = 1000
	defaultCommentType = "Review"
)

// Fallback surrogate keys for facts whose dimension could not be resolved.
// The client key is also used for comments without a customer.
const (
	DefaultClientKey    = 1
	DefaultProductKey   = 1
	DefaultSourceKey    = 1
	DefaultSentimentKey = 3
)

var factColumns = []string{
	"client_key", "product_key", "time_key", "source_key", "sentiment_key",
	"rating", "sentiment_score", "comment_text", "comment_length", "word_count",
	"contains_keywords", "original_comment_id", "comment_type", "channel_code",
	"created_date", "etl_batch_id",
}

type keyLookup interface {
	Get(dim Dimension, natural string) (int, bool)
}

func lookupOr(keys keyLookup, dim Dimension, natural string, fallback int) int {
	if key, ok := keys.Get(dim, natural); ok {
		return key
	}
	return fallback
}

// buildFacts turns comments into fact rows using keys already resolved for
// every dimension.
func buildFacts(comments []models.Comment, keys keyLookup, batchID string, loadedAt time.Time) []models.FactOpinion {
	facts := make([]models.FactOpinion, 0, len(comments))
	for _, c := range comments {
		clientKey := DefaultClientKey
		if c.CustomerID != "" {
			clientKey = lookupOr(keys, DimClient, c.CustomerID, DefaultClientKey)
		}
		facts = append(facts, models.FactOpinion{
			ClientKey:         clientKey,
			ProductKey:        lookupOr(keys, DimProduct, c.ProductID, DefaultProductKey),
			TimeKey:           TimeKey(c.CreatedAt),
			SourceKey:         lookupOr(keys, DimSource, c.Source, DefaultSourceKey),
			SentimentKey:      lookupOr(keys, DimSentiment, naturalSentimentKey(c.Sentiment), DefaultSentimentKey),
			Rating:            c.Rating,
			SentimentScore:    SentimentScore(c.Sentiment),
			CommentText:       c.Text,
			CommentLength:     utf8.RuneCountInString(c.Text),
			WordCount:         len(strings.Fields(c.Text)),
			ContainsKeywords:  false,
			OriginalCommentID: c.ID,
			CommentType:       defaultCommentType,
			ChannelCode:       c.SourceType.String(),
			CreatedDate:       loadedAt,
			ETLBatchID:        batchID,
		})
	}
	return facts
}

// writeFacts streams rows through a single bulk copy inside tx and returns
// the number of rows the server reports.
func writeFacts(ctx context.Context, tx *sql.Tx, facts []models.FactOpinion) (int, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(factTable, mssql.BulkOptions{RowsPerBatch: factRowsPerBatch}, factColumns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk copy: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		var rating interface{}
		if f.Rating != nil {
			rating = *f.Rating
		}
		_, err := stmt.ExecContext(ctx,
			f.ClientKey, f.ProductKey, f.TimeKey, f.SourceKey, f.SentimentKey,
			rating, f.SentimentScore, f.CommentText, f.CommentLength, f.WordCount,
			f.ContainsKeywords, f.OriginalCommentID, f.CommentType, f.ChannelCode,
			f.CreatedDate, f.ETLBatchID)
		if err != nil {
			return 0, fmt.Errorf("buffer fact row: %w", err)
		}
	}

	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("flush bulk copy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk copy row count: %w", err)
	}
	return int(n), nil
}
