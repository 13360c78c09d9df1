package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

func TestDatabaseExtractor_MapsWindowedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 3, 7, 18, 45, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"review_id", "product_id", "customer_id", "created_at", "review_text", "rating", "sentiment"}).
		AddRow(int64(501), "P1", "C1", created, "Fast shipping", []byte("4.50"), int64(5)).
		AddRow(int64(502), "P2", nil, created, "Too small", nil, nil).
		AddRow(int64(503), "P3", "C3", nil, "no timestamp", nil, nil)
	mock.ExpectQuery("FROM web_reviews").WithArgs(1440).WillReturnRows(rows)

	e := NewDatabaseExtractor(db, DatabaseOptions{Window: 24 * time.Hour, Timeout: time.Second})
	require.True(t, e.ValidateConfiguration())

	res := e.Extract(context.Background())
	require.True(t, res.Success, res.ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, res.Comments, 2)

	first := res.Comments[0]
	assert.Equal(t, "501", first.ID)
	assert.Equal(t, "P1", first.ProductID)
	assert.Equal(t, "C1", first.CustomerID)
	assert.Equal(t, created, first.CreatedAt)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.5, *first.Rating)
	assert.Equal(t, models.VeryPositive, first.Sentiment)
	assert.Equal(t, models.SourceDatabase, first.SourceType)
	assert.Equal(t, "Web Reviews", first.Source)

	second := res.Comments[1]
	assert.Empty(t, second.CustomerID)
	assert.Nil(t, second.Rating)
	assert.Equal(t, models.Neutral, second.Sentiment)
}

func TestDatabaseExtractor_QueryErrorFailsSoft(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM web_reviews").WillReturnError(errors.New("login failed for user 'etl'"))

	res := NewDatabaseExtractor(db, DatabaseOptions{}).Extract(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "login failed")
	assert.Equal(t, "Database Extractor", res.SourceName)
}

func TestDatabaseExtractor_WithoutConnection(t *testing.T) {
	e := NewDatabaseExtractor(nil, DatabaseOptions{})
	assert.False(t, e.ValidateConfiguration())
	res := e.Extract(context.Background())
	assert.False(t, res.Success)
}

func TestTransformer_RowToComment(t *testing.T) {
	imported := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tr := NewTransformer(models.FieldMapping{
		ProductID:     []string{"Sku", "ProductId"},
		Text:          []string{"Body"},
		CreatedAt:     []string{"Day"},
		DateFormat:    "02/01/2006",
		DefaultSource: "Kiosk",
	}, models.SourceFile)

	c, err := tr.RowToComment(map[string]interface{}{
		"sku": "", "PRODUCTID": "P5", "body": " hello ", "day": "07/03/2024",
	}, imported)
	require.NoError(t, err)
	assert.Equal(t, "P5", c.ProductID, "blank aliases fall through to the next one")
	assert.Equal(t, "hello", c.Text)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), c.CreatedAt)
	assert.Equal(t, "Kiosk", c.Source)
	assert.Equal(t, models.Neutral, c.Sentiment)
	assert.Equal(t, imported, c.ImportedAt)
}

func TestValidator_Normalize(t *testing.T) {
	v := &Validator{newID: func() string { return "generated" }}

	c, err := v.Normalize(models.Comment{ProductID: " P1 ", Sentiment: models.Sentiment(42)}, "Default")
	require.NoError(t, err)
	assert.Equal(t, "generated", c.ID)
	assert.Equal(t, "P1", c.ProductID)
	assert.Equal(t, "Default", c.Source)
	assert.Equal(t, models.Neutral, c.Sentiment)

	_, err = v.Normalize(models.Comment{ID: "x", Text: "   "}, "Default")
	assert.ErrorIs(t, err, ErrEmptyComment)
}
