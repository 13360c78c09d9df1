package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

// Each upsert inserts the row only when its natural key is absent and then
// selects the surrogate key, so one round trip resolves new and existing rows.
const (
	upsertSentimentSQL = `
IF NOT EXISTS (SELECT 1 FROM dim_sentiment WHERE sentiment_id = @p1)
BEGIN
	INSERT INTO dim_sentiment (sentiment_id, sentiment_name, sentiment_score,
		score_range_min, score_range_max, color_code, created_date, is_active)
	VALUES (@p1, @p2, @p3, @p4, @p5, @p6, GETUTCDATE(), 1)
END
SELECT sentiment_key FROM dim_sentiment WHERE sentiment_id = @p1`

	upsertSourceSQL = `
IF NOT EXISTS (SELECT 1 FROM dim_source WHERE source_id = @p1)
BEGIN
	INSERT INTO dim_source (source_id, source_name, source_type, source_category,
		reliability_score, is_active, created_date)
	VALUES (@p1, @p2, @p3, @p4, @p5, 1, GETUTCDATE())
END
SELECT source_key FROM dim_source WHERE source_id = @p1`

	upsertProductSQL = `
IF NOT EXISTS (SELECT 1 FROM dim_product WHERE product_id = @p1 AND is_current = 1)
BEGIN
	INSERT INTO dim_product (product_id, product_name, category, subcategory, price,
		launch_date, is_active, effective_date, end_date, is_current, created_date)
	VALUES (@p1, @p2, @p3, @p4, @p5, GETUTCDATE(), 1, GETUTCDATE(), NULL, 1, GETUTCDATE())
END
SELECT product_key FROM dim_product WHERE product_id = @p1 AND is_current = 1`

	upsertClientSQL = `
IF NOT EXISTS (SELECT 1 FROM dim_client WHERE client_id = @p1)
BEGIN
	INSERT INTO dim_client (client_id, client_name, country, age, gender, client_type,
		registration_date, client_segment, created_date, is_active)
	VALUES (@p1, @p2, @p3, NULL, @p4, @p5, GETUTCDATE(), @p6, GETUTCDATE(), 1)
END
SELECT client_key FROM dim_client WHERE client_id = @p1`

	upsertTimeSQL = `
IF NOT EXISTS (SELECT 1 FROM dim_time WHERE time_key = @p1)
BEGIN
	INSERT INTO dim_time (time_key, full_date, [day], [week], [month], [quarter], [year],
		day_name, month_name, quarter_name, is_weekend, is_holiday, holiday_name,
		is_business_day, created_date)
	VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11, 0, NULL, @p12, GETUTCDATE())
END`
)

const (
	placeholderCountry       = "Unknown"
	placeholderGender        = "Unknown"
	placeholderClientType    = "Regular"
	placeholderClientSegment = "General"
	placeholderCategory      = "General"
	placeholderSubcategory   = "General"
	defaultReliability       = 1.0
)

var sourceCategories = map[models.SourceType]string{
	models.SourceFile:     "Internal Surveys",
	models.SourceDatabase: "Web Reviews",
	models.SourceAPI:      "Social Media",
}

// SourceCategory groups a source type for reporting.
func SourceCategory(t models.SourceType) string {
	if c, ok := sourceCategories[t]; ok {
		return c
	}
	return "Other"
}

func placeholderClient(customerID string) models.DimClient {
	return models.DimClient{
		ClientID:      customerID,
		ClientName:    "Client " + customerID,
		Country:       placeholderCountry,
		Gender:        placeholderGender,
		ClientType:    placeholderClientType,
		ClientSegment: placeholderClientSegment,
		IsActive:      true,
	}
}

func placeholderProduct(productID string) models.DimProduct {
	return models.DimProduct{
		ProductID:   productID,
		ProductName: "Product " + productID,
		Category:    placeholderCategory,
		Subcategory: placeholderSubcategory,
		IsActive:    true,
		IsCurrent:   true,
	}
}

func sourceRow(c models.Comment) models.DimSource {
	return models.DimSource{
		SourceID:         c.Source,
		SourceName:       c.Source,
		SourceType:       c.SourceType.String(),
		SourceCategory:   SourceCategory(c.SourceType),
		ReliabilityScore: defaultReliability,
	}
}

func scalarKey(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int, error) {
	var key int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&key); err != nil {
		return 0, err
	}
	return key, nil
}

func (l *Loader) seedSentiments(ctx context.Context, tx *sql.Tx, keys *pendingKeys) error {
	for _, row := range SentimentRows() {
		if _, ok := keys.Get(DimSentiment, row.SentimentID); ok {
			continue
		}
		key, err := scalarKey(ctx, tx, upsertSentimentSQL,
			row.SentimentID, row.SentimentName, row.Score, row.RangeMin, row.RangeMax, row.ColorCode)
		if err != nil {
			return fmt.Errorf("sentiment %s: %w", row.SentimentID, err)
		}
		keys.Set(DimSentiment, row.SentimentID, key)
		logger.Debug("Sentiment seeded: %s (key %d)", row.SentimentName, key)
	}
	return nil
}

func (l *Loader) upsertSources(ctx context.Context, tx *sql.Tx, keys *pendingKeys, comments []models.Comment) error {
	seen := make(map[string]bool)
	for _, c := range comments {
		if seen[c.Source] {
			continue
		}
		seen[c.Source] = true
		if _, ok := keys.Get(DimSource, c.Source); ok {
			continue
		}
		src := sourceRow(c)
		key, err := scalarKey(ctx, tx, upsertSourceSQL,
			src.SourceID, src.SourceName, src.SourceType, src.SourceCategory, src.ReliabilityScore)
		if err != nil {
			return fmt.Errorf("source %q: %w", c.Source, err)
		}
		keys.Set(DimSource, c.Source, key)
		logger.Debug("Source resolved: %s (%s) key %d", c.Source, c.SourceType, key)
	}
	return nil
}

// upsertProducts reuses the current row of a product when one exists.
// Attribute changes are not detected and old rows are never closed.
func (l *Loader) upsertProducts(ctx context.Context, tx *sql.Tx, keys *pendingKeys, comments []models.Comment) error {
	seen := make(map[string]bool)
	for _, c := range comments {
		if seen[c.ProductID] {
			continue
		}
		seen[c.ProductID] = true
		if _, ok := keys.Get(DimProduct, c.ProductID); ok {
			continue
		}
		p := placeholderProduct(c.ProductID)
		key, err := scalarKey(ctx, tx, upsertProductSQL,
			p.ProductID, p.ProductName, p.Category, p.Subcategory, p.Price)
		if err != nil {
			return fmt.Errorf("product %q: %w", c.ProductID, err)
		}
		keys.Set(DimProduct, c.ProductID, key)
		logger.Debug("Product resolved: %s key %d", c.ProductID, key)
	}
	return nil
}

// upsertClients skips comments without a customer; their facts point at the
// default client row.
func (l *Loader) upsertClients(ctx context.Context, tx *sql.Tx, keys *pendingKeys, comments []models.Comment) error {
	seen := make(map[string]bool)
	for _, c := range comments {
		if c.CustomerID == "" || seen[c.CustomerID] {
			continue
		}
		seen[c.CustomerID] = true
		if _, ok := keys.Get(DimClient, c.CustomerID); ok {
			continue
		}
		cl := placeholderClient(c.CustomerID)
		key, err := scalarKey(ctx, tx, upsertClientSQL,
			cl.ClientID, cl.ClientName, cl.Country, cl.Gender, cl.ClientType, cl.ClientSegment)
		if err != nil {
			return fmt.Errorf("client %q: %w", c.CustomerID, err)
		}
		keys.Set(DimClient, c.CustomerID, key)
		logger.Debug("Client resolved: %s key %d", c.CustomerID, key)
	}
	return nil
}

func (l *Loader) upsertDates(ctx context.Context, tx *sql.Tx, keys *pendingKeys, comments []models.Comment) error {
	for _, c := range comments {
		timeKey := TimeKey(c.CreatedAt)
		natural := strconv.Itoa(timeKey)
		if _, ok := keys.Get(DimTime, natural); ok {
			continue
		}
		row := NewTimeRow(c.CreatedAt, l.locale)
		_, err := tx.ExecContext(ctx, upsertTimeSQL,
			row.TimeKey, row.FullDate, row.Day, row.Week, row.Month, row.Quarter, row.Year,
			row.DayName, row.MonthName, row.QuarterName, row.IsWeekend, row.IsBusinessDay)
		if err != nil {
			return fmt.Errorf("date %d: %w", timeKey, err)
		}
		keys.Set(DimTime, natural, timeKey)
		logger.Debug("Date resolved: %d", timeKey)
	}
	return nil
}
