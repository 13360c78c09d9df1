// Package loader writes opinion batches into the star-schema analytical
// store: five conformed dimensions and the fact_opinions table, one
// transaction per batch.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

var (
	// ErrCriticalLoad wraps every failure that rolled back a batch.
	ErrCriticalLoad = errors.New("critical load failure")
	// ErrRelocate reports a batch that committed but could not be moved to
	// the processed area. Loading it again duplicates its facts.
	ErrRelocate = errors.New("loaded batch was not moved to processed")
)

const pingTimeout = 5 * time.Second

// BatchSource is where staged batches are read from and retired to.
type BatchSource interface {
	List() ([]string, error)
	Read(locator string) ([]models.Comment, error)
	MarkProcessed(locator string) error
}

type Config struct {
	Locale Locale
	// Keys is shared with the caller when set, otherwise the Loader owns a
	// fresh cache.
	Keys *KeyCache
}

// Loader is the single writer of the analytical store. Calls are serialized
// internally; the key cache belongs to this instance.
type Loader struct {
	db      *sql.DB
	batches BatchSource
	keys    *KeyCache
	locale  Locale

	now        func() time.Time
	newBatchID func() string

	mu sync.Mutex
}

func NewLoader(db *sql.DB, batches BatchSource, cfg Config) *Loader {
	keys := cfg.Keys
	if keys == nil {
		keys = NewKeyCache()
	}
	locale := cfg.Locale
	if locale == "" {
		locale = LocaleEnglish
	}
	return &Loader{
		db:         db,
		batches:    batches,
		keys:       keys,
		locale:     locale,
		now:        time.Now,
		newBatchID: func() string { return uuid.NewString() },
	}
}

func (l *Loader) Keys() *KeyCache {
	return l.keys
}

// LoadBatch writes all dimensions and facts of comments in one transaction
// and returns the number of fact rows loaded. Once begun, the transaction
// runs to commit or rollback regardless of ctx cancellation.
func (l *Loader) LoadBatch(ctx context.Context, comments []models.Comment) (int, error) {
	if len(comments) == 0 {
		logger.Warn("No comments to load")
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	batchID := l.newBatchID()
	logger.Info("Loading batch %s: %d comments", batchID, len(comments))

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", ErrCriticalLoad, err)
	}

	keys := newPendingKeys(l.keys)
	n, err := l.loadInTx(ctx, tx, keys, comments, batchID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Rollback of batch %s failed: %v", batchID, rbErr)
		}
		logger.Error("Batch %s rolled back: %v", batchID, err)
		return 0, fmt.Errorf("%w: %w", ErrCriticalLoad, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Commit of batch %s failed: %v", batchID, err)
		return 0, fmt.Errorf("%w: commit: %w", ErrCriticalLoad, err)
	}
	keys.commit()

	logger.Info("Batch %s committed: %d facts", batchID, n)
	return n, nil
}

func (l *Loader) loadInTx(ctx context.Context, tx *sql.Tx, keys *pendingKeys, comments []models.Comment, batchID string) (int, error) {
	if err := l.seedSentiments(ctx, tx, keys); err != nil {
		return 0, fmt.Errorf("seed dim_sentiment: %w", err)
	}
	if err := l.upsertSources(ctx, tx, keys, comments); err != nil {
		return 0, fmt.Errorf("upsert dim_source: %w", err)
	}
	if err := l.upsertProducts(ctx, tx, keys, comments); err != nil {
		return 0, fmt.Errorf("upsert dim_product: %w", err)
	}
	if err := l.upsertClients(ctx, tx, keys, comments); err != nil {
		return 0, fmt.Errorf("upsert dim_client: %w", err)
	}
	if err := l.upsertDates(ctx, tx, keys, comments); err != nil {
		return 0, fmt.Errorf("upsert dim_time: %w", err)
	}

	facts := buildFacts(comments, keys, batchID, l.now().UTC())
	n, err := writeFacts(ctx, tx, facts)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", factTable, err)
	}
	return n, nil
}

// LoadFromStaging loads one staged batch and moves it to the processed area.
// The move happens after commit, so a failure there returns the loaded count
// together with an error wrapping ErrRelocate.
func (l *Loader) LoadFromStaging(ctx context.Context, locator string) (int, error) {
	comments, err := l.batches.Read(locator)
	if err != nil {
		return 0, fmt.Errorf("load staged batch: %w", err)
	}

	n, err := l.LoadBatch(ctx, comments)
	if err != nil {
		return 0, err
	}

	if err := l.batches.MarkProcessed(locator); err != nil {
		logger.Error("Batch %s loaded but not moved to processed: %v", locator, err)
		return n, fmt.Errorf("%w: %s: %w", ErrRelocate, locator, err)
	}
	return n, nil
}

// LoadPending loads every staged batch, oldest first, and stops at the first
// failure.
func (l *Loader) LoadPending(ctx context.Context) (int, error) {
	locators, err := l.batches.List()
	if err != nil {
		return 0, fmt.Errorf("list staged batches: %w", err)
	}

	total := 0
	for _, locator := range locators {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := l.LoadFromStaging(ctx, locator)
		total += n
		if err != nil {
			return total, err
		}
	}
	logger.Info("Loaded %d staged batches, %d facts", len(locators), total)
	return total, nil
}

// ValidateConnection pings the analytical store outside any transaction.
func (l *Loader) ValidateConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := l.db.PingContext(ctx); err != nil {
		logger.Error("Analytical store unreachable: %v", err)
		return false
	}
	return true
}

var warmQueries = []struct {
	dim   Dimension
	query string
}{
	{DimSentiment, "SELECT sentiment_id, sentiment_key FROM dim_sentiment"},
	{DimSource, "SELECT source_id, source_key FROM dim_source"},
	{DimProduct, "SELECT product_id, product_key FROM dim_product WHERE is_current = 1"},
	{DimClient, "SELECT client_id, client_key FROM dim_client"},
	{DimTime, "SELECT CAST(time_key AS VARCHAR(8)), time_key FROM dim_time"},
}

// WarmCache rebuilds the key cache from the store. On error the cache keeps
// its previous content.
func (l *Loader) WarmCache(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := newPendingKeys(NewKeyCache())
	for _, w := range warmQueries {
		if err := warmDimension(ctx, l.db, fresh, w.dim, w.query); err != nil {
			return fmt.Errorf("warm %s keys: %w", w.dim, err)
		}
	}

	l.keys.Reset()
	fresh.base = l.keys
	fresh.commit()
	logger.Info("Key cache warmed: %d keys", l.keys.Len())
	return nil
}

func warmDimension(ctx context.Context, db *sql.DB, keys *pendingKeys, dim Dimension, query string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var natural string
		var key int
		if err := rows.Scan(&natural, &key); err != nil {
			return err
		}
		keys.Set(dim, natural, key)
	}
	return rows.Err()
}
