package etl

import (
	"context"
	"time"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

// Extractor pulls raw comments from one source. Extract never returns an
// error: failures are reported through the result.
type Extractor interface {
	Name() string
	SourceType() models.SourceType
	// ValidateConfiguration checks settings before any I/O.
	ValidateConfiguration() bool
	Extract(ctx context.Context) models.ExtractionResult
}

// Stager persists a successful batch and returns its locator.
type Stager interface {
	Persist(comments []models.Comment) (string, error)
}

type extractFunc func(ctx context.Context, importedAt time.Time) ([]models.Comment, error)

// runExtraction wraps one extractor run in a timed result.
func runExtraction(ctx context.Context, name string, valid bool, timeout time.Duration, fn extractFunc) (result models.ExtractionResult) {
	started := time.Now()
	result = models.StartResult(name, started.UTC())
	defer func() {
		result.Finish(time.Now().UTC())
	}()

	if !valid {
		logger.Error("%s: invalid configuration", name)
		result.Fail("invalid configuration")
		return result
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info("Starting extraction: %s", name)
	comments, err := fn(ctx, started.UTC())
	if err != nil {
		logger.Error("%s failed: %v", name, err)
		result.Fail(err.Error())
		return result
	}

	result.Succeed(comments)
	logger.Info("%s: %d records extracted in %s", name, len(comments), time.Since(started))
	return result
}
