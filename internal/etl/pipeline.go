package etl

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BartekS5/opinions-etl/pkg/logger"
	"github.com/BartekS5/opinions-etl/pkg/models"
)

// Orchestrator runs every extractor concurrently and stages the batches of
// the successful ones.
type Orchestrator struct {
	extractors  []Extractor
	stager      Stager
	maxParallel int
}

// NewOrchestrator takes the extractors to run on every cycle. maxParallel
// limits concurrent extractions; 0 runs them all at once.
func NewOrchestrator(extractors []Extractor, stager Stager, maxParallel int) *Orchestrator {
	return &Orchestrator{extractors: extractors, stager: stager, maxParallel: maxParallel}
}

func (o *Orchestrator) Extractors() []Extractor {
	return o.extractors
}

// Run extracts from all sources and waits for every one of them. A failing
// or panicking extractor only fails its own result. Results keep the order
// in which extractors were registered.
func (o *Orchestrator) Run(ctx context.Context) models.Summary {
	started := time.Now()
	summary := models.Summary{
		StartedAt:    started.UTC(),
		TotalSources: len(o.extractors),
		Results:      make([]models.ExtractionResult, len(o.extractors)),
	}
	logger.Info("Starting orchestration of %d sources", len(o.extractors))

	var g errgroup.Group
	if o.maxParallel > 0 {
		g.SetLimit(o.maxParallel)
	}
	for i, ext := range o.extractors {
		i, ext := i, ext
		g.Go(func() error {
			summary.Results[i] = safeExtract(ctx, ext)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range summary.Results {
		if !res.Success {
			logger.Warn("Source %s failed: %s", res.SourceName, res.ErrorMessage)
			continue
		}
		summary.SuccessfulSources++
		summary.TotalRecords += res.RecordsExtracted
		if len(res.Comments) == 0 || o.stager == nil {
			continue
		}
		locator, err := o.stager.Persist(res.Comments)
		if err != nil {
			logger.Error("CRITICAL: failed to stage %d comments from %s: %v", len(res.Comments), res.SourceName, err)
			summary.StagingErrors++
			continue
		}
		if locator != "" {
			summary.StagedBatches = append(summary.StagedBatches, locator)
		}
	}

	summary.Elapsed = time.Since(started)
	logger.Info("Orchestration finished: %d/%d sources, %d records in %s",
		summary.SuccessfulSources, summary.TotalSources, summary.TotalRecords, summary.Elapsed)
	return summary
}

// safeExtract turns a panic inside an extractor into a failed result.
func safeExtract(ctx context.Context, ext Extractor) (result models.ExtractionResult) {
	started := time.Now().UTC()
	defer func() {
		if r := recover(); r != nil {
			name := safeName(ext)
			logger.Error("Extractor %s panicked: %v", name, r)
			result = models.StartResult(name, started)
			result.Fail(fmt.Sprintf("extractor panicked: %v", r))
			result.Finish(time.Now().UTC())
		}
	}()
	return ext.Extract(ctx)
}

func safeName(ext Extractor) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", ext)
		}
	}()
	return ext.Name()
}
