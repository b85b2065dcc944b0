package services

import (
	"context"

	"fairprice/models"
	"fairprice/storage"
	"fairprice/utils"
)

// BatchResult is the outcome of one form in a batch. Exactly one of Result
// and Err is set.
type BatchResult struct {
	Index  int
	Line   int
	Form   models.RawListingForm
	Result *models.ScoringResult
	Err    error
}

// BatchScorer cleans and scores many forms on a worker pool.
type BatchScorer struct {
	engine      *Engine
	cleaner     *Cleaner
	workers     int
	rateLimitMs int
	logger      *utils.Logger
}

func NewBatchScorer(engine *Engine, workers, rateLimitMs int, logger *utils.Logger) *BatchScorer {
	if logger == nil {
		logger = utils.Discard()
	}
	return &BatchScorer{
		engine:      engine,
		cleaner:     NewCleaner(logger),
		workers:     workers,
		rateLimitMs: rateLimitMs,
		logger:      logger,
	}
}

// Run scores every record and returns results in input order. A failing
// record never stops the others; one that already carries a read error
// fails with it unscored. Records not yet started when ctx is cancelled
// fail with the context error.
func (b *BatchScorer) Run(ctx context.Context, records []storage.ListingRecord) []BatchResult {
	results := make([]BatchResult, len(records))
	pool := utils.NewWorkerPool(b.workers, b.rateLimitMs)

	for i, rec := range records {
		results[i] = BatchResult{Index: i, Line: rec.Line, Form: rec.Form}
		if rec.Err != nil {
			results[i].Err = rec.Err
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		pool.Submit(func() {
			results[i].Result, results[i].Err = b.scoreOne(ctx, rec.Form)
		})
	}
	pool.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	b.logger.Info("[batch] Scored %d listings, %d failed", len(records)-failed, failed)
	return results
}

func (b *BatchScorer) scoreOne(ctx context.Context, form models.RawListingForm) (*models.ScoringResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := b.cleaner.ParseListing(form)
	if err != nil {
		return nil, err
	}
	return b.engine.Score(ctx, in)
}
