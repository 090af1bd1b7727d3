// Package batch fans a document sequence out over a bounded worker pool and
// fans results back into an index-aligned BatchResult.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// Processor 每个文档的处理入口，具体实现是 coordinator.Coordinator
type Processor interface {
	Process(ctx context.Context, doc *models.Document, opts models.ExtractionOptions) *models.ExtractionResult
}

// Config 批处理配置
type Config struct {
	MaxConcurrent int
	MaxBatchSize  int
}

type Runner struct {
	processor Processor
	logger    logger.Logger
	cfg       Config
}

func NewRunner(processor Processor, log logger.Logger, cfg Config) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 32
	}
	return &Runner{processor: processor, logger: log, cfg: cfg}
}

// Run processes every document under the pool bound and returns results in
// input order. Per-document failures land in that document's slot and never
// cancel siblings; only empty or oversized batches fail the call itself,
// before any work starts.
func (r *Runner) Run(ctx context.Context, docs []*models.Document, opts models.ExtractionOptions) (models.BatchResult, error) {
	if len(docs) == 0 {
		return nil, models.NewError(models.ErrEmptyBatch, "batch contains no documents")
	}
	if len(docs) > r.cfg.MaxBatchSize {
		return nil, models.NewError(models.ErrBatchSizeExceeded,
			fmt.Sprintf("batch of %d exceeds maximum of %d", len(docs), r.cfg.MaxBatchSize))
	}

	// Pre-sized, index-addressed slots: completion order never reorders
	// the response.
	results := make(models.BatchResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.cfg.MaxConcurrent)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				results[i] = models.FailureResult(doc.Filename,
					models.WrapError(models.ErrInternalExtraction, "batch cancelled", gctx.Err()))
				return nil
			}

			// Process never returns an error; faults become failure slots.
			results[i] = r.processor.Process(gctx, doc, opts)
			return nil
		})
	}

	// Workers only report nil; Wait is for completion, not error fan-in.
	_ = g.Wait()

	r.logBatch(docs, results)
	return results, nil
}

func (r *Runner) logBatch(docs []*models.Document, results models.BatchResult) {
	failures := 0
	for _, res := range results {
		if res != nil && res.Status == models.StatusFailure {
			failures++
		}
	}
	r.logger.Info("Batch completed",
		logger.Int("documents", len(docs)),
		logger.Int("failures", failures),
	)
}
