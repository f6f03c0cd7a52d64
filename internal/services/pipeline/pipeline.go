// Package pipeline wires the enrichment join, the bounded stream
// processor and the record-stream I/O contract into a single-pass run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stocksent/internal/csvio"
	"stocksent/internal/domain/social"
	"stocksent/internal/services/sentiment"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// Pipeline runs one batch: decode posts, enrich with author metadata,
// score under bounded concurrency, encode output rows.
type Pipeline struct {
	users     social.UserDataProvider
	processor *sentiment.Processor
	log       *logger.Logger
}

// New creates a pipeline over the given collaborators.
func New(users social.UserDataProvider, processor *sentiment.Processor, log *logger.Logger) *Pipeline {
	return &Pipeline{
		users:     users,
		processor: processor,
		log:       log.With("component", "pipeline"),
	}
}

// Execute streams posts from srcPath through the pipeline into dstPath.
// Stages run concurrently: rows become available to downstream stages
// before the source is fully consumed. Schema and write I/O errors abort
// the run; per-item oracle failures only shorten the output.
func (p *Pipeline) Execute(ctx context.Context, srcPath, dstPath string) error {
	runID := uuid.New().String()
	log := p.log.With("run_id", runID)
	start := time.Now()
	log.Infow("Pipeline run starting", "source", srcPath, "destination", dstPath)

	if err := p.users.Init(ctx); err != nil {
		return errors.Wrap(err, "failed to load user metadata")
	}

	posts := csvio.ReadLines(ctx, srcPath, PostAdapter{})
	enriched := sentiment.EnrichPosts(ctx, posts, p.users, log)
	processed := p.processor.Process(ctx, enriched)

	if err := csvio.WriteLines(ctx, processed, ResponseAdapter{}, dstPath); err != nil {
		return errors.Wrap(err, "pipeline run failed")
	}

	log.Infow("Pipeline run complete", "duration", time.Since(start))
	return nil
}
