package sentiment

import (
	"context"
	"iter"
	"sync"

	"github.com/dustin/go-humanize"

	"stocksent/internal/domain/social"
	"stocksent/internal/metrics"
	"stocksent/pkg/logger"
)

// Analyzer scores one request. A nil response with a nil error means the
// request was skipped.
type Analyzer interface {
	Analyze(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error)
}

// Processor applies an Analyzer to a request stream under a global
// concurrency cap. Output order follows completion order, not input
// order; each output corresponds one-to-one with the input that produced
// it. Skipped items emit nothing.
type Processor struct {
	analyzer Analyzer
	limit    int
	log      *logger.Logger

	// progressEvery controls how often a progress line is logged;
	// countSkipped includes skipped items in that counter.
	progressEvery int
	countSkipped  bool
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProgressEvery sets the progress log interval; 0 disables it.
func WithProgressEvery(n int) ProcessorOption {
	return func(p *Processor) { p.progressEvery = n }
}

// WithCountSkipped includes skipped items in the progress counter.
func WithCountSkipped(v bool) ProcessorOption {
	return func(p *Processor) { p.countSkipped = v }
}

// NewProcessor creates a processor with the given concurrency limit.
func NewProcessor(analyzer Analyzer, limit int, log *logger.Logger, opts ...ProcessorOption) *Processor {
	if limit < 1 {
		limit = 1
	}
	p := &Processor{
		analyzer:      analyzer,
		limit:         limit,
		log:           log.With("component", "stream_processor"),
		progressEvery: 100,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type outcome struct {
	resp *social.SentimentResponse
	err  error
}

// Process consumes source and yields one response per non-skipped request.
// At most limit analyzer invocations are in flight at a time; each item's
// worker waits for a permit without stalling consumption of the rest of
// the stream. A source error or analyzer error ends the sequence with
// that error. When the consumer stops early or ctx is cancelled the
// processor stops consuming the source; items already holding a permit
// finish on their own.
func (p *Processor) Process(ctx context.Context, source iter.Seq2[social.SentimentRequest, error]) iter.Seq2[social.SentimentResponse, error] {
	return func(yield func(social.SentimentResponse, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := make(chan outcome)
		semaphore := make(chan struct{}, p.limit)
		var wg sync.WaitGroup

		go func() {
			defer func() {
				wg.Wait()
				close(results)
			}()
			for req, err := range source {
				if err != nil {
					select {
					case results <- outcome{err: err}:
					case <-ctx.Done():
					}
					return
				}
				if ctx.Err() != nil {
					return
				}
				wg.Add(1)
				go func(req social.SentimentRequest) {
					defer wg.Done()

					// Acquire permit
					select {
					case semaphore <- struct{}{}:
					case <-ctx.Done():
						return
					}
					defer func() { <-semaphore }()

					resp, err := p.analyzer.Analyze(ctx, req)
					select {
					case results <- outcome{resp: resp, err: err}:
					case <-ctx.Done():
					}
				}(req)
			}
		}()

		var completed, skipped int64
		for out := range results {
			if out.err != nil {
				yield(social.SentimentResponse{}, out.err)
				return
			}
			if out.resp == nil {
				skipped++
				p.logProgress(completed, skipped)
				continue
			}
			completed++
			metrics.RequestsCompleted.Inc()
			p.logProgress(completed, skipped)
			if !yield(*out.resp, nil) {
				return
			}
		}

		p.log.Infof("Stream processing complete: %s requests scored, %s skipped",
			humanize.Comma(completed), humanize.Comma(skipped))
	}
}

func (p *Processor) logProgress(completed, skipped int64) {
	if p.progressEvery <= 0 {
		return
	}
	count := completed
	if p.countSkipped {
		count += skipped
	}
	if count > 0 && count%int64(p.progressEvery) == 0 {
		p.log.Infof("Processed %s requests...", humanize.Comma(count))
	}
}
