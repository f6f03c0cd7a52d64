package sentiment

import (
	"context"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksent/internal/domain/social"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

func requestSeq(reqs ...social.SentimentRequest) iter.Seq2[social.SentimentRequest, error] {
	return func(yield func(social.SentimentRequest, error) bool) {
		for _, req := range reqs {
			if !yield(req, nil) {
				return
			}
		}
	}
}

func makeRequests(n int) []social.SentimentRequest {
	reqs := make([]social.SentimentRequest, n)
	for i := range reqs {
		reqs[i] = social.SentimentRequest{OwnerID: i + 1, MessageText: "$AAPL"}
	}
	return reqs
}

// gatedAnalyzer blocks every call until released and records the peak
// number of concurrent calls.
type gatedAnalyzer struct {
	release chan struct{}

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func newGatedAnalyzer() *gatedAnalyzer {
	return &gatedAnalyzer{release: make(chan struct{})}
}

func (a *gatedAnalyzer) Analyze(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
	a.mu.Lock()
	a.inFlight++
	if a.inFlight > a.maxInFlight {
		a.maxInFlight = a.inFlight
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight--
		a.mu.Unlock()
	}()

	select {
	case <-a.release:
		return &social.SentimentResponse{Request: req, Scores: map[string]int{"AAPL": 1}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *gatedAnalyzer) peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxInFlight
}

func (a *gatedAnalyzer) current() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

type funcAnalyzer func(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error)

func (f funcAnalyzer) Analyze(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
	return f(ctx, req)
}

func TestProcessor_BoundedConcurrency(t *testing.T) {
	const limit = 3
	const items = 10

	analyzer := newGatedAnalyzer()
	processor := NewProcessor(analyzer, limit, logger.Get())

	var responses []social.SentimentResponse
	done := make(chan struct{})
	go func() {
		defer close(done)
		for resp, err := range processor.Process(context.Background(), requestSeq(makeRequests(items)...)) {
			assert.NoError(t, err)
			responses = append(responses, resp)
		}
	}()

	// All items are consumed but only limit calls may be in flight
	require.Eventually(t, func() bool { return analyzer.current() == limit }, time.Second, 5*time.Millisecond)
	assert.Equal(t, limit, analyzer.peak())

	close(analyzer.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not finish")
	}

	assert.Equal(t, limit, analyzer.peak())

	// Every input produced exactly one output, association intact
	require.Len(t, responses, items)
	seen := make(map[int]bool, items)
	for _, resp := range responses {
		assert.False(t, seen[resp.Request.OwnerID], "duplicate output for owner %d", resp.Request.OwnerID)
		seen[resp.Request.OwnerID] = true
	}
}

func TestProcessor_SkippedItemsEmitNothing(t *testing.T) {
	analyzer := funcAnalyzer(func(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
		if req.OwnerID%2 == 0 {
			return nil, nil // skip
		}
		return &social.SentimentResponse{Request: req, Scores: map[string]int{"AAPL": 1}}, nil
	})
	processor := NewProcessor(analyzer, 2, logger.Get())

	var count int
	for resp, err := range processor.Process(context.Background(), requestSeq(makeRequests(10)...)) {
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Scores)
		count++
	}
	assert.Equal(t, 5, count)
}

func TestProcessor_SourceErrorEndsStream(t *testing.T) {
	boom := errors.New("source exploded")
	source := func(yield func(social.SentimentRequest, error) bool) {
		if !yield(social.SentimentRequest{OwnerID: 1}, nil) {
			return
		}
		yield(social.SentimentRequest{}, boom)
	}

	analyzer := funcAnalyzer(func(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
		return &social.SentimentResponse{Request: req, Scores: map[string]int{"AAPL": 1}}, nil
	})
	processor := NewProcessor(analyzer, 2, logger.Get())

	var lastErr error
	for _, err := range processor.Process(context.Background(), source) {
		if err != nil {
			lastErr = err
		}
	}
	require.Error(t, lastErr)
	assert.True(t, errors.Is(lastErr, boom))
}

func TestProcessor_AnalyzerErrorEndsStream(t *testing.T) {
	boom := errors.New("catalog unavailable")
	analyzer := funcAnalyzer(func(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
		return nil, boom
	})
	processor := NewProcessor(analyzer, 2, logger.Get())

	var lastErr error
	for _, err := range processor.Process(context.Background(), requestSeq(makeRequests(3)...)) {
		if err != nil {
			lastErr = err
		}
	}
	require.Error(t, lastErr)
	assert.True(t, errors.Is(lastErr, boom))
}

func TestProcessor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	analyzer := newGatedAnalyzer()
	processor := NewProcessor(analyzer, 2, logger.Get())

	done := make(chan struct{})
	var count int
	go func() {
		defer close(done)
		for _, err := range processor.Process(ctx, requestSeq(makeRequests(100)...)) {
			if err == nil {
				count++
			}
		}
	}()

	require.Eventually(t, func() bool { return analyzer.current() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop after cancellation")
	}
	assert.Zero(t, count)
}

func TestProcessor_ConsumerStopsEarly(t *testing.T) {
	analyzer := funcAnalyzer(func(ctx context.Context, req social.SentimentRequest) (*social.SentimentResponse, error) {
		return &social.SentimentResponse{Request: req, Scores: map[string]int{"AAPL": 1}}, nil
	})
	processor := NewProcessor(analyzer, 2, logger.Get())

	var count int
	for _, err := range processor.Process(context.Background(), requestSeq(makeRequests(50)...)) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}
