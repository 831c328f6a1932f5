package worker

import (
	"context"
	"encoding/json"

	"github.com/ppiankov/marginalia/internal/cache"
	"github.com/ppiankov/marginalia/internal/llm"
)

// Suggester defines the interface for drafting one annotation
type Suggester interface {
	SuggestComment(ctx context.Context, req llm.SuggestRequest) (*llm.Suggestion, error)
	ProviderName() string
}

// SentenceRequest pairs a sentence id with its suggestion request
type SentenceRequest struct {
	SentenceID string
	Request    llm.SuggestRequest
}

// SuggestJob drafts an annotation for one sentence, consulting the cache
// before paying for a provider call
type SuggestJob struct {
	SentenceID string
	Request    llm.SuggestRequest
	Suggester  Suggester
	Limiter    *Limiter
	Cache      cache.Cache // May be nil
}

// Execute executes the suggest job
func (j *SuggestJob) Execute(ctx context.Context) Result {
	provider := j.Suggester.ProviderName()
	key := cache.SuggestionKey(provider, j.Request.Model, j.Request.Sentence)

	if j.Cache != nil {
		if data, found := j.Cache.Get(key); found {
			var suggestion llm.Suggestion
			if err := json.Unmarshal(data, &suggestion); err == nil {
				return &SuggestResult{
					SentenceID: j.SentenceID,
					Suggestion: &suggestion,
					FromCache:  true,
				}
			}
			// Corrupt entry; fall through to a fresh call
		}
	}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, provider); err != nil {
			return &SuggestResult{SentenceID: j.SentenceID, Error: err}
		}
	}

	suggestion, err := j.Suggester.SuggestComment(ctx, j.Request)
	if err != nil {
		return &SuggestResult{SentenceID: j.SentenceID, Error: err}
	}

	// Only successful drafts are worth caching
	if j.Cache != nil && suggestion != nil && suggestion.Enabled {
		if data, err := json.Marshal(suggestion); err == nil {
			_ = j.Cache.Set(key, data, 0)
		}
	}

	return &SuggestResult{
		SentenceID: j.SentenceID,
		Suggestion: suggestion,
	}
}

// SuggestResult represents the result of a suggest job
type SuggestResult struct {
	SentenceID string
	Suggestion *llm.Suggestion
	FromCache  bool
	Error      error
}

// GetError returns the error from the suggest result
func (r *SuggestResult) GetError() error {
	return r.Error
}

// SuggestBatch drafts annotations for many sentences concurrently
type SuggestBatch struct {
	suggester   Suggester
	limiter     *Limiter
	cache       cache.Cache
	concurrency int
}

// NewSuggestBatch creates a new batch processor. The cache may be nil.
func NewSuggestBatch(suggester Suggester, limiter *Limiter, c cache.Cache, concurrency int) *SuggestBatch {
	return &SuggestBatch{
		suggester:   suggester,
		limiter:     limiter,
		cache:       c,
		concurrency: concurrency,
	}
}

// Run processes all requests concurrently. Results arrive in completion
// order; callers index them by sentence id.
func (b *SuggestBatch) Run(ctx context.Context, requests []SentenceRequest) []*SuggestResult {
	if len(requests) == 0 {
		return []*SuggestResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Propagate caller cancellation into the pool
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, req := range requests {
		pool.Submit(&SuggestJob{
			SentenceID: req.SentenceID,
			Request:    req.Request,
			Suggester:  b.suggester,
			Limiter:    b.limiter,
			Cache:      b.cache,
		})
	}

	results := pool.Wait()

	out := make([]*SuggestResult, 0, len(results))
	for _, result := range results {
		out = append(out, result.(*SuggestResult))
	}
	return out
}
