package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"course-nlu/internal/nlu"
)

// CachedAnalyzer answers from the store when it can and falls through to
// next otherwise. Only successful responses are stored. A store failure is
// logged and treated as a miss; it never fails the call.
type CachedAnalyzer struct {
	store *Store
	next  Analyzer

	hits   atomic.Int64
	misses atomic.Int64
}

func NewAnalyzer(store *Store, next Analyzer) *CachedAnalyzer {
	return &CachedAnalyzer{store: store, next: next}
}

// Stats returns cache hits and misses since construction.
func (c *CachedAnalyzer) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}

func (c *CachedAnalyzer) Categories(ctx context.Context, text string) ([]nlu.Category, error) {
	return lookup(c, Key("categories", text, ""), func() ([]nlu.Category, error) {
		return c.next.Categories(ctx, text)
	})
}

func (c *CachedAnalyzer) Keywords(ctx context.Context, text string, opts nlu.KeywordsOptions) ([]nlu.Keyword, error) {
	variant := fmt.Sprintf("sentiment=%t,emotion=%t,limit=%d", opts.Sentiment, opts.Emotion, opts.Limit)
	return lookup(c, Key("keywords", text, variant), func() ([]nlu.Keyword, error) {
		return c.next.Keywords(ctx, text, opts)
	})
}

func (c *CachedAnalyzer) Concepts(ctx context.Context, text string) ([]nlu.Concept, error) {
	return lookup(c, Key("concepts", text, ""), func() ([]nlu.Concept, error) {
		return c.next.Concepts(ctx, text)
	})
}

func lookup[T any](c *CachedAnalyzer, key []byte, fetch func() ([]T, error)) ([]T, error) {
	var cached []T
	found, err := c.store.get(key, &cached)
	if err != nil {
		c.store.logger.Warn("analysis cache read failed", "key", string(key), "error", err)
	}
	if found {
		c.hits.Add(1)
		return cached, nil
	}

	c.misses.Add(1)
	out, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := c.store.put(key, out); err != nil {
		c.store.logger.Warn("analysis cache write failed", "key", string(key), "error", err)
	}
	return out, nil
}
