package enrich

import (
	"context"
	"sync/atomic"

	"course-nlu/internal/nlu"
)

// countingAnalyzer counts analyzer requests for the run report.
type countingAnalyzer struct {
	next  Analyzer
	calls atomic.Int64
}

func newCountingAnalyzer(next Analyzer) *countingAnalyzer {
	return &countingAnalyzer{next: next}
}

func (c *countingAnalyzer) Count() int { return int(c.calls.Load()) }

func (c *countingAnalyzer) Categories(ctx context.Context, text string) ([]nlu.Category, error) {
	c.calls.Add(1)
	return c.next.Categories(ctx, text)
}

func (c *countingAnalyzer) Keywords(ctx context.Context, text string, opts nlu.KeywordsOptions) ([]nlu.Keyword, error) {
	c.calls.Add(1)
	return c.next.Keywords(ctx, text, opts)
}

func (c *countingAnalyzer) Concepts(ctx context.Context, text string) ([]nlu.Concept, error) {
	c.calls.Add(1)
	return c.next.Concepts(ctx, text)
}
