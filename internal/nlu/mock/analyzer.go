// Package mock provides a test double for the text analysis service.
package mock

import (
	"context"
	"sync"

	"course-nlu/internal/nlu"
)

// Analyzer is a test double for the analyze calls of nlu.Client.
// Function fields override the canned responses when set.
type Analyzer struct {
	CategoriesFunc func(ctx context.Context, text string) ([]nlu.Category, error)
	KeywordsFunc   func(ctx context.Context, text string, opts nlu.KeywordsOptions) ([]nlu.Keyword, error)
	ConceptsFunc   func(ctx context.Context, text string) ([]nlu.Concept, error)

	// Canned responses keyed by text, used when the matching func is nil.
	CategoryLabels map[string][]string
	KeywordTexts   map[string][]string
	ConceptTexts   map[string][]string

	mu    sync.Mutex
	calls map[string]int
}

// NewAnalyzer returns an Analyzer with empty canned responses.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		CategoryLabels: map[string][]string{},
		KeywordTexts:   map[string][]string{},
		ConceptTexts:   map[string][]string{},
	}
}

// On registers canned responses for one description.
func (m *Analyzer) On(text string, labels, keywords, concepts []string) *Analyzer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CategoryLabels == nil {
		m.CategoryLabels = map[string][]string{}
		m.KeywordTexts = map[string][]string{}
		m.ConceptTexts = map[string][]string{}
	}
	m.CategoryLabels[text] = labels
	m.KeywordTexts[text] = keywords
	m.ConceptTexts[text] = concepts
	return m
}

func (m *Analyzer) Categories(ctx context.Context, text string) ([]nlu.Category, error) {
	m.record("categories")
	if m.CategoriesFunc != nil {
		return m.CategoriesFunc(ctx, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []nlu.Category{}
	for _, l := range m.CategoryLabels[text] {
		out = append(out, nlu.Category{Label: l})
	}
	return out, nil
}

func (m *Analyzer) Keywords(ctx context.Context, text string, opts nlu.KeywordsOptions) ([]nlu.Keyword, error) {
	m.record("keywords")
	if m.KeywordsFunc != nil {
		return m.KeywordsFunc(ctx, text, opts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []nlu.Keyword{}
	for _, k := range m.KeywordTexts[text] {
		out = append(out, nlu.Keyword{Text: k})
	}
	return out, nil
}

func (m *Analyzer) Concepts(ctx context.Context, text string) ([]nlu.Concept, error) {
	m.record("concepts")
	if m.ConceptsFunc != nil {
		return m.ConceptsFunc(ctx, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []nlu.Concept{}
	for _, c := range m.ConceptTexts[text] {
		out = append(out, nlu.Concept{Text: c})
	}
	return out, nil
}

func (m *Analyzer) record(feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[feature]++
}

// CallCount returns how many times feature ("categories", "keywords",
// "concepts") was requested.
func (m *Analyzer) CallCount(feature string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[feature]
}

// TotalCalls sums the calls across all features.
func (m *Analyzer) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}
