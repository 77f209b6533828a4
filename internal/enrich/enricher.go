// Package enrich annotates course records with categories, keywords and
// concepts from a text analysis service.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"course-nlu/internal/nlu"
)

// Analyzer is the text analysis contract the enricher depends on.
// *nlu.Client, *cache.CachedAnalyzer and *mock.Analyzer satisfy it.
type Analyzer interface {
	Categories(ctx context.Context, text string) ([]nlu.Category, error)
	Keywords(ctx context.Context, text string, opts nlu.KeywordsOptions) ([]nlu.Keyword, error)
	Concepts(ctx context.Context, text string) ([]nlu.Concept, error)
}

// Feature names used in ExternalServiceError.
const (
	FeatureCategories = "categories"
	FeatureKeywords   = "keywords"
	FeatureConcepts   = "concepts"
)

// CallsPerRow is the number of analyze calls one enrichment makes.
const CallsPerRow = 3

// Result is what one description contributes to its catalog row.
type Result struct {
	Concepts []string
	Subject  []string
	Level    string
}

// Enricher turns a course description into Concepts and Subject values.
// It holds no per-row state and is safe for concurrent use when its
// Analyzer is.
type Enricher struct {
	analyzer Analyzer
	keywords nlu.KeywordsOptions
}

// New returns an Enricher backed by analyzer. Keywords are requested with
// sentiment and emotion scoring on.
func New(analyzer Analyzer) *Enricher {
	return &Enricher{
		analyzer: analyzer,
		keywords: nlu.KeywordsOptions{Sentiment: true, Emotion: true},
	}
}

// Enrich calls the analyzer three times for description, in the order
// categories, keywords, concepts, and reshapes the answers. level is copied
// through untouched.
func (e *Enricher) Enrich(ctx context.Context, description, level string) (Result, error) {
	if strings.TrimSpace(description) == "" {
		return Result{}, fmt.Errorf("%w: empty description", ErrInvalidInput)
	}

	cats, err := e.analyzer.Categories(ctx, description)
	if err != nil {
		return Result{}, &ExternalServiceError{Feature: FeatureCategories, Err: err}
	}
	kws, err := e.analyzer.Keywords(ctx, description, e.keywords)
	if err != nil {
		return Result{}, &ExternalServiceError{Feature: FeatureKeywords, Err: err}
	}
	concepts, err := e.analyzer.Concepts(ctx, description)
	if err != nil {
		return Result{}, &ExternalServiceError{Feature: FeatureConcepts, Err: err}
	}

	return Result{
		Concepts: ConceptsWithBackfill(conceptTexts(concepts), keywordTexts(kws)),
		Subject:  SubjectsFromLabels(categoryLabels(cats)),
		Level:    level,
	}, nil
}
