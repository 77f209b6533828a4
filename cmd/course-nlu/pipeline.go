package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"course-nlu/internal/catalog"
	"course-nlu/internal/config"
	"course-nlu/internal/discovery"
	"course-nlu/internal/domain"
	"course-nlu/internal/enrich"
	"course-nlu/internal/export"
	"course-nlu/internal/report"
	"course-nlu/internal/sftpclient"
)

type runOptions struct {
	Workers    int
	BestEffort bool
	Upload     bool
	UploadDocs bool
}

// cacheStats is implemented by analyzers answering from the response cache.
type cacheStats interface {
	Stats() (hits, misses int)
}

func cacheHits(an enrich.Analyzer) int {
	if s, ok := an.(cacheStats); ok {
		hits, _ := s.Stats()
		return hits
	}
	return 0
}

// runBatch reads one catalog, enriches it, writes the analyzed CSV and then
// the optional documents and uploads. Nothing is written when enrichment
// aborts.
func (c *commandContext) runBatch(ctx context.Context, analyzer enrich.Analyzer, b config.Batch, opts runOptions) (report.Batch, []report.Failure, error) {
	logger := c.logger.With("input", b.Input, "level", b.Level)
	summary := report.Batch{Input: b.Input, Output: b.Output, Level: b.Level}

	uploadDocs := b.UploadDocs || opts.UploadDocs
	if uploadDocs && b.DocsDir == "" {
		return summary, nil, fmt.Errorf("%w: %s: uploading documents needs a docs dir", domain.ErrInvalidInput, b.Input)
	}

	tbl, err := catalog.ReadFile(b.Input)
	if err != nil {
		return summary, nil, err
	}

	hitsBefore := cacheHits(analyzer)
	out, rep, err := enrich.New(analyzer).Run(ctx, tbl, b.Level, enrich.Options{
		Workers:    opts.Workers,
		BestEffort: opts.BestEffort,
		Logger:     logger,
	})
	summary.Rows = rep.Rows
	summary.Enriched = rep.Enriched
	summary.Failed = rep.Failed
	summary.Requests = rep.Requests
	summary.Cached = cacheHits(analyzer) - hitsBefore
	summary.Duration = rep.Duration
	failures := reportFailures(b.Input, rep.Failures)
	if err != nil {
		return summary, failures, fmt.Errorf("%s: %w", b.Input, err)
	}

	if err := catalog.WriteFile(b.Output, out); err != nil {
		return summary, failures, err
	}
	logger.Info("analyzed catalog written", "output", b.Output)

	if b.DocsDir != "" {
		n, err := export.WriteDocuments(ctx, b.DocsDir, out, b.DocsSuffix, export.Options{Workers: opts.Workers})
		if err != nil {
			return summary, failures, err
		}
		summary.Documents = n
		logger.Info("documents written", "dir", b.DocsDir, "count", n)
	}

	if uploadDocs {
		uploaded, err := c.uploadDocuments(ctx, b.DocsDir, b.DocsSuffix, opts.Workers)
		if err != nil {
			return summary, failures, err
		}
		summary.Uploaded = len(uploaded)
	}

	if opts.Upload {
		remote, err := sftpclient.UploadFile(ctx, c.cfg.SFTP(), b.Output, filepath.Base(b.Output))
		if err != nil {
			return summary, failures, err
		}
		logger.Info("analyzed catalog uploaded", "remote", remote)
	}

	return summary, failures, nil
}

// uploadDocuments adds the <i>_<suffix>.json files in dir to the Discovery
// collection.
func (c *commandContext) uploadDocuments(ctx context.Context, dir, suffix string, workers int) ([]discovery.Uploaded, error) {
	client, err := c.newUploader(c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	uploaded, err := discovery.UploadDocuments(ctx, client, dir, suffix, discovery.UploadOptions{Workers: workers})
	if err != nil {
		return nil, err
	}
	c.logger.Info("documents uploaded", "dir", dir, "suffix", suffix, "count", len(uploaded),
		"collection", c.cfg.DiscoveryCollectionID)
	return uploaded, nil
}

func reportFailures(input string, in []*enrich.RowError) []report.Failure {
	out := make([]report.Failure, 0, len(in))
	for _, f := range in {
		out = append(out, report.Failure{Input: input, Row: f.Index, Error: f.Err.Error()})
	}
	return out
}

func printReport(w io.Writer, batches []report.Batch, failures []report.Failure) {
	if s := report.Summary(batches); s != "" {
		fmt.Fprintln(w, s)
	}
	if s := report.Failures(failures); s != "" {
		fmt.Fprintln(w, s)
	}
}
