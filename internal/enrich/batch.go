package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"course-nlu/internal/catalog"
	"course-nlu/internal/concurrency"
	"course-nlu/internal/domain"
)

// Options controls a batch run.
type Options struct {
	// Workers is the number of rows analyzed at once. 0 or 1 keeps the
	// strictly sequential behavior.
	Workers int

	// BestEffort records per-row failures and keeps going instead of
	// aborting the batch on the first error.
	BestEffort bool

	// Encode renders Concepts/Subject cells. Defaults to catalog.FormatListLiteral.
	Encode domain.CellEncoder

	Logger *slog.Logger
}

// Report summarizes one batch run.
type Report struct {
	Level    string
	Rows     int
	Enriched int
	Failed   int
	// Requests counts analyzer calls, including any a cache answered.
	Requests int
	Duration time.Duration
	Failures []*RowError
}

// Run enriches every row of table with the batch-wide level and returns a
// new table; table itself is not modified. Output rows keep input order.
//
// By default the first failing row aborts the run and no table is returned.
// With BestEffort the failing rows keep only Level and are listed in the
// report.
func (e *Enricher) Run(ctx context.Context, table domain.Table, level string, opts Options) (domain.Table, Report, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	encode := opts.Encode
	if encode == nil {
		encode = catalog.FormatListLiteral
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	rep := Report{Level: level, Rows: table.Len()}

	if err := table.RequireColumns(domain.ColDescription); err != nil {
		return domain.Table{}, rep, err
	}

	calls := newCountingAnalyzer(e.analyzer)
	run := &Enricher{analyzer: calls, keywords: e.keywords}

	records, errs := concurrency.ProcessParallel(
		ctx,
		table.Records(),
		concurrency.ParallelOptions{MaxWorkers: workers, FailFast: !opts.BestEffort},
		func(ctx context.Context, i int, rec domain.CourseRecord) (*domain.CourseRecord, error) {
			res, err := run.Enrich(ctx, rec.Description, level)
			if err != nil {
				logger.Warn("row enrichment failed", "row", i, "error", err)
				rec.Level = level
				return &rec, &RowError{Index: i, Err: err}
			}
			rec.Concepts = res.Concepts
			rec.Subject = res.Subject
			rec.Level = res.Level
			logger.Debug("row enriched", "row", i, "concepts", len(rec.Concepts), "subjects", len(rec.Subject))
			return &rec, nil
		},
	)

	rep.Requests = calls.Count()
	rep.Failures = rowErrors(errs)
	rep.Failed = len(rep.Failures)
	rep.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return domain.Table{}, rep, err
	}
	if len(rep.Failures) > 0 && !opts.BestEffort {
		return domain.Table{}, rep, rep.Failures[0]
	}

	rep.Enriched = rep.Rows - rep.Failed
	logger.Info("batch enriched",
		"level", level,
		"rows", rep.Rows,
		"enriched", rep.Enriched,
		"failed", rep.Failed,
		"requests", rep.Requests,
		"duration", rep.Duration.Round(time.Millisecond),
	)
	return table.WithRecords(records, encode), rep, nil
}

// rowErrors collects RowErrors sorted by row index so the reported first
// failure does not depend on worker scheduling.
func rowErrors(errs []error) []*RowError {
	out := make([]*RowError, 0, len(errs))
	for _, err := range errs {
		var re *RowError
		if errors.As(err, &re) {
			out = append(out, re)
			continue
		}
		out = append(out, &RowError{Index: -1, Err: err})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
