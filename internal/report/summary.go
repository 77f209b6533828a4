// Package report renders end-of-run summaries for the terminal.
package report

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Batch is one catalog file processed by a run. Cached counts the
// Requests the analysis cache answered without calling the service;
// Uploaded counts documents added to the Discovery collection.
type Batch struct {
	Input     string
	Output    string
	Level     string
	Rows      int
	Enriched  int
	Failed    int
	Requests  int
	Cached    int
	Documents int
	Uploaded  int
	Duration  time.Duration
}

// Failure is a row that could not be enriched.
type Failure struct {
	Input string
	Row   int
	Error string
}

var summaryHeaders = []string{"Input", "Output", "Level", "Rows", "Enriched", "Failed", "Requests", "Cached", "Docs", "Uploaded", "Duration"}

// numeric columns are right aligned
var summaryRight = map[int]bool{4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true, 11: true}

// Summary renders one line per batch plus a totals footer when there is
// more than one batch.
func Summary(batches []Batch) string {
	if len(batches) == 0 {
		return ""
	}

	tw := newWriter(summaryHeaders, summaryRight)

	var total Batch
	for _, b := range batches {
		tw.AppendRow(table.Row{
			b.Input, b.Output, b.Level,
			b.Rows, b.Enriched, b.Failed, b.Requests, b.Cached, b.Documents, b.Uploaded,
			formatDuration(b.Duration),
		})
		total.Rows += b.Rows
		total.Enriched += b.Enriched
		total.Failed += b.Failed
		total.Requests += b.Requests
		total.Cached += b.Cached
		total.Documents += b.Documents
		total.Uploaded += b.Uploaded
		total.Duration += b.Duration
	}

	if len(batches) > 1 {
		tw.AppendFooter(table.Row{
			"Total", "", "",
			total.Rows, total.Enriched, total.Failed, total.Requests, total.Cached, total.Documents, total.Uploaded,
			formatDuration(total.Duration),
		})
	}
	return tw.Render()
}

// Failures renders the failed rows, or "" when there are none.
func Failures(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}
	tw := newWriter([]string{"Input", "Row", "Error"}, map[int]bool{2: true})
	for _, f := range failures {
		tw.AppendRow(table.Row{f.Input, strconv.Itoa(f.Row), f.Error})
	}
	return tw.Render()
}

func newWriter(headers []string, right map[int]bool) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i+1] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
