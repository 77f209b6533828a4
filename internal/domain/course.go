package domain

import (
	"fmt"
	"strings"
)

// Catalog column names. The enriched columns are overwritten when present
// and appended when the source file does not carry them.
const (
	ColDescription = "Description"
	ColConcepts    = "Concepts"
	ColSubject     = "Subject"
	ColLevel       = "Level"
)

// EnrichedColumns are the columns written by an enrichment run, in the order
// they are appended to a header that lacks them.
var EnrichedColumns = []string{ColConcepts, ColSubject, ColLevel}

// CourseRecord is one catalog row as seen by the enrichment pipeline.
// Identity is the row position inside the source table.
type CourseRecord struct {
	Index       int
	Description string

	Concepts []string // ordered, may contain duplicates
	Subject  []string // set semantics, kept sorted
	Level    string   // constant for the whole batch
}

// Row is a CSV row aligned to Table.Header.
type Row []string

// Table is a course catalog read from CSV. Column order is preserved so the
// written file mirrors the source file.
type Table struct {
	Header []string
	Rows   []Row
}

// ColumnIndex returns the position of name in the header, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Len is the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// RequireColumns fails with ErrMissingColumn for the first absent column.
func (t Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			return fmt.Errorf("%w: %w: %q", ErrInvalidInput, ErrMissingColumn, n)
		}
	}
	return nil
}

// EnsureColumns returns a copy of t where every name exists in the header.
// Missing columns are appended and existing rows padded with empty cells.
// Every row comes out exactly as wide as the header.
func (t Table) EnsureColumns(names ...string) Table {
	out := Table{Header: append([]string(nil), t.Header...)}
	for _, n := range names {
		if out.ColumnIndex(n) < 0 {
			out.Header = append(out.Header, n)
		}
	}

	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(Row, len(out.Header))
		copy(row, r)
		out.Rows[i] = row
	}
	return out
}

// Record builds the CourseRecord for row i. Cells past the end of a short
// row read as empty.
func (t Table) Record(i int) CourseRecord {
	return CourseRecord{
		Index:       i,
		Description: t.cell(i, ColDescription),
	}
}

// Records returns one CourseRecord per row, in row order.
func (t Table) Records() []CourseRecord {
	out := make([]CourseRecord, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Record(i)
	}
	return out
}

// Cell returns the value at row i for column name.
func (t Table) Cell(i int, name string) string {
	return t.cell(i, name)
}

func (t Table) cell(i int, name string) string {
	col := t.ColumnIndex(name)
	if col < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	row := t.Rows[i]
	if col >= len(row) {
		return ""
	}
	return row[col]
}

// CellEncoder turns the list fields of a record into CSV cell text.
type CellEncoder func([]string) string

// WithRecords returns a new table with the enriched columns of every record
// written to the row at record.Index. The receiver is left untouched.
// A nil entry in records leaves the enriched cells of that row empty.
func (t Table) WithRecords(records []*CourseRecord, encode CellEncoder) Table {
	out := t.EnsureColumns(EnrichedColumns...)

	conceptsCol := out.ColumnIndex(ColConcepts)
	subjectCol := out.ColumnIndex(ColSubject)
	levelCol := out.ColumnIndex(ColLevel)

	for i := range out.Rows {
		out.Rows[i][conceptsCol] = ""
		out.Rows[i][subjectCol] = ""
		out.Rows[i][levelCol] = ""
	}

	for _, rec := range records {
		if rec == nil || rec.Index < 0 || rec.Index >= len(out.Rows) {
			continue
		}
		row := out.Rows[rec.Index]
		row[conceptsCol] = encode(rec.Concepts)
		row[subjectCol] = encode(rec.Subject)
		row[levelCol] = rec.Level
	}
	return out
}
