package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func join(in []string) string { return strings.Join(in, "|") }

func sampleTable() Table {
	return Table{
		Header: []string{"Course", "Description", "Concepts", "Subject", "Level"},
		Rows: []Row{
			{"ALG1", "Introduction to Algebra", "", "", ""},
			{"BIO1", "Cells and organisms", "old", "old", "old"},
		},
	}
}

func TestColumnIndex(t *testing.T) {
	tbl := sampleTable()

	assert.Equal(t, 1, tbl.ColumnIndex("Description"))
	assert.Equal(t, -1, tbl.ColumnIndex("Missing"))
}

func TestRequireColumns(t *testing.T) {
	tbl := Table{Header: []string{"Course"}}

	err := tbl.RequireColumns(ColDescription)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), `"Description"`)

	assert.NoError(t, sampleTable().RequireColumns(ColDescription, ColLevel))
}

func TestEnsureColumnsAppendsMissing(t *testing.T) {
	tbl := Table{
		Header: []string{"Course", "Description"},
		Rows:   []Row{{"ALG1", "Algebra"}},
	}

	out := tbl.EnsureColumns(EnrichedColumns...)

	want := []string{"Course", "Description", "Concepts", "Subject", "Level"}
	assert.Equal(t, want, out.Header)
	assert.Len(t, out.Rows[0], len(want), "row is padded to the header")
	assert.Len(t, tbl.Header, 2, "source header untouched")
}

func TestRecords(t *testing.T) {
	recs := sampleTable().Records()

	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[1].Index)
	assert.Equal(t, "Cells and organisms", recs[1].Description)
}

func TestRecordShortRow(t *testing.T) {
	tbl := Table{
		Header: []string{"Course", "Description"},
		Rows:   []Row{{"ALG1"}},
	}

	assert.Empty(t, tbl.Record(0).Description)
}

func TestWithRecords(t *testing.T) {
	tbl := sampleTable()
	recs := []*CourseRecord{
		{Index: 0, Concepts: []string{"algebra"}, Subject: []string{"math"}, Level: "High School"},
		nil,
	}

	out := tbl.WithRecords(recs, join)

	assert.Equal(t, "algebra", out.Cell(0, ColConcepts))
	assert.Equal(t, "math", out.Cell(0, ColSubject))
	assert.Equal(t, "High School", out.Cell(0, ColLevel))
	assert.Empty(t, out.Cell(1, ColConcepts), "placeholder cleared for row without record")
	assert.Equal(t, "old", tbl.Cell(1, ColConcepts), "source table untouched")
}
