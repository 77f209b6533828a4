// Package export turns an analyzed catalog into one JSON document per
// course, the layout a search collection ingests.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"course-nlu/internal/catalog"
	"course-nlu/internal/concurrency"
	"course-nlu/internal/domain"
)

// IDField holds the generated document id.
const IDField = "id"

// listColumns are decoded from list literals into JSON arrays.
var listColumns = map[string]bool{
	domain.ColConcepts: true,
	domain.ColSubject:  true,
}

// Options controls document export.
type Options struct {
	// Workers is the number of files written at once.
	Workers int
}

// Document is one row in header order.
type Document struct {
	ID     string
	Fields []Field
}

type Field struct {
	Name  string
	Value any
}

// MarshalJSON writes the id first and then fields in header order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, IDField, d.ID); err != nil {
		return nil, err
	}
	for _, f := range d.Fields {
		if f.Name == IDField {
			continue
		}
		buf.WriteByte(',')
		if err := writeMember(&buf, f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, name string, v any) error {
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// Documents builds one document per row. Concepts and Subject cells are
// decoded into arrays; a cell that is not a valid list literal is kept as the
// raw string.
func Documents(tbl domain.Table) []Document {
	docs := make([]Document, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		doc := Document{ID: uuid.NewString(), Fields: make([]Field, 0, len(tbl.Header))}
		for j, name := range tbl.Header {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			doc.Fields = append(doc.Fields, Field{Name: name, Value: decodeCell(name, cell)})
		}
		docs = append(docs, doc)
	}
	return docs
}

func decodeCell(name, cell string) any {
	if !listColumns[name] {
		return cell
	}
	values, err := catalog.ParseListLiteral(cell)
	if err != nil {
		return cell
	}
	return values
}

// FileName is the document file name for row i.
func FileName(i int, suffix string) string {
	return fmt.Sprintf("%d_%s.json", i, suffix)
}

// WriteDocuments writes tbl as <i>_<suffix>.json files under dir and returns
// how many were written. Documents left in dir by an earlier export with the
// same suffix are removed first.
func WriteDocuments(ctx context.Context, dir string, tbl domain.Table, suffix string, opts Options) (int, error) {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" || strings.ContainsAny(suffix, `/\*?[`) {
		return 0, fmt.Errorf("%w: document suffix %q", domain.ErrInvalidInput, suffix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: export: mkdir %s: %w", domain.ErrIO, dir, err)
	}
	if err := clearDocuments(dir, suffix); err != nil {
		return 0, err
	}

	docs := Documents(tbl)
	workers := opts.Workers
	if workers <= 0 {
		workers = concurrency.DefaultOptions().MaxWorkers
	}

	errs := concurrency.ForEach(ctx, docs, concurrency.ParallelOptions{MaxWorkers: workers, FailFast: true},
		func(ctx context.Context, i int, doc Document) error {
			b, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("export: encode row %d: %w", i, err)
			}
			path := filepath.Join(dir, FileName(i, suffix))
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return fmt.Errorf("%w: export: write %s: %w", domain.ErrIO, path, err)
			}
			return nil
		})
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	return len(docs), nil
}

func clearDocuments(dir, suffix string) error {
	old, err := filepath.Glob(filepath.Join(dir, "*_"+suffix+".json"))
	if err != nil {
		return fmt.Errorf("export: list %s: %w", dir, err)
	}
	for _, p := range old {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: export: remove %s: %w", domain.ErrIO, p, err)
		}
	}
	return nil
}
