// Package catalog reads and writes course catalog CSV files.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"course-nlu/internal/domain"
)

const utf8BOM = "\ufeff"

// Read parses a catalog with a header row. Short rows are kept as-is; a row
// with more cells than the header is rejected.
func Read(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, fmt.Errorf("%w: catalog has no header row", domain.ErrInvalidInput)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: read header: %v", domain.ErrInvalidInput, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	tbl := domain.Table{Header: header, Rows: []domain.Row{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return domain.Table{}, fmt.Errorf("%w: row %d (line %d): expected %d fields, saw %d",
				domain.ErrInvalidInput, len(tbl.Rows), line, len(header), len(rec))
		}
		tbl.Rows = append(tbl.Rows, domain.Row(rec))
	}
	return tbl, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: open %s: %v", domain.ErrIO, path, err)
	}
	defer f.Close()

	tbl, err := Read(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return tbl, nil
}

// Write emits the header followed by every row.
func Write(w io.Writer, tbl domain.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tbl.Header); err != nil {
		return err
	}
	for _, row := range tbl.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes tbl to path atomically: the table goes to a temp file in
// the same directory which is then renamed over path. An advisory lock on
// path+".lock" keeps two runs from writing the same output at once.
func WriteFile(path string, tbl domain.Table) (err error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create output dir: %v", domain.ErrIO, err)
		}
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: lock %s: %v", domain.ErrIO, path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s is being written by another run", domain.ErrIO, path)
	}
	defer func() {
		lock.Unlock()
		os.Remove(path + ".lock")
	}()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrIO, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: chmod temp file: %v", domain.ErrIO, err)
	}
	if err = Write(tmp, tbl); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrIO, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrIO, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename into %s: %v", domain.ErrIO, path, err)
	}
	return nil
}
