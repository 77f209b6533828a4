package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"course-nlu/internal/concurrency"
	"course-nlu/internal/domain"
)

// Uploaded is one document the collection accepted.
type Uploaded struct {
	File       string
	DocumentID string
	Status     string
}

type UploadOptions struct {
	// Workers is the number of documents sent at once.
	Workers int
}

// DocumentFiles lists the <i>_<suffix>.json files in dir ordered by row
// index. An empty suffix lists every .json file.
func DocumentFiles(dir, suffix string) ([]string, error) {
	suffix = strings.TrimSpace(suffix)
	if strings.ContainsAny(suffix, `/\*?[`) {
		return nil, fmt.Errorf("%w: document suffix %q", domain.ErrInvalidInput, suffix)
	}
	pattern := "*.json"
	if suffix != "" {
		pattern = "*_" + suffix + ".json"
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("%w: discovery: %w", domain.ErrIO, err)
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("discovery: list %s: %w", dir, err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		a, aok := rowIndex(files[i])
		b, bok := rowIndex(files[j])
		if aok && bok && a != b {
			return a < b
		}
		if aok != bok {
			return aok
		}
		return files[i] < files[j]
	})
	return files, nil
}

func rowIndex(path string) (int, bool) {
	prefix, _, ok := strings.Cut(filepath.Base(path), "_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(prefix)
	return n, err == nil
}

// UploadDocuments adds every document DocumentFiles finds to the collection.
// Results are in file order. The first failure stops handing out files.
func UploadDocuments(ctx context.Context, c *Client, dir, suffix string, opts UploadOptions) ([]Uploaded, error) {
	files, err := DocumentFiles(dir, suffix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return []Uploaded{}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = concurrency.DefaultOptions().MaxWorkers
	}

	results, errs := concurrency.ProcessParallel(ctx, files, concurrency.ParallelOptions{MaxWorkers: workers, FailFast: true},
		func(ctx context.Context, i int, path string) (Uploaded, error) {
			content, err := os.ReadFile(path)
			if err != nil {
				return Uploaded{}, fmt.Errorf("%w: discovery: read %s: %w", domain.ErrIO, path, err)
			}
			name := filepath.Base(path)
			accepted, err := c.AddDocument(ctx, name, content)
			if err != nil {
				return Uploaded{}, err
			}
			c.Logger.Debug("document accepted", "file", name, "document_id", accepted.DocumentID, "status", accepted.Status)
			for _, n := range accepted.Notices {
				c.Logger.Warn("document notice", "file", name, "severity", n.Severity, "step", n.Step, "message", n.Message)
			}
			return Uploaded{File: name, DocumentID: accepted.DocumentID, Status: accepted.Status}, nil
		})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return results, nil
}
