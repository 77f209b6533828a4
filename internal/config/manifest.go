package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"course-nlu/internal/domain"
)

// Manifest lists the catalog files processed by one batch run.
type Manifest struct {
	Batches []Batch `yaml:"batches"`
}

// Batch is one input catalog and where its results go. UploadDocs adds the
// exported documents to the Discovery collection.
type Batch struct {
	Input      string `yaml:"input"`
	Output     string `yaml:"output"`
	Level      string `yaml:"level"`
	DocsDir    string `yaml:"docs_dir,omitempty"`
	DocsSuffix string `yaml:"docs_suffix,omitempty"`
	UploadDocs bool   `yaml:"upload_docs,omitempty"`
}

// Validate checks one batch entry.
func (b Batch) Validate() error {
	var missing []string
	if strings.TrimSpace(b.Input) == "" {
		missing = append(missing, "input")
	}
	if strings.TrimSpace(b.Output) == "" {
		missing = append(missing, "output")
	}
	if strings.TrimSpace(b.Level) == "" {
		missing = append(missing, "level")
	}
	if b.DocsDir != "" && strings.TrimSpace(b.DocsSuffix) == "" {
		missing = append(missing, "docs_suffix")
	}
	if b.UploadDocs && b.DocsDir == "" {
		missing = append(missing, "docs_dir")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if filepath.Clean(b.Input) == filepath.Clean(b.Output) {
		return errors.New("output would overwrite input")
	}
	return nil
}

// LoadManifest reads a YAML manifest. Relative paths are resolved against
// the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest: %w", domain.ErrIO, err)
	}
	m, err := ParseManifest(bytes.NewReader(b))
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Batches {
		m.Batches[i].Input = resolve(base, m.Batches[i].Input)
		m.Batches[i].Output = resolve(base, m.Batches[i].Output)
		if m.Batches[i].DocsDir != "" {
			m.Batches[i].DocsDir = resolve(base, m.Batches[i].DocsDir)
		}
	}
	return m, nil
}

// ParseManifest decodes and validates a manifest. Unknown keys are rejected.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return Manifest{}, fmt.Errorf("%w: empty manifest", domain.ErrInvalidInput)
		}
		return Manifest{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if len(m.Batches) == 0 {
		return Manifest{}, fmt.Errorf("%w: manifest has no batches", domain.ErrInvalidInput)
	}
	for i, b := range m.Batches {
		if err := b.Validate(); err != nil {
			return Manifest{}, fmt.Errorf("%w: batch %d: %w", domain.ErrInvalidInput, i, err)
		}
	}
	return m, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
