// Package cache keeps analyze responses in a local BadgerDB so re-running a
// catalog does not bill the service again for descriptions it has already
// seen.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/text/unicode/norm"

	"course-nlu/internal/nlu"
)

// Analyzer is the analyze contract being cached; it matches enrich.Analyzer.
type Analyzer interface {
	Categories(ctx context.Context, text string) ([]nlu.Category, error)
	Keywords(ctx context.Context, text string, opts nlu.KeywordsOptions) ([]nlu.Keyword, error)
	Concepts(ctx context.Context, text string) ([]nlu.Concept, error)
}

// Store is a BadgerDB-backed response store.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open opens (or creates) the store in dir. ttl <= 0 keeps entries forever.
func Open(dir string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache: empty directory")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}
	return &Store{db: db, ttl: ttl, logger: logger}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory(ttl time.Duration) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("cache: open in-memory: %w", err)
	}
	return &Store{db: db, ttl: ttl, logger: slog.Default()}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the store key for a feature call. Descriptions are NFC
// normalized and trimmed first so visually identical text shares an entry.
func Key(feature string, text string, variant string) []byte {
	h := sha256.New()
	h.Write([]byte(norm.NFC.String(strings.TrimSpace(text))))
	if variant != "" {
		h.Write([]byte{0})
		h.Write([]byte(variant))
	}
	return []byte("nlu/" + feature + "/" + hex.EncodeToString(h.Sum(nil)))
}

// get decodes the value at key into out. found is false on a miss.
func (s *Store) get(key []byte, out any) (found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, b)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}
