// Package snapshot persists investigation documents in a local Badger
// database so sessions can be saved, listed, and restored by name.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/blackvectorops/pano/pkg/graph"
)

// ErrInvalidName is returned when an investigation name contains invalid characters
var ErrInvalidName = errors.New("invalid investigation name")

// ErrNotFound is returned when no snapshot exists under the requested name
var ErrNotFound = errors.New("snapshot not found")

const (
	docPrefix  = "doc:"
	metaPrefix = "meta:"
)

// Info describes a stored snapshot without its full document payload.
type Info struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
}

// Store persists investigation documents keyed by name.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewStore opens (or creates) a snapshot database at dir.
// An empty dir opens an in-memory database.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	// Badger's own logger is too chatty for an embedded store.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// validateName checks that the snapshot name is safe for use as a key.
func validateName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if strings.Contains(name, "..") {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\:`) {
		return ErrInvalidName
	}
	if strings.ContainsRune(name, '\x00') {
		return ErrInvalidName
	}
	return nil
}

// Save persists the document under name, overwriting any previous snapshot.
func (s *Store) Save(ctx context.Context, name string, doc *graph.Document) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("saving %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := graph.EncodeDocument(&buf, doc); err != nil {
		return fmt.Errorf("saving %q: %w", name, err)
	}
	data := buf.Bytes()

	meta := Info{
		Name:    name,
		SavedAt: time.Now().UTC(),
		Nodes:   len(doc.Nodes),
		Edges:   len(doc.Edges),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("saving %q: %w", name, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(docPrefix+name), data); err != nil {
			return err
		}
		return txn.Set([]byte(metaPrefix+name), metaData)
	})
	if err != nil {
		return fmt.Errorf("saving %q: %w", name, err)
	}

	s.logger.Info("investigation saved",
		"name", name,
		"nodes", meta.Nodes,
		"edges", meta.Edges)
	return nil
}

// Load retrieves the document stored under name.
func (s *Store) Load(ctx context.Context, name string) (*graph.Document, error) {
	if err := validateName(name); err != nil {
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(docPrefix + name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("loading %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}

	doc, err := graph.DecodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", name, err)
	}

	s.logger.Info("investigation restored", "name", name, "nodes", len(doc.Nodes))
	return doc, nil
}

// Delete removes the snapshot stored under name. Deleting a missing
// snapshot is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("deleting %q: %w", name, err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(docPrefix + name)); err != nil {
			return err
		}
		return txn.Delete([]byte(metaPrefix + name))
	})
	if err != nil {
		return fmt.Errorf("deleting %q: %w", name, err)
	}
	return nil
}

// Exists reports whether a snapshot is stored under name.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, fmt.Errorf("checking %q: %w", name, err)
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(docPrefix + name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %q: %w", name, err)
	}
	return true, nil
}

// List returns metadata for all stored snapshots, sorted by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var info Info
				if err := json.Unmarshal(val, &info); err != nil {
					// Skip records we can't decode
					s.logger.Warn("skipping unreadable snapshot metadata",
						"key", string(it.Item().Key()))
					return nil
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// CleanOld removes snapshots last saved before maxAge ago and returns
// how many were removed.
func (s *Store) CleanOld(ctx context.Context, maxAge time.Duration) (int, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, info := range infos {
		if info.SavedAt.Before(cutoff) {
			if err := s.Delete(ctx, info.Name); err != nil {
				s.logger.Warn("failed to clean snapshot", "name", info.Name, "error", err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
