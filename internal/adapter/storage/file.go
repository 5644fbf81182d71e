// Package storage persists reduced forecast collections.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
)

const indent = "    "

// FileStore writes the collection to a single JSON file. Writes go to a
// temporary file in the same directory and are renamed into place, so readers
// never observe a partial artifact.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the artifact at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the artifact location.
func (s *FileStore) Path() string { return s.path }

// Persist atomically replaces the artifact with collection.
func (s *FileStore) Persist(ctx context.Context, collection domain.ReducedCollection) error {
	if err := ctx.Err(); err != nil {
		return &domain.PersistError{Target: s.path, Err: err}
	}
	data, err := Encode(collection)
	if err != nil {
		return &domain.PersistError{Target: s.path, Err: err}
	}
	if err := writeAtomic(s.path, data); err != nil {
		return &domain.PersistError{Target: s.path, Err: err}
	}
	return nil
}

// Load reads a previously persisted collection.
func (s *FileStore) Load(_ context.Context) (domain.ReducedCollection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var collection domain.ReducedCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", s.path, err)
	}
	return collection, nil
}

// Encode renders a collection as the indented artifact document.
func Encode(collection domain.ReducedCollection) ([]byte, error) {
	if collection == nil {
		collection = domain.ReducedCollection{}
	}
	data, err := json.MarshalIndent(collection, "", indent)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return append(data, '\n'), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return nil
}
