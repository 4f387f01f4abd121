// Package jsonfile implements stores that keep their state in JSON files
// under the data directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/colonyops/abroad/internal/core/history"
)

// HistoryFile is the root JSON structure stored on disk.
type HistoryFile struct {
	Entries []history.Entry `json:"entries"`
}

// HistoryStore implements history.Store using a JSON file for persistence.
type HistoryStore struct {
	path string
	mu   sync.RWMutex
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a new JSON file history store at the given path.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// Path returns the file backing the store.
func (s *HistoryStore) Path() string {
	return s.path
}

// List returns all history entries, newest first.
func (s *HistoryStore) List(ctx context.Context) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	return file.Entries, nil
}

// Get returns a history entry by ID. Returns history.ErrNotFound if not found.
func (s *HistoryStore) Get(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return history.Entry{}, err
	}

	for _, entry := range file.Entries {
		if entry.ID == id {
			return entry, nil
		}
	}

	return history.Entry{}, history.ErrNotFound
}

// Save adds a new history entry, pruning old entries to stay within maxEntries.
func (s *HistoryStore) Save(ctx context.Context, entry history.Entry, maxEntries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	file.Entries = append([]history.Entry{entry}, file.Entries...)

	if maxEntries > 0 && len(file.Entries) > maxEntries {
		file.Entries = file.Entries[:maxEntries]
	}

	return writeJSON(s.path, file)
}

// Clear removes all history entries.
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(s.path, HistoryFile{Entries: []history.Entry{}})
}

// load reads the history file from disk.
// Returns empty HistoryFile if file doesn't exist.
func (s *HistoryStore) load() (HistoryFile, error) {
	var file HistoryFile
	if _, err := readJSON(s.path, &file); err != nil {
		return HistoryFile{}, err
	}
	return file, nil
}

// readJSON decodes path into dest. It reports false when the file is missing
// or empty, leaving dest untouched.
func readJSON(path string, dest any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	if len(data) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}

	return true, nil
}

// writeJSON writes v to path atomically.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
