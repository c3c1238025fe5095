package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/util"
)

// MemoryStore keeps the recency list in process memory
type MemoryStore struct {
	mu      sync.Mutex
	entries []model.RecentEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() ([]model.RecentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RecentEntry(nil), s.entries...), nil
}

func (s *MemoryStore) Save(entries []model.RecentEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]model.RecentEntry(nil), entries...)
	return nil
}

// FileStore keeps the recency list as a JSON array in a single file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path; "~" is expanded
func NewFileStore(path string) *FileStore {
	return &FileStore{path: util.ExpandHome(path)}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the list. A missing file is an empty list.
func (s *FileStore) Load() ([]model.RecentEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.RecentEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []model.RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return entries, nil
}

// Save replaces the file contents atomically
func (s *FileStore) Save(entries []model.RecentEntry) error {
	if entries == nil {
		entries = []model.RecentEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recent entries: %w", err)
	}
	return util.WriteFileAtomic(s.path, data)
}
