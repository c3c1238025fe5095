package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// RecentStore persists the recency list
type RecentStore interface {
	Load() ([]model.RecentEntry, error)
	Save(entries []model.RecentEntry) error
}

// RecentList is the client-local, most-recent-first list of uploads.
// Every mutation is a read-modify-write of the store under one lock.
type RecentList struct {
	store RecentStore
	limit int // 0 = unbounded
	now   func() time.Time

	mu sync.Mutex
}

// NewRecentList creates a recency list capped at limit entries (0 = unbounded)
func NewRecentList(store RecentStore, limit int) *RecentList {
	if limit < 0 {
		limit = 0
	}
	return &RecentList{store: store, limit: limit, now: time.Now}
}

// Add records entry at the front of the list, replacing any older entry with
// the same id. Nothing is recorded in privacy mode.
func (l *RecentList) Add(entry model.RecentEntry, privacy bool) error {
	if privacy {
		return nil
	}
	if entry.ID == "" {
		return fmt.Errorf("add recent entry: id is required")
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = l.now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("load recent entries: %w", err)
	}

	next := make([]model.RecentEntry, 0, len(current)+1)
	next = append(next, entry)
	for _, e := range current {
		if e.ID != entry.ID {
			next = append(next, e)
		}
	}
	if l.limit > 0 && len(next) > l.limit {
		next = next[:l.limit]
	}

	if err := l.store.Save(next); err != nil {
		return fmt.Errorf("save recent entries: %w", err)
	}
	return nil
}

// Entries returns the list, most recent first
func (l *RecentList) Entries() ([]model.RecentEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load recent entries: %w", err)
	}
	if entries == nil {
		entries = []model.RecentEntry{}
	}
	return entries, nil
}

// Clear empties the list
func (l *RecentList) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Save([]model.RecentEntry{})
}
