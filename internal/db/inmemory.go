package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"healthmate/pkg"
)

// InMemoryMemoryStore is a process-local memory store with the same contract
// as MemoryRepository: capped newest-first recent log, retention-window reads
// that prune storage, per-key long-term merges.  Suitable for tests and
// single-node runs; swap for the Postgres repository in production.
//
// Concurrency: protected by a mutex, which is enough for a single process.
type InMemoryMemoryStore struct {
	mu            sync.Mutex
	docs          map[string]*memoryDoc
	RecentCap     int
	RetentionDays int

	// Now is the clock used for stamping and filtering; tests override it.
	Now func() time.Time
}

type memoryDoc struct {
	longTerm map[string]any
	recent   []pkg.MemoryEntry
}

// NewInMemoryMemoryStore creates an empty store with the default cap and
// retention window.
func NewInMemoryMemoryStore() *InMemoryMemoryStore {
	return &InMemoryMemoryStore{
		docs:          make(map[string]*memoryDoc),
		RecentCap:     DefaultRecentCap,
		RetentionDays: DefaultRetentionDays,
		Now:           time.Now,
	}
}

func (s *InMemoryMemoryStore) doc(userID string) *memoryDoc {
	d, ok := s.docs[userID]
	if !ok {
		d = &memoryDoc{longTerm: make(map[string]any)}
		s.docs[userID] = d
	}
	return d
}

// GetMemory returns a copy of the user's document with stale recent entries
// filtered out.  When stale entries were found the stored list is rewritten
// without them.
func (s *InMemoryMemoryStore) GetMemory(ctx context.Context, userID string) (*pkg.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.doc(userID)

	cutoff := s.Now().UTC().AddDate(0, 0, -s.RetentionDays)
	fresh := make([]pkg.MemoryEntry, 0, len(d.recent))
	for _, e := range d.recent {
		if e.Timestamp.After(cutoff) {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) != len(d.recent) {
		d.recent = fresh
	}

	mem := &pkg.Memory{
		LongTerm: make(map[string]any, len(d.longTerm)),
		Recent:   make([]pkg.MemoryEntry, len(fresh)),
	}
	for k, v := range d.longTerm {
		mem.LongTerm[k] = v
	}
	copy(mem.Recent, fresh)
	return mem, nil
}

// UpdateLongTerm merges the updates into long-term memory, overwriting per
// key.
func (s *InMemoryMemoryStore) UpdateLongTerm(ctx context.Context, userID string, updates map[string]any) error {
	if len(updates) == 0 {
		return fmt.Errorf("long_term updates: %w", pkg.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.doc(userID)
	for k, v := range updates {
		d.longTerm[k] = v
	}
	return nil
}

// AddRecentMemory prepends an entry and truncates the log to the cap.
func (s *InMemoryMemoryStore) AddRecentMemory(ctx context.Context, userID, text, memoryType string) error {
	if memoryType == "" {
		memoryType = "general"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.doc(userID)
	entry := pkg.MemoryEntry{Text: text, Type: memoryType, Timestamp: s.Now().UTC()}
	d.recent = append([]pkg.MemoryEntry{entry}, d.recent...)
	if len(d.recent) > s.RecentCap {
		d.recent = d.recent[:s.RecentCap]
	}
	return nil
}
