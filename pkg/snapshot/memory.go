package snapshot

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps snapshots in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

func (s *MemoryStore) Put(_ context.Context, snap *Snapshot) error {
	if err := ValidateName(snap.Name); err != nil {
		return err
	}
	s.mu.Lock()
	s.snaps[snap.Name] = *snap
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.snaps[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (s *MemoryStore) List(context.Context) ([]string, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.snaps))
	for name := range s.snaps {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.snaps, name)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
