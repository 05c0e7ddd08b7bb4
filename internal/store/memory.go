package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

var (
	// ErrNotFound is returned when no snapshot is held for a region.
	ErrNotFound = errors.New("no air quality data for region")
)

// MemoryStore is a concurrency-safe view of the latest snapshot set. Every
// write replaces the whole set; nothing older is retained.
type MemoryStore struct {
	mu sync.RWMutex

	// key: region name
	data      map[string]airquality.RegionSnapshot
	updatedAt time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]airquality.RegionSnapshot),
		now:  time.Now,
	}
}

// WriteSnapshots replaces the held set.
func (s *MemoryStore) WriteSnapshots(_ context.Context, snapshots []airquality.RegionSnapshot) error {
	s.Replace(snapshots)
	return nil
}

// Replace swaps in a new snapshot set.
func (s *MemoryStore) Replace(snapshots []airquality.RegionSnapshot) {
	next := make(map[string]airquality.RegionSnapshot, len(snapshots))
	for _, snap := range snapshots {
		next[snap.Region] = snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = next
	s.updatedAt = s.now()
}

// GetLatest returns the snapshot for region.
func (s *MemoryStore) GetLatest(region string) (airquality.RegionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[region]
	if !ok {
		return airquality.RegionSnapshot{}, ErrNotFound
	}
	return snap, nil
}

// All returns every held snapshot ordered by region, and when the set was last replaced.
func (s *MemoryStore) All() ([]airquality.RegionSnapshot, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]airquality.RegionSnapshot, 0, len(s.data))
	for _, snap := range s.data {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, s.updatedAt
}
