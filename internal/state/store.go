package state

import (
	"sync"
	"time"

	"github.com/PlumyCat/trad-bot-src/internal/globaltime"
)

// Store is a concurrent registry of in-flight translations keyed by internal
// id. Every method holds the mutex only for the map operation itself; no
// network call ever runs under the lock. Sequences like get-then-put are not
// atomic across calls, which is acceptable: ids are caller-scoped UUIDs and
// the worst race degrades to a "not found" outcome.
type Store struct {
	mu           sync.Mutex
	translations map[string]Translation
}

func NewStore() *Store {
	return &Store{
		translations: make(map[string]Translation),
	}
}

// Put inserts or replaces a record. Last writer wins.
func (s *Store) Put(id string, rec Translation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.translations[id] = rec
}

// Get returns a snapshot of the record. Absence is a distinct outcome from
// "found but terminal"; callers check both.
func (s *Store) Get(id string) (Translation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.translations[id]
	return rec, ok
}

// Delete removes the record if present and reports whether it did.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.translations[id]; !ok {
		return false
	}
	delete(s.translations, id)
	return true
}

// CountActive counts the owner's records that are still InProgress.
func (s *Store) CountActive(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, rec := range s.translations {
		if rec.OwnerID == ownerID && rec.Status == StatusInProgress {
			count++
		}
	}
	return count
}

// Sweep removes every record created before now-maxAge and returns how many
// were removed. Scheduling is the caller's concern; the store never sweeps
// on its own.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := globaltime.UTC().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.translations {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.translations, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.translations)
}
