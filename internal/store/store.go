// Package store holds the in-memory ordered collection backing one entity
// kind. It is the single shared structure written by the sync channel and the
// mutation gateway and read by the map and list views.
package store

import (
	"sort"
	"sync"

	"github.com/paglaumhub/reliefmap/internal/models"
)

// Store keeps records in descending created_at order. All mutation entry
// points are serialized by one mutex and notify registered observers after
// the critical section, so readers always see a complete mutation.
type Store[T models.Entity[T]] struct {
	mu        sync.Mutex
	records   []T
	observers []func()
}

func New[T models.Entity[T]]() *Store[T] {
	return &Store[T]{}
}

// OnChange registers fn to run after every applied mutation. Registration is
// not removable; observers belong to the store's lifetime.
func (s *Store[T]) OnChange(fn func()) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Store[T]) notify() {
	s.mu.Lock()
	obs := make([]func(), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()

	for _, fn := range obs {
		fn()
	}
}

// Upsert inserts rec in order, or replaces an existing record with the same
// id in place. Replacing keeps ordering because created_at never changes.
func (s *Store[T]) Upsert(rec T) {
	s.mu.Lock()
	s.upsertLocked(rec)
	s.mu.Unlock()
	s.notify()
}

func (s *Store[T]) upsertLocked(rec T) {
	for i, cur := range s.records {
		if cur.EntityID() == rec.EntityID() {
			s.records[i] = rec
			return
		}
	}
	at := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].CreatedTime().Before(rec.CreatedTime())
	})
	s.records = append(s.records, rec)
	copy(s.records[at+1:], s.records[at:])
	s.records[at] = rec
}

// Apply runs fn against the record with the given id and stores the result.
// It is a no-op (returning false) when the id is absent, which tolerates an
// update racing ahead of its insert.
func (s *Store[T]) Apply(id string, fn func(T) T) bool {
	s.mu.Lock()
	applied := false
	for i, cur := range s.records {
		if cur.EntityID() == id {
			s.records[i] = fn(cur)
			applied = true
			break
		}
	}
	s.mu.Unlock()

	if applied {
		s.notify()
	}
	return applied
}

// Delete removes the record with the given id. Absent ids are a no-op, so a
// late duplicate delete event leaves the store unchanged.
func (s *Store[T]) Delete(id string) (T, bool) {
	s.mu.Lock()
	var removed T
	found := false
	for i, cur := range s.records {
		if cur.EntityID() == id {
			removed = cur
			s.records = append(s.records[:i], s.records[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.notify()
	}
	return removed, found
}

// Reconcile replaces the optimistic placeholder identified by tempID with the
// backend-confirmed record in one critical section. If the confirmed record
// already arrived through the sync channel the upsert collapses onto it, so
// the store never ends up with both representations of one logical creation.
func (s *Store[T]) Reconcile(tempID string, confirmed T) {
	s.mu.Lock()
	for i, cur := range s.records {
		if cur.EntityID() == tempID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	s.upsertLocked(confirmed)
	s.mu.Unlock()
	s.notify()
}

// ReplaceAll swaps the full contents, re-sorting newest first. Used by the
// bulk fetch and by explicit refresh.
func (s *Store[T]) ReplaceAll(recs []T) {
	next := make([]T, len(recs))
	copy(next, recs)
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].CreatedTime().After(next[j].CreatedTime())
	})

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	s.notify()
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.records {
		if cur.EntityID() == id {
			return cur, true
		}
	}
	var zero T
	return zero, false
}

// List returns a newest-first snapshot copy.
func (s *Store[T]) List() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
