// Package store holds the fingerprint records for one run. Each run works
// on a freshly constructed store; nothing persists across runs.
package store

import (
	"sync"

	"imagededup/internal/models"
)

// Store maps image ids to their records. Inserts of distinct ids are safe
// from concurrent goroutines (the hashing workers write directly into the
// store). Each record also gets a dense integer index in insertion order,
// which the group builder uses as its union-find arena key.
type Store struct {
	mu      sync.RWMutex
	records map[string]*models.ImageRecord
	order   []*models.ImageRecord
	index   map[string]int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]*models.ImageRecord),
		index:   make(map[string]int),
	}
}

// Put inserts a record. Inserting the same id twice fails with
// *models.DuplicateIDError.
func (s *Store) Put(rec *models.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return &models.DuplicateIDError{ID: rec.ID}
	}
	s.records[rec.ID] = rec
	s.index[rec.ID] = len(s.order)
	s.order = append(s.order, rec)
	return nil
}

// Get returns the record for id, if present.
func (s *Store) Get(id string) (*models.ImageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Index returns the dense integer index assigned to id at insertion.
func (s *Store) Index(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	return i, ok
}

// At returns the record with dense index i.
func (s *Store) At(i int) *models.ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order[i]
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// All returns all records in insertion order.
func (s *Store) All() []*models.ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ImageRecord, len(s.order))
	copy(out, s.order)
	return out
}
