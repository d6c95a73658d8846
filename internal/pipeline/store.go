package pipeline

import (
	"sort"
	"sync"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
)

// HistoryStore is the in-memory revenue history, keyed by calendar day. The
// source topic is compacted per date, so a re-delivered day replaces the
// earlier observation.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.RevenueRecord
}

// NewHistoryStore creates an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string]domain.RevenueRecord)}
}

// Upsert stores a record, replacing any earlier observation for the same day.
// Reports whether the day was already present.
func (s *HistoryStore) Upsert(rec domain.RevenueRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.DateKey(rec.Date)
	_, existed := s.records[key]
	s.records[key] = rec
	return existed
}

// Get returns the record for a calendar day, if present.
func (s *HistoryStore) Get(key string) (domain.RevenueRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

// List returns all records sorted by date ascending. The slice is a copy.
func (s *HistoryStore) List() []domain.RevenueRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RevenueRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Latest returns the most recent record, if any.
func (s *HistoryStore) Latest() (domain.RevenueRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest domain.RevenueRecord
	var found bool
	for _, rec := range s.records {
		if !found || rec.Date.After(latest.Date) {
			latest = rec
			found = true
		}
	}
	return latest, found
}

// Len returns the number of stored days.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
