package pipeline_test

import (
	"testing"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/couchcryptid/parking-revenue-forecast/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_UpsertReplacesDay(t *testing.T) {
	s := pipeline.NewHistoryStore()
	day := time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC)

	assert.False(t, s.Upsert(domain.RevenueRecord{Date: day, Revenue: 50000}))
	assert.True(t, s.Upsert(domain.RevenueRecord{Date: day, Revenue: 51000}), "same day replaces")

	require.Equal(t, 1, s.Len())
	rec, ok := s.Get("2025-08-27")
	require.True(t, ok)
	assert.Equal(t, 51000.0, rec.Revenue)
}

func TestHistoryStore_ListSortedAndCopied(t *testing.T) {
	s := pipeline.NewHistoryStore()
	s.Upsert(domain.RevenueRecord{Date: time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC), Revenue: 3})
	s.Upsert(domain.RevenueRecord{Date: time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), Revenue: 1})
	s.Upsert(domain.RevenueRecord{Date: time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC), Revenue: 2})

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, 1.0, list[0].Revenue)
	assert.Equal(t, 3.0, list[2].Revenue)

	list[0].Revenue = 99
	fresh := s.List()
	assert.Equal(t, 1.0, fresh[0].Revenue, "mutating the returned slice must not touch the store")
}

func TestHistoryStore_Latest(t *testing.T) {
	s := pipeline.NewHistoryStore()
	_, ok := s.Latest()
	assert.False(t, ok)

	s.Upsert(domain.RevenueRecord{Date: time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)})
	s.Upsert(domain.RevenueRecord{Date: time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC)})

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "2025-08-27", domain.DateKey(latest.Date))
}
