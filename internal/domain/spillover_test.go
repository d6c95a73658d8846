package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calendarLookup builds an EventLookup from a date-keyed map.
func calendarLookup(entries map[string][]string) EventLookup {
	return func(date time.Time) []string {
		return entries[DateKey(date)]
	}
}

func festivalCalendar() EventLookup {
	return calendarLookup(map[string][]string{
		"2025-07-31": {"Lollapalooza Day 1"}, // Thursday
		"2025-08-01": {"Lollapalooza Day 2"},
		"2025-08-02": {"Lollapalooza Day 3"},
		"2025-08-03": {"Lollapalooza Day 4"}, // Sunday
		"2025-08-09": {"Bears preseason"},    // Saturday, not spillover-eligible
	})
}

func TestSpilloverModel_Classify(t *testing.T) {
	m := NewSpilloverModel(NewDefaultTable(), festivalCalendar())

	tests := []struct {
		name     string
		date     time.Time
		class    DayClass
		offset   int
		category Category
	}{
		{"first event day", time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), EventDay, 0, CategoryMegaFestival},
		{"last event day", time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC), EventDay, 0, CategoryMegaFestival},
		{"monday after", time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), DepartureDay, 1, CategoryMegaFestival},
		{"tuesday after", time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC), DepartureDay, 2, CategoryMegaFestival},
		{"wednesday after", time.Date(2025, 8, 6, 0, 0, 0, 0, time.UTC), DepartureDay, 3, CategoryMegaFestival},
		{"beyond horizon", time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC), OrdinaryDay, 0, Category("")},
		{"day before window", time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC), OrdinaryDay, 0, Category("")},
		{"day after sports game", time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), OrdinaryDay, 0, Category("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := m.Classify(tt.date)
			assert.Equal(t, tt.class, c.Class)
			assert.Equal(t, tt.offset, c.Offset)
			if tt.category != "" {
				assert.Equal(t, tt.category, c.Category)
			}
		})
	}
}

func TestSpilloverModel_WindowIsContiguousRun(t *testing.T) {
	m := NewSpilloverModel(NewDefaultTable(), festivalCalendar())

	c := m.Classify(time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC))
	require.Equal(t, DepartureDay, c.Class)

	want := []time.Time{
		time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, c.Window); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestSpilloverModel_Contribution(t *testing.T) {
	table := NewDefaultTable()
	m := NewSpilloverModel(table, festivalCalendar())

	const periodRevenue = 544501.80
	decay := table.DecayFor(CategoryMegaFestival)

	t.Run("departure offsets scale by decay", func(t *testing.T) {
		for offset := 1; offset <= SpilloverHorizon; offset++ {
			c := Classification{Class: DepartureDay, Offset: offset, Category: CategoryMegaFestival}
			assert.InDelta(t, periodRevenue*decay[offset-1], m.Contribution(c, periodRevenue), 1e-9)
		}
	})

	t.Run("ordinary and event days contribute nothing", func(t *testing.T) {
		assert.Zero(t, m.Contribution(Classification{Class: OrdinaryDay}, periodRevenue))
		assert.Zero(t, m.Contribution(Classification{Class: EventDay, Category: CategoryMegaFestival}, periodRevenue))
	})

	t.Run("total spillover never exceeds period revenue", func(t *testing.T) {
		var total float64
		for offset := 1; offset <= SpilloverHorizon; offset++ {
			c := Classification{Class: DepartureDay, Offset: offset, Category: CategoryMegaFestival}
			total += m.Contribution(c, periodRevenue)
		}
		assert.LessOrEqual(t, total, periodRevenue)
	})
}

func TestDecayRow_WithinUnitInterval(t *testing.T) {
	table := NewDefaultTable()
	for cat, row := range table.Decay {
		for i, v := range row {
			assert.GreaterOrEqual(t, v, 0.0, "decay[%s][%d]", cat, i+1)
			assert.LessOrEqual(t, v, 1.0, "decay[%s][%d]", cat, i+1)
		}
	}
}
