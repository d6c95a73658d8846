package domain

import "time"

// DayClass labels a date's relationship to the nearest preceding qualifying
// event window. Each date is classified exactly once and the result is a pure
// function of the calendar, never mutated afterwards.
type DayClass int

const (
	OrdinaryDay DayClass = iota
	EventDay
	DepartureDay // within SpilloverHorizon days after a qualifying window
)

// Classification is the spillover model's verdict for one date.
type Classification struct {
	Class    DayClass
	Offset   int      // days past the window's end, 1..SpilloverHorizon; 0 otherwise
	Category Category // the window's dominant category
	Window   []time.Time
}

// EventLookup resolves the event names scheduled on a date. Implemented by
// the event-calendar collaborator; history notes serve as a fallback source.
type EventLookup func(date time.Time) []string

// SpilloverModel computes the additive revenue attributed to multi-day events
// bleeding into subsequent days, driven by per-category decay coefficients.
type SpilloverModel struct {
	table  *CoefficientTable
	events EventLookup
}

// NewSpilloverModel binds a coefficient snapshot to an event source.
func NewSpilloverModel(table *CoefficientTable, events EventLookup) *SpilloverModel {
	return &SpilloverModel{table: table, events: events}
}

// Classify labels a date as event day, departure day at offset 1..3, or
// ordinary day, based purely on its distance to the nearest preceding
// qualifying event window.
func (m *SpilloverModel) Classify(date time.Time) Classification {
	if cat, ok := m.qualifies(date); ok {
		return Classification{Class: EventDay, Category: cat, Window: m.window(date)}
	}
	for offset := 1; offset <= SpilloverHorizon; offset++ {
		last := date.AddDate(0, 0, -offset)
		if cat, ok := m.qualifies(last); ok {
			return Classification{
				Class:    DepartureDay,
				Offset:   offset,
				Category: cat,
				Window:   m.window(last),
			}
		}
	}
	return Classification{Class: OrdinaryDay}
}

// Contribution returns the spillover revenue for a classified date given the
// summed revenue E across the originating window's days. Zero for anything
// but a departure day.
func (m *SpilloverModel) Contribution(c Classification, periodRevenue float64) float64 {
	if c.Class != DepartureDay || c.Offset < 1 || c.Offset > SpilloverHorizon {
		return 0
	}
	decay := m.table.DecayFor(c.Category)
	return periodRevenue * decay[c.Offset-1]
}

// qualifies reports whether the date hosts a spillover-eligible event and
// returns the date's dominant category.
func (m *SpilloverModel) qualifies(date time.Time) (Category, bool) {
	names := m.events(date)
	if len(names) == 0 {
		return CategoryOther, false
	}
	cat := DominantCategory(names)
	return cat, cat.SpilloverEligible()
}

// window returns the contiguous run of qualifying days containing date,
// oldest first. The caller guarantees date itself qualifies.
func (m *SpilloverModel) window(date time.Time) []time.Time {
	start := date
	for {
		prev := start.AddDate(0, 0, -1)
		if _, ok := m.qualifies(prev); !ok {
			break
		}
		start = prev
	}
	end := date
	for {
		next := end.AddDate(0, 0, 1)
		if _, ok := m.qualifies(next); !ok {
			break
		}
		end = next
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
