package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SpilloverHorizon is how many days past an event window's end still receive
// departure-day spillover.
const SpilloverHorizon = 3

// DecayRow holds spillover decay coefficients indexed by offset-1: fraction
// of event-period revenue attributed to the day at offset 1, 2, 3 past the
// window's end.
type DecayRow [SpilloverHorizon]float64

// CoefficientTable is the single piece of model state: category base
// multipliers, sparse per-weekday overrides, and spillover decay rows, plus
// the sample counts backing each calibrated value. Treat every table as an
// immutable snapshot: calibration clones and returns a new one, it never
// mutates a table a forecast run may be reading.
type CoefficientTable struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	Base            map[Category]float64                  `json:"base"`
	Overrides       map[Category]map[time.Weekday]float64 `json:"overrides,omitempty"`
	OverrideSamples map[Category]map[time.Weekday]int     `json:"override_samples,omitempty"`
	Decay           map[Category]DecayRow                 `json:"decay,omitempty"`
	DecaySamples    map[Category][SpilloverHorizon]int    `json:"decay_samples,omitempty"`
}

// NewDefaultTable returns a table seeded with the operation's historically
// validated coefficients. Sample counts are zero: seed values never outrank
// observed data under the calibration policy.
func NewDefaultTable() *CoefficientTable {
	return &CoefficientTable{
		Version:   uuid.NewString(),
		CreatedAt: clock.Now().UTC(),
		Base: map[Category]float64{
			CategoryMegaFestival:     1.67,
			CategoryMajorPerformance: 1.40,
			CategorySports:           1.30,
			CategoryFestival:         1.25,
			CategoryPerformance:      1.20,
			CategoryHoliday:          1.15,
			CategoryOther:            1.10,
		},
		Overrides: map[Category]map[time.Weekday]float64{
			CategoryMegaFestival: {
				time.Thursday: 2.49,
				time.Friday:   2.12,
				time.Saturday: 1.80,
				time.Sunday:   2.24,
			},
		},
		OverrideSamples: map[Category]map[time.Weekday]int{},
		Decay: map[Category]DecayRow{
			CategoryMegaFestival: {0.398, 0.080, 0.040},
		},
		DecaySamples: map[Category][SpilloverHorizon]int{},
	}
}

// BaseMultiplier returns the category's base multiplier, or the catch-all
// "other" multiplier for an unknown category.
func (t *CoefficientTable) BaseMultiplier(c Category) float64 {
	if m, ok := t.Base[c]; ok {
		return m
	}
	return t.Base[CategoryOther]
}

// Override returns the day-specific override multiplier for (category, day),
// if one is present.
func (t *CoefficientTable) Override(c Category, day time.Weekday) (float64, bool) {
	m, ok := t.Overrides[c][day]
	return m, ok
}

// OverrideSampleCount returns how many observed samples back the (category,
// day) override. Zero for seed values and absent overrides.
func (t *CoefficientTable) OverrideSampleCount(c Category, day time.Weekday) int {
	return t.OverrideSamples[c][day]
}

// DecayFor returns the spillover decay row for a category. Categories without
// a row (or not spillover-eligible) get a zero row.
func (t *CoefficientTable) DecayFor(c Category) DecayRow {
	return t.Decay[c]
}

// Clone returns a deep copy sharing no mutable state with the receiver. The
// copy gets a fresh version and creation timestamp.
func (t *CoefficientTable) Clone() *CoefficientTable {
	next := &CoefficientTable{
		Version:         uuid.NewString(),
		CreatedAt:       clock.Now().UTC(),
		Base:            make(map[Category]float64, len(t.Base)),
		Overrides:       make(map[Category]map[time.Weekday]float64, len(t.Overrides)),
		OverrideSamples: make(map[Category]map[time.Weekday]int, len(t.OverrideSamples)),
		Decay:           make(map[Category]DecayRow, len(t.Decay)),
		DecaySamples:    make(map[Category][SpilloverHorizon]int, len(t.DecaySamples)),
	}
	for c, m := range t.Base {
		next.Base[c] = m
	}
	for c, days := range t.Overrides {
		inner := make(map[time.Weekday]float64, len(days))
		for d, m := range days {
			inner[d] = m
		}
		next.Overrides[c] = inner
	}
	for c, days := range t.OverrideSamples {
		inner := make(map[time.Weekday]int, len(days))
		for d, n := range days {
			inner[d] = n
		}
		next.OverrideSamples[c] = inner
	}
	for c, row := range t.Decay {
		next.Decay[c] = row // arrays copy by value
	}
	for c, row := range t.DecaySamples {
		next.DecaySamples[c] = row
	}
	return next
}

// SetOverride records an override multiplier and its backing sample count.
// Callers mutate only freshly cloned tables.
func (t *CoefficientTable) SetOverride(c Category, day time.Weekday, multiplier float64, samples int) {
	if t.Overrides == nil {
		t.Overrides = map[Category]map[time.Weekday]float64{}
	}
	if t.Overrides[c] == nil {
		t.Overrides[c] = map[time.Weekday]float64{}
	}
	t.Overrides[c][day] = multiplier

	if t.OverrideSamples == nil {
		t.OverrideSamples = map[Category]map[time.Weekday]int{}
	}
	if t.OverrideSamples[c] == nil {
		t.OverrideSamples[c] = map[time.Weekday]int{}
	}
	t.OverrideSamples[c][day] = samples
}

// SetDecay records a decay coefficient for (category, offset) with its
// backing sample count. Offset is 1-based. Callers mutate only freshly
// cloned tables.
func (t *CoefficientTable) SetDecay(c Category, offset int, coefficient float64, samples int) {
	if offset < 1 || offset > SpilloverHorizon {
		return
	}
	if t.Decay == nil {
		t.Decay = map[Category]DecayRow{}
	}
	row := t.Decay[c]
	row[offset-1] = coefficient
	t.Decay[c] = row

	if t.DecaySamples == nil {
		t.DecaySamples = map[Category][SpilloverHorizon]int{}
	}
	counts := t.DecaySamples[c]
	counts[offset-1] = samples
	t.DecaySamples[c] = counts
}

// Validate checks the table's invariants: multipliers non-negative, decay
// coefficients in [0, 1], and each category's decay row summing to at most 1
// so spillover never exceeds the originating event-period revenue.
func (t *CoefficientTable) Validate() error {
	if _, ok := t.Base[CategoryOther]; !ok {
		return fmt.Errorf("coefficient table %s: missing catch-all base multiplier", t.Version)
	}
	for c, m := range t.Base {
		if m < 0 {
			return fmt.Errorf("coefficient table %s: negative base multiplier %g for %s", t.Version, m, c)
		}
	}
	for c, days := range t.Overrides {
		for d, m := range days {
			if m < 0 {
				return fmt.Errorf("coefficient table %s: negative override %g for %s %s", t.Version, m, c, d)
			}
		}
	}
	for c, row := range t.Decay {
		var sum float64
		for i, v := range row {
			if v < 0 || v > 1 {
				return fmt.Errorf("coefficient table %s: decay[%s][%d]=%g outside [0,1]", t.Version, c, i+1, v)
			}
			sum += v
		}
		if sum > 1 {
			return fmt.Errorf("coefficient table %s: decay row for %s sums to %g (>1)", t.Version, c, sum)
		}
	}
	return nil
}
