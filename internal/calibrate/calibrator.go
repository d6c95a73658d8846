// Package calibrate adjusts event multipliers and spillover decay
// coefficients by comparing predicted against actual revenue on known dates.
//
// Calibration is a bounded heuristic correction, not a statistical estimator:
// proposals are simple ratios gated by minimum sample counts, and a
// coefficient backed by more observed samples is never overwritten by one
// backed by fewer. Each run is a single batch pass producing one new
// immutable coefficient snapshot. Single-writer discipline: never run two
// calibrations over the same table concurrently.
package calibrate

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
)

// DefaultMinSamples is the minimum number of independent observations needed
// to revise an existing day-specific override. Small-sample revisions are
// rejected to avoid overfitting to a single outlier day.
const DefaultMinSamples = 3

// Actual is one known (date, revenue) observation to calibrate against.
type Actual struct {
	Date    time.Time
	Revenue float64
}

// ProposalKind discriminates the two coefficient families a calibration run
// can touch.
type ProposalKind string

const (
	ProposalDayOverride    ProposalKind = "day_override"
	ProposalSpilloverDecay ProposalKind = "spillover_decay"
)

// Proposal records one proposed coefficient revision, applied or not.
type Proposal struct {
	Kind     ProposalKind
	Category domain.Category
	Weekday  time.Weekday // day_override only
	Offset   int          // spillover_decay only, 1-based
	Current  float64
	Proposed float64
	Samples  int
	Applied  bool
	Reason   string
}

// Result is a calibration run's output: the new snapshot plus the full
// proposal ledger, accepted and rejected alike.
type Result struct {
	Table     *domain.CoefficientTable
	Proposals []Proposal
}

// Calibrator fits coefficient tables against observed revenue.
type Calibrator struct {
	events     domain.EventLookup
	minSamples int
	logger     *slog.Logger
}

// New creates a Calibrator. minSamples <= 0 selects DefaultMinSamples.
func New(events domain.EventLookup, minSamples int, logger *slog.Logger) *Calibrator {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calibrator{events: events, minSamples: minSamples, logger: logger}
}

// Calibrate compares each actual against the model's prediction and folds the
// accepted proposals into a fresh coefficient snapshot. The input table is
// never mutated. Dates whose baseline cannot be resolved are skipped as
// data-quality conditions, not errors.
func (c *Calibrator) Calibrate(history []domain.RevenueRecord, actuals []Actual, table *domain.CoefficientTable) (Result, error) {
	if table == nil {
		return Result{}, fmt.Errorf("calibrate: nil coefficient table")
	}

	baseline := domain.NewBaselineModel(history, 0, c.logger)
	spill := domain.NewSpilloverModel(table, c.events)
	revenueByDate := indexRevenue(history)

	next := table.Clone()
	var proposals []Proposal

	overrideProps := c.collectOverrideProposals(baseline, actuals)
	proposals = append(proposals, c.applyOverrideProposals(table, next, overrideProps)...)

	decayProps := c.collectDecayProposals(baseline, spill, table, revenueByDate, actuals)
	proposals = append(proposals, c.applyDecayProposals(table, next, decayProps)...)

	if err := next.Validate(); err != nil {
		return Result{}, fmt.Errorf("calibrate: %w", err)
	}

	c.logger.Info("calibration complete",
		"table_version", next.Version,
		"actuals", len(actuals),
		"proposals", len(proposals),
		"applied", countApplied(proposals),
	)
	return Result{Table: next, Proposals: proposals}, nil
}

// overrideKey groups event-day proposals by (category, weekday).
type overrideKey struct {
	category domain.Category
	weekday  time.Weekday
}

// collectOverrideProposals derives a proposed override multiplier
// actual/baseline for every event-day actual.
func (c *Calibrator) collectOverrideProposals(baseline *domain.BaselineModel, actuals []Actual) map[overrideKey][]float64 {
	grouped := make(map[overrideKey][]float64)
	for _, a := range actuals {
		events := c.events(a.Date)
		if len(events) == 0 {
			continue
		}
		base, err := baseline.Baseline(a.Date.Weekday())
		if err != nil || base <= 0 {
			c.logger.Warn("skipping event-day actual without baseline",
				"date", domain.DateKey(a.Date), "error", err)
			continue
		}
		key := overrideKey{category: domain.DominantCategory(events), weekday: a.Date.Weekday()}
		grouped[key] = append(grouped[key], a.Revenue/base)
	}
	return grouped
}

// applyOverrideProposals enforces the acceptance policy: a proposal is
// accepted when the category had no override for that weekday, or when at
// least minSamples independent samples back the revision and the existing
// override is not backed by more.
func (c *Calibrator) applyOverrideProposals(current, next *domain.CoefficientTable, grouped map[overrideKey][]float64) []Proposal {
	keys := make([]overrideKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].weekday < keys[j].weekday
	})

	proposals := make([]Proposal, 0, len(keys))
	for _, key := range keys {
		samples := grouped[key]
		proposed := mean(samples)
		existing, hasOverride := current.Override(key.category, key.weekday)
		existingSamples := current.OverrideSampleCount(key.category, key.weekday)

		p := Proposal{
			Kind:     ProposalDayOverride,
			Category: key.category,
			Weekday:  key.weekday,
			Current:  existing,
			Proposed: proposed,
			Samples:  len(samples),
		}

		switch {
		case !hasOverride:
			p.Applied = true
			p.Reason = "no existing override"
		case len(samples) >= c.minSamples && len(samples) >= existingSamples:
			p.Applied = true
			p.Reason = "revision backed by sufficient samples"
		case len(samples) < c.minSamples:
			p.Reason = fmt.Sprintf("rejected: %d sample(s), need %d to revise", len(samples), c.minSamples)
		default:
			p.Reason = fmt.Sprintf("rejected: existing override backed by %d samples", existingSamples)
		}

		if p.Applied {
			next.SetOverride(key.category, key.weekday, proposed, len(samples))
		}
		proposals = append(proposals, p)
	}
	return proposals
}

// decayKey groups departure-day proposals by (category, offset).
type decayKey struct {
	category domain.Category
	offset   int
}

// collectDecayProposals derives a decay adjustment (actual − predicted) / E
// for every departure-day actual, where E is the summed actual revenue
// across the originating event window.
func (c *Calibrator) collectDecayProposals(
	baseline *domain.BaselineModel,
	spill *domain.SpilloverModel,
	table *domain.CoefficientTable,
	revenueByDate map[string]domain.RevenueRecord,
	actuals []Actual,
) map[decayKey][]float64 {
	grouped := make(map[decayKey][]float64)
	for _, a := range actuals {
		if len(c.events(a.Date)) > 0 {
			continue // event days calibrate multipliers, not decay
		}
		class := spill.Classify(a.Date)
		if class.Class != domain.DepartureDay {
			continue
		}

		periodRevenue, ok := sumWindowRevenue(class.Window, revenueByDate)
		if !ok || periodRevenue <= 0 {
			c.logger.Warn("skipping departure-day actual with incomplete event window",
				"date", domain.DateKey(a.Date), "offset", class.Offset)
			continue
		}

		base, err := baseline.Baseline(a.Date.Weekday())
		if err != nil {
			c.logger.Warn("skipping departure-day actual without baseline",
				"date", domain.DateKey(a.Date), "error", err)
			continue
		}
		weather := 1.0
		if rec, found := revenueByDate[domain.DateKey(a.Date)]; found {
			weather = domain.WeatherMultiplier(rec.Weather)
		}

		predicted := base*weather + spill.Contribution(class, periodRevenue)
		adjustment := (a.Revenue - predicted) / periodRevenue

		key := decayKey{category: class.Category, offset: class.Offset}
		grouped[key] = append(grouped[key], adjustment)
	}
	return grouped
}

// applyDecayProposals adds each mean adjustment to the existing coefficient,
// clamps to [0, 1], and enforces the same more-samples-wins rule as
// overrides.
func (c *Calibrator) applyDecayProposals(current, next *domain.CoefficientTable, grouped map[decayKey][]float64) []Proposal {
	keys := make([]decayKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].offset < keys[j].offset
	})

	proposals := make([]Proposal, 0, len(keys))
	for _, key := range keys {
		samples := grouped[key]
		row := current.DecayFor(key.category)
		existing := row[key.offset-1]
		existingSamples := current.DecaySamples[key.category][key.offset-1]

		proposed := clamp(existing+mean(samples), 0, 1)

		p := Proposal{
			Kind:     ProposalSpilloverDecay,
			Category: key.category,
			Offset:   key.offset,
			Current:  existing,
			Proposed: proposed,
			Samples:  len(samples),
		}

		if len(samples) >= existingSamples {
			p.Applied = true
			p.Reason = "decay adjusted toward observed spillover"
			next.SetDecay(key.category, key.offset, proposed, len(samples))
		} else {
			p.Reason = fmt.Sprintf("rejected: existing coefficient backed by %d samples", existingSamples)
		}
		proposals = append(proposals, p)
	}

	// The decay row must never attribute more than the event-period revenue;
	// scale an overshooting row back down to sum to 1.
	for cat, row := range next.Decay {
		var sum float64
		for _, v := range row {
			sum += v
		}
		if sum <= 1 {
			continue
		}
		for i := range row {
			row[i] /= sum
		}
		next.Decay[cat] = row
	}
	return proposals
}

func indexRevenue(history []domain.RevenueRecord) map[string]domain.RevenueRecord {
	byDate := make(map[string]domain.RevenueRecord, len(history))
	for _, r := range history {
		byDate[domain.DateKey(r.Date)] = r
	}
	return byDate
}

// sumWindowRevenue sums actual revenue over the window's days. Reports false
// when any day is missing from history, since a partial sum would bias E low.
func sumWindowRevenue(window []time.Time, byDate map[string]domain.RevenueRecord) (float64, bool) {
	var sum float64
	for _, d := range window {
		rec, ok := byDate[domain.DateKey(d)]
		if !ok {
			return 0, false
		}
		sum += rec.Revenue
	}
	return sum, true
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func countApplied(proposals []Proposal) int {
	var n int
	for _, p := range proposals {
		if p.Applied {
			n++
		}
	}
	return n
}
