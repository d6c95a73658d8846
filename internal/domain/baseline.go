package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// ErrNoBaseline is returned when a day of week has no historical
// observations at all. This is the one fatal forecasting condition: it
// signals a data-onboarding problem the caller must fix, so it is surfaced
// rather than silently defaulted.
var ErrNoBaseline = errors.New("no baseline observations for day of week")

const (
	// DefaultBaselineWindowDays is the trailing window baselines prefer.
	DefaultBaselineWindowDays = 90

	// widenedWindowDays is the fallback window when the trailing average
	// looks degraded: the most recent full year of data.
	widenedWindowDays = 365

	// degradedRatio triggers the widened window: a trailing average below
	// this fraction of the all-time average for the same weekday means the
	// recent export is likely partial, and trusting it would collapse the
	// forecast.
	degradedRatio = 0.30
)

// BaselineModel derives per-day-of-week expected revenue from historical
// non-event observations, preferring recent data with a single named
// data-quality fallback.
type BaselineModel struct {
	records    []RevenueRecord // sorted by date ascending
	windowDays int
	logger     *slog.Logger
}

// NewBaselineModel builds a model over the given history. The slice is copied
// and sorted; callers keep ownership of their input. windowDays <= 0 selects
// the default trailing window.
func NewBaselineModel(records []RevenueRecord, windowDays int, logger *slog.Logger) *BaselineModel {
	if windowDays <= 0 {
		windowDays = DefaultBaselineWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]RevenueRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &BaselineModel{records: sorted, windowDays: windowDays, logger: logger}
}

// Baseline returns the expected revenue for a day of week absent any event:
// the mean over non-event records for that weekday within the trailing
// window. If that mean falls below 30% of the weekday's all-time mean the
// window is widened to the trailing year, a recoverable data-quality
// condition, logged but never an error. Only a weekday with no observations
// at all yields ErrNoBaseline.
func (m *BaselineModel) Baseline(day time.Weekday) (float64, error) {
	allTime, allCount := m.average(day, time.Time{})
	if allCount == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoBaseline, day)
	}

	end := m.records[len(m.records)-1].Date
	windowStart := end.AddDate(0, 0, -m.windowDays)

	recent, recentCount := m.average(day, windowStart)
	if recentCount > 0 && recent >= degradedRatio*allTime {
		return recent, nil
	}

	m.logger.Warn("baseline window widened",
		"condition", "degraded_recent_window",
		"day_of_week", day.String(),
		"recent_avg", recent,
		"recent_samples", recentCount,
		"all_time_avg", allTime,
	)

	widenedStart := end.AddDate(0, 0, -widenedWindowDays)
	widened, widenedCount := m.average(day, widenedStart)
	if widenedCount == 0 {
		return allTime, nil
	}
	return widened, nil
}

// average returns the mean revenue and sample count over non-event records
// for the weekday on or after start. A zero start means all of history.
func (m *BaselineModel) average(day time.Weekday, start time.Time) (float64, int) {
	var sum float64
	var n int
	for _, r := range m.records {
		if r.Weekday() != day || r.HasEvent() {
			continue
		}
		if !start.IsZero() && r.Date.Before(start) {
			continue
		}
		sum += r.Revenue
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
