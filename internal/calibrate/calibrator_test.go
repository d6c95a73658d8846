package calibrate

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Festival weekend used throughout: Thursday 2025-07-31 through Sunday
// 2025-08-03, with the weekday baselines established the week before.
var (
	festivalDays = map[string][]string{
		"2025-07-31": {"Lollapalooza Day 1"},
		"2025-08-01": {"Lollapalooza Day 2"},
		"2025-08-02": {"Lollapalooza Day 3"},
		"2025-08-03": {"Lollapalooza Day 4"},
	}

	festivalActuals = map[string]float64{
		"2025-07-31": 133167.80,
		"2025-08-01": 116299.54,
		"2025-08-02": 134982.18,
		"2025-08-03": 160052.28,
	}

	weekdayBaselines = map[time.Weekday]float64{
		time.Monday:   50000,
		time.Thursday: 53478,
		time.Friday:   54933,
		time.Saturday: 74934,
		time.Sunday:   71348,
	}
)

func calendarLookup(entries map[string][]string) domain.EventLookup {
	return func(d time.Time) []string { return entries[domain.DateKey(d)] }
}

// festivalHistory returns baseline-establishing records for the week of July
// 21 plus the festival days themselves carrying their actual revenue.
func festivalHistory() []domain.RevenueRecord {
	history := []domain.RevenueRecord{
		{Date: date(2025, 7, 24), Revenue: weekdayBaselines[time.Thursday]},
		{Date: date(2025, 7, 25), Revenue: weekdayBaselines[time.Friday]},
		{Date: date(2025, 7, 26), Revenue: weekdayBaselines[time.Saturday]},
		{Date: date(2025, 7, 27), Revenue: weekdayBaselines[time.Sunday]},
		{Date: date(2025, 7, 28), Revenue: weekdayBaselines[time.Monday]},
	}
	for key, revenue := range festivalActuals {
		d, _ := time.ParseInLocation(domain.DateLayout, key, time.UTC)
		history = append(history, domain.RevenueRecord{Date: d, Revenue: revenue, Notes: "Lollapalooza"})
	}
	return history
}

// tableWithoutOverrides strips the seeded festival overrides so the test
// exercises the "no existing override" acceptance path.
func tableWithoutOverrides() *domain.CoefficientTable {
	table := domain.NewDefaultTable()
	table.Overrides = map[domain.Category]map[time.Weekday]float64{}
	return table
}

func TestCalibrate_FestivalWeekendOverrides(t *testing.T) {
	cal := New(calendarLookup(festivalDays), 3, discardLogger())

	var actuals []Actual
	for key, revenue := range festivalActuals {
		d, err := time.ParseInLocation(domain.DateLayout, key, time.UTC)
		require.NoError(t, err)
		actuals = append(actuals, Actual{Date: d, Revenue: revenue})
	}

	result, err := cal.Calibrate(festivalHistory(), actuals, tableWithoutOverrides())
	require.NoError(t, err)

	// Each festival weekday's override must equal actual/baseline.
	expected := map[time.Weekday]float64{
		time.Thursday: 133167.80 / 53478.0, // ≈2.49
		time.Friday:   116299.54 / 54933.0, // ≈2.12
		time.Saturday: 134982.18 / 74934.0, // ≈1.80
		time.Sunday:   160052.28 / 71348.0, // ≈2.24
	}
	for weekday, want := range expected {
		got := domain.ResolveMultiplier(result.Table, domain.CategoryMegaFestival, weekday)
		assert.InDelta(t, want, got, 1e-9, "override for %s", weekday)
		assert.Equal(t, 1, result.Table.OverrideSampleCount(domain.CategoryMegaFestival, weekday))
	}

	// All four proposals recorded and applied.
	applied := 0
	for _, p := range result.Proposals {
		require.Equal(t, ProposalDayOverride, p.Kind)
		assert.Equal(t, 1, p.Samples)
		if p.Applied {
			applied++
		}
	}
	assert.Equal(t, 4, applied)
}

func TestCalibrate_DepartureDayDecay(t *testing.T) {
	cal := New(calendarLookup(festivalDays), 3, discardLogger())

	// Monday after the festival: baseline 50000, observed 138165.12.
	actuals := []Actual{{Date: date(2025, 8, 4), Revenue: 138165.12}}

	result, err := cal.Calibrate(festivalHistory(), actuals, domain.NewDefaultTable())
	require.NoError(t, err)

	const periodRevenue = 544501.80 // summed festival-day actuals
	decay := result.Table.DecayFor(domain.CategoryMegaFestival)[0]

	assert.GreaterOrEqual(t, decay, 0.0)
	assert.LessOrEqual(t, decay, 1.0)
	assert.InDelta(t, 138165.12, 50000+periodRevenue*decay, 1e-6,
		"calibrated decay must reproduce the observed departure-day revenue")
	assert.InDelta(t, 0.162, decay, 0.001)
}

func TestCalibrate_SmallSampleRevisionRejected(t *testing.T) {
	cal := New(calendarLookup(festivalDays), 3, discardLogger())

	// Existing Thursday override backed by four prior samples.
	table := tableWithoutOverrides()
	table.SetOverride(domain.CategoryMegaFestival, time.Thursday, 2.49, 4)

	actuals := []Actual{{Date: date(2025, 7, 31), Revenue: 90000}}

	result, err := cal.Calibrate(festivalHistory(), actuals, table)
	require.NoError(t, err)

	got, ok := result.Table.Override(domain.CategoryMegaFestival, time.Thursday)
	require.True(t, ok)
	assert.Equal(t, 2.49, got, "single-sample revision must not displace a 4-sample coefficient")

	require.Len(t, result.Proposals, 1)
	assert.False(t, result.Proposals[0].Applied)
	assert.Contains(t, result.Proposals[0].Reason, "rejected")
}

func TestCalibrate_MoreSamplesWin(t *testing.T) {
	cal := New(calendarLookup(festivalDays), 3, discardLogger())

	table := tableWithoutOverrides()
	table.SetOverride(domain.CategoryMegaFestival, time.Thursday, 1.50, 2)

	// Three Thursdays of festival data across consecutive years, all showing
	// roughly double baseline.
	calendar := map[string][]string{}
	history := festivalHistory()
	actuals := []Actual{}
	for _, d := range []time.Time{date(2025, 7, 31), date(2025, 7, 24), date(2025, 7, 17)} {
		calendar[domain.DateKey(d)] = []string{"Lollapalooza Day 1"}
		actuals = append(actuals, Actual{Date: d, Revenue: 2 * weekdayBaselines[time.Thursday]})
	}
	// July 24 became an event day; move its baseline contribution a week back.
	history[0] = domain.RevenueRecord{Date: date(2025, 7, 10), Revenue: weekdayBaselines[time.Thursday]}

	cal = New(calendarLookup(calendar), 3, discardLogger())
	result, err := cal.Calibrate(history, actuals, table)
	require.NoError(t, err)

	got, ok := result.Table.Override(domain.CategoryMegaFestival, time.Thursday)
	require.True(t, ok)
	assert.InDelta(t, 2.0, got, 1e-9, "three agreeing samples revise a 2-sample coefficient")
	assert.Equal(t, 3, result.Table.OverrideSampleCount(domain.CategoryMegaFestival, time.Thursday))
}

func TestCalibrate_IncompleteWindowSkipped(t *testing.T) {
	cal := New(calendarLookup(festivalDays), 3, discardLogger())

	// Drop one festival day from history so E cannot be computed.
	var history []domain.RevenueRecord
	for _, r := range festivalHistory() {
		if domain.DateKey(r.Date) == "2025-08-02" {
			continue
		}
		history = append(history, r)
	}

	actuals := []Actual{{Date: date(2025, 8, 4), Revenue: 138165.12}}
	result, err := cal.Calibrate(history, actuals, domain.NewDefaultTable())
	require.NoError(t, err)

	// No decay proposal: the prior coefficient is retained.
	assert.Empty(t, result.Proposals)
	assert.Equal(t, domain.DecayRow{0.398, 0.080, 0.040}, result.Table.DecayFor(domain.CategoryMegaFestival))
}

func TestCalibrate_InputTableUntouched(t *testing.T) {
	cal := New(calendarLookup(festivalDays), 3, discardLogger())
	table := tableWithoutOverrides()

	actuals := []Actual{{Date: date(2025, 7, 31), Revenue: 133167.80}}
	result, err := cal.Calibrate(festivalHistory(), actuals, table)
	require.NoError(t, err)

	_, ok := table.Override(domain.CategoryMegaFestival, time.Thursday)
	assert.False(t, ok, "calibration must produce a new snapshot, not mutate its input")
	assert.NotEqual(t, table.Version, result.Table.Version)
}
