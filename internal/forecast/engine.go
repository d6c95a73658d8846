// Package forecast composes the baseline, event, weather, and spillover
// models into per-date revenue forecasts.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze GeneratedAt.
var clock = clockwork.NewRealClock()

// SetClock swaps the forecast time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// WeatherSource provides a forward-looking weather summary for a date. A nil
// observation means no forecast is available and the weather adjustment stays
// neutral.
type WeatherSource interface {
	Observation(ctx context.Context, date time.Time) (*domain.WeatherObservation, error)
}

// Config carries an Engine's collaborators. History and Table are snapshots:
// the engine never mutates them, and a new snapshot means a new engine.
type Config struct {
	History            []domain.RevenueRecord
	Table              *domain.CoefficientTable
	Events             domain.EventLookup
	Weather            WeatherSource // optional
	Locations          []Location    // optional named-garage breakdown
	BaselineWindowDays int
	Logger             *slog.Logger
}

// Engine produces revenue forecasts as
//
//	final = baseline × event × weather + spillover
//
// over an immutable history and coefficient snapshot.
type Engine struct {
	baseline  *domain.BaselineModel
	spill     *domain.SpilloverModel
	table     *domain.CoefficientTable
	events    domain.EventLookup
	weather   WeatherSource
	locations []Location
	byDate    map[string]domain.RevenueRecord
	logger    *slog.Logger
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Table == nil {
		return nil, fmt.Errorf("forecast: nil coefficient table")
	}
	if err := cfg.Table.Validate(); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("forecast: nil event lookup")
	}
	if err := validateLocations(cfg.Locations); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	byDate := make(map[string]domain.RevenueRecord, len(cfg.History))
	for _, r := range cfg.History {
		byDate[domain.DateKey(r.Date)] = r
	}

	return &Engine{
		baseline:  domain.NewBaselineModel(cfg.History, cfg.BaselineWindowDays, logger),
		spill:     domain.NewSpilloverModel(cfg.Table, cfg.Events),
		table:     cfg.Table,
		events:    cfg.Events,
		weather:   cfg.Weather,
		locations: cfg.Locations,
		byDate:    byDate,
		logger:    logger,
	}, nil
}

// Forecast produces the revenue forecast for one date. A weekday with no
// historical observations at all yields an error wrapping
// domain.ErrNoBaseline; every other degraded condition is absorbed into a
// neutral factor and logged.
func (e *Engine) Forecast(ctx context.Context, date time.Time) (domain.Forecast, error) {
	base, err := e.baseline.Baseline(date.Weekday())
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("forecast %s: %w", domain.DateKey(date), err)
	}

	events := e.events(date)
	eventMult := domain.EffectiveEventMultiplier(e.table, date.Weekday(), events)
	weatherMult := domain.WeatherMultiplier(e.observation(ctx, date))

	var spillover float64
	class := e.spill.Classify(date)
	if class.Class == domain.DepartureDay {
		periodRevenue, perr := e.windowRevenue(ctx, class.Window)
		if perr != nil {
			return domain.Forecast{}, perr
		}
		spillover = roundCents(e.spill.Contribution(class, periodRevenue))
	}

	final := roundCents(base*eventMult*weatherMult + spillover)
	locations, unattributed := splitRevenue(final, e.locations)

	return domain.Forecast{
		Date:              date,
		DayOfWeek:         date.Weekday().String(),
		BaseRevenue:       base,
		EventMultiplier:   eventMult,
		WeatherMultiplier: weatherMult,
		Spillover:         spillover,
		FinalRevenue:      final,
		Events:            events,
		Locations:         locations,
		Unattributed:      unattributed,
		GeneratedAt:       clock.Now().UTC(),
	}, nil
}

// ForecastRange produces forecasts for days consecutive dates starting at
// start. The first fatal condition aborts the whole range: a partial horizon
// would silently hide the missing days from downstream consumers.
func (e *Engine) ForecastRange(ctx context.Context, start time.Time, days int) ([]domain.Forecast, error) {
	if days <= 0 {
		return nil, fmt.Errorf("forecast: non-positive horizon %d", days)
	}
	out := make([]domain.Forecast, 0, days)
	for i := 0; i < days; i++ {
		f, err := e.Forecast(ctx, start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// observation fetches weather for a date, degrading to nil (a neutral
// adjustment) when no source is configured or the source fails.
func (e *Engine) observation(ctx context.Context, date time.Time) *domain.WeatherObservation {
	if rec, ok := e.byDate[domain.DateKey(date)]; ok && rec.Weather != nil {
		return rec.Weather
	}
	if e.weather == nil {
		return nil
	}
	obs, err := e.weather.Observation(ctx, date)
	if err != nil {
		e.logger.Warn("weather source unavailable, using neutral adjustment",
			"date", domain.DateKey(date), "error", err)
		return nil
	}
	return obs
}

// windowRevenue sums the event window's revenue, taking each day's observed
// actual when history has it and the day's own event-day forecast otherwise.
// Spillover for a future departure day is therefore driven by what the event
// days themselves are forecast to earn.
func (e *Engine) windowRevenue(ctx context.Context, window []time.Time) (float64, error) {
	var sum float64
	for _, d := range window {
		if rec, ok := e.byDate[domain.DateKey(d)]; ok {
			sum += rec.Revenue
			continue
		}
		base, err := e.baseline.Baseline(d.Weekday())
		if err != nil {
			return 0, fmt.Errorf("forecast event window %s: %w", domain.DateKey(d), err)
		}
		mult := domain.EffectiveEventMultiplier(e.table, d.Weekday(), e.events(d))
		sum += base * mult * domain.WeatherMultiplier(e.observation(ctx, d))
	}
	return sum, nil
}
