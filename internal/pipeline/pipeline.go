package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/calibrate"
	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/couchcryptid/parking-revenue-forecast/internal/forecast"
	"github.com/couchcryptid/parking-revenue-forecast/internal/observability"
)

// BatchExtractor reads a batch of raw records from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context) ([]domain.RawRecord, error)
}

// BatchPublisher writes forecasts to the destination.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, forecasts []domain.Forecast) error
}

// Calibrator folds observed actuals into a new coefficient snapshot.
type Calibrator interface {
	Calibrate(history []domain.RevenueRecord, actuals []calibrate.Actual, table *domain.CoefficientTable) (calibrate.Result, error)
}

// Config carries the pipeline's stages and collaborators.
type Config struct {
	Extractor  BatchExtractor
	Publisher  BatchPublisher
	Calibrator Calibrator
	Store      *HistoryStore
	Events     domain.EventLookup // optional calendar; history notes serve as fallback
	Weather    forecast.WeatherSource
	Locations  []forecast.Location
	Table      *domain.CoefficientTable

	SnapshotPath       string
	HorizonDays        int
	BaselineWindowDays int

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Pipeline orchestrates the ingest-calibrate-forecast-publish loop.
type Pipeline struct {
	extractor  BatchExtractor
	publisher  BatchPublisher
	calibrator Calibrator
	store      *HistoryStore
	calendar   domain.EventLookup
	weather    forecast.WeatherSource
	locations  []forecast.Location

	mu    sync.RWMutex
	table *domain.CoefficientTable

	snapshotPath       string
	horizonDays        int
	baselineWindowDays int

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline. A nil Table starts from the default coefficients.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Extractor == nil || cfg.Publisher == nil || cfg.Calibrator == nil {
		return nil, errors.New("pipeline: extractor, publisher, and calibrator are required")
	}
	if cfg.Store == nil {
		cfg.Store = NewHistoryStore()
	}
	if cfg.Table == nil {
		cfg.Table = domain.NewDefaultTable()
	}
	if err := cfg.Table.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 14
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetricsForTesting()
	}

	return &Pipeline{
		extractor:          cfg.Extractor,
		publisher:          cfg.Publisher,
		calibrator:         cfg.Calibrator,
		store:              cfg.Store,
		calendar:           cfg.Events,
		weather:            cfg.Weather,
		locations:          cfg.Locations,
		table:              cfg.Table,
		snapshotPath:       cfg.SnapshotPath,
		horizonDays:        cfg.HorizonDays,
		baselineWindowDays: cfg.BaselineWindowDays,
		logger:             cfg.Logger,
		metrics:            cfg.Metrics,
	}, nil
}

// Table returns the current coefficient snapshot.
func (p *Pipeline) Table() *domain.CoefficientTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table
}

func (p *Pipeline) setTable(t *domain.CoefficientTable) {
	p.mu.Lock()
	p.table = t
	p.mu.Unlock()
}

// EventLookup resolves a date's events from the configured calendar, falling
// back to the event notes on the stored history record.
func (p *Pipeline) EventLookup() domain.EventLookup {
	return func(date time.Time) []string {
		if p.calendar != nil {
			if names := p.calendar(date); len(names) > 0 {
				return names
			}
		}
		if rec, ok := p.store.Get(domain.DateKey(date)); ok && rec.HasEvent() {
			return []string{rec.Notes}
		}
		return nil
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// full cycle, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a forecast cycle yet")
	}
	return nil
}

// ForecastRange serves ad-hoc forecast queries over the current history and
// coefficient snapshot. It implements the HTTP adapter's ForecastProvider.
func (p *Pipeline) ForecastRange(ctx context.Context, start time.Time, days int) ([]domain.Forecast, error) {
	engine, err := p.engine()
	if err != nil {
		return nil, err
	}
	return engine.ForecastRange(ctx, start, days)
}

// Run executes the ingest-calibrate-forecast loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"horizon_days", p.horizonDays,
		"history_days", p.store.Len(),
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one ingest-calibrate-forecast-publish cycle. Returns
// false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RecordsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	actuals, ingested := p.ingest(ctx, rawBatch)
	if len(actuals) == 0 {
		return true
	}

	p.recalibrate(actuals)

	for _, raw := range ingested {
		p.commitOffset(ctx, raw)
	}

	if !p.forecastAndPublish(ctx, backoff, maxBackoff) {
		return false
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// ingest parses and stores each raw record, skipping malformed ones after
// committing their offsets. Returns the new actuals and the raws awaiting
// commit.
func (p *Pipeline) ingest(ctx context.Context, rawBatch []domain.RawRecord) ([]calibrate.Actual, []domain.RawRecord) {
	actuals := make([]calibrate.Actual, 0, len(rawBatch))
	ingested := make([]domain.RawRecord, 0, len(rawBatch))

	for _, raw := range rawBatch {
		rec, err := domain.ParseRawRecord(raw)
		if err != nil {
			p.logger.Warn("record rejected, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.RecordsSkipped.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		if replaced := p.store.Upsert(rec); replaced {
			p.logger.Debug("revised observation for day", "date", domain.DateKey(rec.Date))
		}
		actuals = append(actuals, calibrate.Actual{Date: rec.Date, Revenue: rec.Revenue})
		ingested = append(ingested, raw)
	}
	return actuals, ingested
}

// recalibrate folds the batch's actuals into a new coefficient snapshot. A
// failed calibration keeps the previous snapshot; ingestion is never rolled
// back over it.
func (p *Pipeline) recalibrate(actuals []calibrate.Actual) {
	start := time.Now()
	result, err := p.calibrator.Calibrate(p.store.List(), actuals, p.Table())
	p.metrics.CalibrationDuration.Observe(time.Since(start).Seconds())
	p.metrics.CalibrationRuns.Inc()
	if err != nil {
		p.logger.Error("calibration failed, keeping previous coefficients", "error", err)
		return
	}

	for _, proposal := range result.Proposals {
		outcome := "rejected"
		if proposal.Applied {
			outcome = "applied"
		}
		p.metrics.CalibrationProposals.WithLabelValues(string(proposal.Kind), outcome).Inc()
	}

	p.setTable(result.Table)

	if p.snapshotPath != "" {
		if err := domain.SaveSnapshot(result.Table, p.snapshotPath); err != nil {
			p.logger.Error("snapshot save failed", "path", p.snapshotPath, "error", err)
		} else {
			p.metrics.SnapshotSavedAt.SetToCurrentTime()
		}
	}
}

// forecastAndPublish regenerates the forecast horizon from the day after the
// latest observation and publishes it. Returns false if the pipeline should
// stop.
func (p *Pipeline) forecastAndPublish(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	latest, ok := p.store.Latest()
	if !ok {
		return true
	}

	engine, err := p.engine()
	if err != nil {
		p.logger.Error("forecast engine unavailable", "error", err)
		return true
	}

	forecasts, err := engine.ForecastRange(ctx, latest.Date.AddDate(0, 0, 1), p.horizonDays)
	if err != nil {
		// Missing-weekday history is a data-onboarding problem, not a
		// transient fault: log loudly and keep consuming.
		p.logger.Error("forecast failed", "error", err)
		return true
	}

	if err := p.publisher.PublishBatch(ctx, forecasts); err != nil {
		p.logger.Error("publish batch failed", "error", err, "batch_size", len(forecasts))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ForecastsPublished.Add(float64(len(forecasts)))
	p.ready.Store(true)
	return true
}

func (p *Pipeline) engine() (*forecast.Engine, error) {
	return forecast.NewEngine(forecast.Config{
		History:            p.store.List(),
		Table:              p.Table(),
		Events:             p.EventLookup(),
		Weather:            p.weather,
		Locations:          p.locations,
		BaselineWindowDays: p.baselineWindowDays,
		Logger:             p.logger,
	})
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the record offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawRecord) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
