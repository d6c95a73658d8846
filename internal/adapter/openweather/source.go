package openweather

import (
	"context"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/couchcryptid/parking-revenue-forecast/internal/observability"
)

// Forecaster is the client-side surface Source depends on.
type Forecaster interface {
	DailyForecast(ctx context.Context) (map[string]*domain.WeatherObservation, error)
}

// Source serves per-date observations from a Forecaster behind an LRU cache.
// It implements forecast.WeatherSource. One upstream call covers the API's
// whole horizon, so a cache miss warms every day at once.
type Source struct {
	inner   Forecaster
	cache   *lruCache
	metrics *observability.Metrics
}

// NewSource creates a cache decorator around a weather client.
func NewSource(inner Forecaster, maxEntries int, metrics *observability.Metrics) *Source {
	return &Source{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Observation returns the daily summary for a date, or nil when the date lies
// outside the upstream forecast horizon.
func (s *Source) Observation(ctx context.Context, date time.Time) (*domain.WeatherObservation, error) {
	key := domain.DateKey(date)
	if obs, ok := s.cache.get(key); ok {
		s.countCache("hit")
		return obs, nil
	}
	s.countCache("miss")

	start := time.Now()
	days, err := s.inner.DailyForecast(ctx)
	if s.metrics != nil {
		s.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.countRequest("error")
		return nil, err
	}

	// Only observed days are cached so a date beyond the horizon can be
	// retried once the horizon reaches it.
	for day, obs := range days {
		s.cache.put(day, obs)
	}

	obs, ok := days[key]
	if !ok {
		s.countRequest("empty")
		return nil, nil
	}
	s.countRequest("success")
	return obs, nil
}

func (s *Source) countCache(result string) {
	if s.metrics != nil {
		s.metrics.WeatherCache.WithLabelValues(result).Inc()
	}
}

func (s *Source) countRequest(outcome string) {
	if s.metrics != nil {
		s.metrics.WeatherRequests.WithLabelValues(outcome).Inc()
	}
}
