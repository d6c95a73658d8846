package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/parking-revenue-forecast/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/parking-revenue-forecast/internal/adapter/kafka"
	"github.com/couchcryptid/parking-revenue-forecast/internal/adapter/openweather"
	"github.com/couchcryptid/parking-revenue-forecast/internal/calendar"
	"github.com/couchcryptid/parking-revenue-forecast/internal/calibrate"
	"github.com/couchcryptid/parking-revenue-forecast/internal/config"
	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/couchcryptid/parking-revenue-forecast/internal/forecast"
	"github.com/couchcryptid/parking-revenue-forecast/internal/observability"
	"github.com/couchcryptid/parking-revenue-forecast/internal/pipeline"
)

func main() {
	// Absent .env files are fine; the environment takes precedence anyway.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	table := loadTable(cfg, logger)
	events := loadCalendar(cfg, logger)

	// Weather enrichment is feature-flagged via OWM_ENABLED / OWM_API_KEY.
	var weather forecast.WeatherSource
	if cfg.OpenWeatherEnabled {
		client := openweather.NewClient(cfg.OpenWeatherKey, cfg.OpenWeatherLat, cfg.OpenWeatherLon, cfg.OpenWeatherTimeout, logger)
		weather = openweather.NewSource(client, cfg.OpenWeatherCacheSize, metrics)
		metrics.WeatherEnabled.Set(1)
		logger.Info("openweather enrichment enabled",
			"cache_size", cfg.OpenWeatherCacheSize, "timeout", cfg.OpenWeatherTimeout)
	} else {
		logger.Info("openweather enrichment disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	calibrator := calibrate.New(events, cfg.MinCalibrationSamples, logger)

	p, err := pipeline.New(pipeline.Config{
		Extractor:          reader,
		Publisher:          writer,
		Calibrator:         calibrator,
		Events:             events,
		Weather:            weather,
		Locations:          locations(cfg),
		Table:              table,
		SnapshotPath:       cfg.SnapshotPath,
		HorizonDays:        cfg.ForecastHorizonDays,
		BaselineWindowDays: cfg.BaselineWindowDays,
		Logger:             logger,
		Metrics:            metrics,
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadTable restores the coefficient snapshot, starting from the defaults on
// a fresh deployment.
func loadTable(cfg *config.Config, logger *slog.Logger) *domain.CoefficientTable {
	table, err := domain.LoadSnapshot(cfg.SnapshotPath)
	if err != nil {
		logger.Info("no usable coefficient snapshot, starting from defaults",
			"path", cfg.SnapshotPath, "reason", err)
		return domain.NewDefaultTable()
	}
	logger.Info("coefficient snapshot restored", "path", cfg.SnapshotPath, "version", table.Version)
	return table
}

// loadCalendar loads the curated event calendar when configured. Without one
// the pipeline still sees events through history notes.
func loadCalendar(cfg *config.Config, logger *slog.Logger) domain.EventLookup {
	if cfg.EventCalendarPath == "" {
		logger.Info("no event calendar configured, relying on record notes")
		return nil
	}
	cal, err := calendar.Load(cfg.EventCalendarPath)
	if err != nil {
		logger.Error("failed to load event calendar", "path", cfg.EventCalendarPath, "error", err)
		os.Exit(1)
	}
	logger.Info("event calendar loaded", "path", cfg.EventCalendarPath, "dates", cal.Len())
	return cal.Lookup()
}

// locations converts configured weights into an ordered breakdown, heaviest
// first. Unset means the stock garage weights.
func locations(cfg *config.Config) []forecast.Location {
	if len(cfg.LocationWeights) == 0 {
		return forecast.DefaultLocations()
	}
	out := make([]forecast.Location, 0, len(cfg.LocationWeights))
	for name, weight := range cfg.LocationWeights {
		out = append(out, forecast.Location{Name: name, Weight: weight})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}
