package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Forecasting knobs.
	ForecastHorizonDays   int
	BaselineWindowDays    int
	MinCalibrationSamples int
	SnapshotPath          string
	EventCalendarPath     string
	LocationWeights       map[string]float64

	// OpenWeather forecast configuration.
	OpenWeatherKey       string
	OpenWeatherEnabled   bool
	OpenWeatherTimeout   time.Duration
	OpenWeatherCacheSize int
	OpenWeatherLat       float64
	OpenWeatherLon       float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	owmTimeout, err := parseDuration("OWM_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBoundedInt("BATCH_SIZE", 50, 1, 1000)
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	horizon, err := parseBoundedInt("FORECAST_HORIZON_DAYS", 14, 1, 90)
	if err != nil {
		return nil, err
	}

	baselineWindow, err := parseBoundedInt("BASELINE_WINDOW_DAYS", 90, 7, 365)
	if err != nil {
		return nil, err
	}

	minSamples, err := parseBoundedInt("MIN_CALIBRATION_SAMPLES", 3, 1, 100)
	if err != nil {
		return nil, err
	}

	weights, err := parseLocationWeights(os.Getenv("LOCATION_WEIGHTS"))
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("OWM_LAT", 41.8781) // Grant Park
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("OWM_LON", -87.6298)
	if err != nil {
		return nil, err
	}

	owmKey := os.Getenv("OWM_API_KEY")
	owmEnabled := owmKey != ""
	if v := os.Getenv("OWM_ENABLED"); v != "" {
		owmEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "daily-revenue-actuals"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "revenue-forecasts"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "parking-revenue-forecast"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ForecastHorizonDays:   horizon,
		BaselineWindowDays:    baselineWindow,
		MinCalibrationSamples: minSamples,
		SnapshotPath:          envOrDefault("SNAPSHOT_PATH", "data/coefficients.json"),
		EventCalendarPath:     os.Getenv("EVENT_CALENDAR_PATH"),
		LocationWeights:       weights,

		OpenWeatherKey:       owmKey,
		OpenWeatherEnabled:   owmEnabled,
		OpenWeatherTimeout:   owmTimeout,
		OpenWeatherCacheSize: parseCacheSize(),
		OpenWeatherLat:       lat,
		OpenWeatherLon:       lon,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherKey == "" {
		return nil, errors.New("OWM_ENABLED is true but OWM_API_KEY is not set")
	}

	return cfg, nil
}

// parseLocationWeights parses "name:weight,name:weight" pairs. Empty input
// means no per-location breakdown.
func parseLocationWeights(s string) (map[string]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	weights := map[string]float64{}
	var total float64
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid LOCATION_WEIGHTS entry %q", pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || w <= 0 || w > 1 {
			return nil, fmt.Errorf("invalid LOCATION_WEIGHTS weight in %q", pair)
		}
		weights[strings.TrimSpace(name)] = w
		total += w
	}
	if total > 1 {
		return nil, fmt.Errorf("LOCATION_WEIGHTS sum to %g (>1)", total)
	}
	return weights, nil
}

func parseCacheSize() int {
	if s := os.Getenv("OWM_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
