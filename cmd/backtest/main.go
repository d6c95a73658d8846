// Command backtest replays a revenue history file through calibration and
// forecasting: it trains on all but the final holdout days, re-forecasts the
// holdout, and reports per-day and aggregate error. A mean absolute
// percentage error above the threshold fails the run, so it can gate
// coefficient changes in CI.
//
// Usage:
//
//	go run ./cmd/backtest \
//	  -history data/mock/daily_revenue.json \
//	  -calendar data/mock/events.json \
//	  -holdout 14 -max-mape 0.15
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/calendar"
	"github.com/couchcryptid/parking-revenue-forecast/internal/calibrate"
	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/couchcryptid/parking-revenue-forecast/internal/forecast"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
}

func run() error {
	historyPath := flag.String("history", "", "JSON file of daily revenue records")
	calendarPath := flag.String("calendar", "", "optional event calendar JSON file")
	holdout := flag.Int("holdout", 14, "number of trailing days to forecast")
	maxMAPE := flag.Float64("max-mape", 0.15, "maximum acceptable mean absolute percentage error")
	minSamples := flag.Int("min-samples", 3, "minimum samples to revise a calibrated coefficient")
	flag.Parse()

	if *historyPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -history")
	}

	records, err := loadHistory(*historyPath)
	if err != nil {
		return err
	}
	if len(records) <= *holdout {
		return fmt.Errorf("history has %d days, need more than the %d-day holdout", len(records), *holdout)
	}

	events := buildLookup(*calendarPath, records)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	train := records[:len(records)-*holdout]
	test := records[len(records)-*holdout:]

	// Calibrate on the training span's own observations.
	actuals := make([]calibrate.Actual, 0, len(train))
	for _, r := range train {
		actuals = append(actuals, calibrate.Actual{Date: r.Date, Revenue: r.Revenue})
	}
	cal := calibrate.New(events, *minSamples, logger)
	result, err := cal.Calibrate(train, actuals, domain.NewDefaultTable())
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}

	engine, err := forecast.NewEngine(forecast.Config{
		History: train,
		Table:   result.Table,
		Events:  events,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	mape, err := report(engine, test)
	if err != nil {
		return err
	}

	applied := 0
	for _, p := range result.Proposals {
		if p.Applied {
			applied++
		}
	}
	fmt.Printf("\nTrain: %d days, holdout: %d days, proposals applied: %d/%d\n",
		len(train), len(test), applied, len(result.Proposals))
	fmt.Printf("MAPE: %.2f%% (threshold %.2f%%)\n", mape*100, *maxMAPE*100)

	if mape > *maxMAPE {
		return fmt.Errorf("MAPE %.2f%% exceeds threshold %.2f%%", mape*100, *maxMAPE*100)
	}
	fmt.Println("Backtest passed.")
	return nil
}

func loadHistory(path string) ([]domain.RevenueRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var raw []domain.RawExportRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}

	records := make([]domain.RevenueRecord, 0, len(raw))
	for _, r := range raw {
		value, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		rec, err := domain.ParseRawRecord(domain.RawRecord{Value: value})
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildLookup prefers the curated calendar and falls back to record notes.
func buildLookup(path string, records []domain.RevenueRecord) domain.EventLookup {
	byDate := make(map[string]string, len(records))
	for _, r := range records {
		if r.HasEvent() {
			byDate[domain.DateKey(r.Date)] = r.Notes
		}
	}

	var cal *calendar.Calendar
	if path != "" {
		loaded, err := calendar.Load(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "WARNING: event calendar unusable, using record notes:", err)
		} else {
			cal = loaded
		}
	}

	return func(date time.Time) []string {
		if cal != nil {
			if names := cal.Lookup()(date); len(names) > 0 {
				return names
			}
		}
		if notes, ok := byDate[domain.DateKey(date)]; ok {
			return []string{notes}
		}
		return nil
	}
}

// report forecasts each holdout day, prints the comparison table, and
// returns the mean absolute percentage error.
func report(engine *forecast.Engine, test []domain.RevenueRecord) (float64, error) {
	ctx := context.Background()

	fmt.Printf("%-12s %-10s %14s %14s %9s\n", "date", "weekday", "actual", "forecast", "error")
	var sumAPE float64
	var n int
	for _, rec := range test {
		f, err := engine.Forecast(ctx, rec.Date)
		if err != nil {
			return 0, fmt.Errorf("forecast %s: %w", domain.DateKey(rec.Date), err)
		}
		if rec.Revenue <= 0 {
			continue
		}
		ape := math.Abs(f.FinalRevenue-rec.Revenue) / rec.Revenue
		sumAPE += ape
		n++
		fmt.Printf("%-12s %-10s %14.2f %14.2f %8.2f%%\n",
			domain.DateKey(rec.Date), f.DayOfWeek, rec.Revenue, f.FinalRevenue, ape*100)
	}
	if n == 0 {
		return 0, fmt.Errorf("holdout has no days with positive revenue")
	}
	return sumAPE / float64(n), nil
}
