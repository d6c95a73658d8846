// Command genmock generates a deterministic year of daily revenue records
// plus a matching event calendar, for seeding local topics and test suites.
// It uses the actual forecasting domain package so fixture weather and event
// effects match real engine behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -end 2025-08-27 \
//	  -records-out data/mock/daily_revenue.json \
//	  -calendar-out data/mock/events.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
)

const historyDays = 365

// weekdayBase is the quiet-day revenue level per day of week.
var weekdayBase = map[time.Weekday]float64{
	time.Monday:    50000,
	time.Tuesday:   51000,
	time.Wednesday: 52000,
	time.Thursday:  53478,
	time.Friday:    54933,
	time.Saturday:  74934,
	time.Sunday:    71348,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	end := flag.String("end", "2025-08-27", "last generated day (YYYY-MM-DD)")
	recordsOut := flag.String("records-out", "", "output path for daily revenue JSON fixture")
	calendarOut := flag.String("calendar-out", "", "output path for event calendar JSON fixture")
	seed := flag.Int64("seed", 1, "PRNG seed")
	flag.Parse()

	if *recordsOut == "" || *calendarOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -records-out, -calendar-out")
	}

	endDate, err := time.ParseInLocation(domain.DateLayout, *end, time.UTC)
	if err != nil {
		return fmt.Errorf("parse -end: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	calendar := buildCalendar(endDate)

	records := make([]domain.RawExportRecord, 0, historyDays)
	table := domain.NewDefaultTable()
	for i := historyDays - 1; i >= 0; i-- {
		day := endDate.AddDate(0, 0, -i)
		records = append(records, generateDay(rng, table, calendar, day))
	}

	if err := writeJSON(*recordsOut, records); err != nil {
		return fmt.Errorf("writing revenue fixture: %w", err)
	}
	log.Printf("wrote %d revenue records: %s", len(records), *recordsOut)

	if err := writeJSON(*calendarOut, calendar); err != nil {
		return fmt.Errorf("writing calendar fixture: %w", err)
	}
	log.Printf("wrote %d event dates: %s", len(calendar), *calendarOut)

	printStats(records)
	return nil
}

// buildCalendar schedules one festival weekend, biweekly home games, and a
// monthly concert across the generated year.
func buildCalendar(end time.Time) map[string][]string {
	calendar := map[string][]string{}

	// Four-day flagship festival ending on the most recent August Sunday
	// at least three weeks back.
	festivalSunday := end.AddDate(0, 0, -21)
	for festivalSunday.Weekday() != time.Sunday {
		festivalSunday = festivalSunday.AddDate(0, 0, -1)
	}
	for i := 0; i < 4; i++ {
		day := festivalSunday.AddDate(0, 0, i-3)
		calendar[domain.DateKey(day)] = []string{fmt.Sprintf("Lollapalooza Day %d", i+1)}
	}

	// Biweekly Saturday home games and a monthly Friday concert.
	for d := end.AddDate(0, 0, -historyDays+1); !d.After(end); d = d.AddDate(0, 0, 1) {
		key := domain.DateKey(d)
		if _, taken := calendar[key]; taken {
			continue
		}
		_, week := d.ISOWeek()
		if d.Weekday() == time.Saturday && week%2 == 0 {
			calendar[key] = []string{"Bears home game"}
		}
		if d.Weekday() == time.Friday && d.Day() <= 7 {
			calendar[key] = []string{"Symphony concert series"}
		}
	}
	return calendar
}

// generateDay produces one record: weekday base, seasonal swing, event
// multiplier, weather penalty, and noise.
func generateDay(rng *rand.Rand, table *domain.CoefficientTable, calendar map[string][]string, day time.Time) domain.RawExportRecord {
	weather := generateWeather(rng, day)
	events := calendar[domain.DateKey(day)]

	revenue := weekdayBase[day.Weekday()]
	revenue *= 1 + 0.15*math.Sin(2*math.Pi*float64(day.YearDay())/365.0)
	revenue *= domain.EffectiveEventMultiplier(table, day.Weekday(), events)
	revenue *= domain.WeatherMultiplier(weather)
	revenue *= 1 + 0.05*rng.NormFloat64()
	if revenue < 0 {
		revenue = 0
	}

	var notes string
	if len(events) > 0 {
		notes = events[0]
	}

	return domain.RawExportRecord{
		Date:    domain.DateKey(day),
		Revenue: math.Round(revenue*100) / 100,
		Notes:   notes,
		Weather: weather,
	}
}

func generateWeather(rng *rand.Rand, day time.Time) *domain.WeatherObservation {
	// Sinusoidal Chicago-ish annual temperature cycle, coldest late January.
	mean := 55 + 30*math.Sin(2*math.Pi*float64(day.YearDay()-28)/365.0)
	high := mean + 5 + 8*rng.NormFloat64()

	obs := &domain.WeatherObservation{
		TempHigh:  math.Round(high),
		TempLow:   math.Round(high - 12 - 4*rng.Float64()),
		Condition: "partly cloudy",
	}
	switch {
	case rng.Float64() < 0.05:
		obs.Condition = "thunderstorm"
		obs.Precipitation = 0.5 + rng.Float64()
	case rng.Float64() < 0.25:
		obs.Condition = "rain"
		obs.Precipitation = 0.05 + 0.4*rng.Float64()
	}
	if obs.TempHigh < 34 && obs.Precipitation > 0 {
		obs.Condition = "snow"
	}
	obs.Precipitation = math.Round(obs.Precipitation*100) / 100
	return obs
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.RawExportRecord) {
	var total float64
	var eventDays int
	minRev, maxRev := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		total += r.Revenue
		if r.Notes != "" {
			eventDays++
		}
		minRev = math.Min(minRev, r.Revenue)
		maxRev = math.Max(maxRev, r.Revenue)
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Days: %d (%s .. %s)\n", len(records), records[0].Date, records[len(records)-1].Date)
	fmt.Printf("Event days: %d\n", eventDays)
	fmt.Printf("Revenue: min=%.2f max=%.2f mean=%.2f\n", minRev, maxRev, total/float64(len(records)))
}
