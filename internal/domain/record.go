package domain

import (
	"context"
	"time"
)

// RawExportRecord represents the flat JSON structure produced by the
// booking-system collector. One record per calendar day.
type RawExportRecord struct {
	Date    string              `json:"date"` // YYYY-MM-DD
	Revenue float64             `json:"revenue"`
	Notes   string              `json:"notes,omitempty"` // free-text event notes column
	Weather *WeatherObservation `json:"weather,omitempty"`
}

// RawRecord represents an unprocessed message from the source topic.
type RawRecord struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// WeatherObservation is a single day's weather summary. Temperatures are in
// degrees Fahrenheit, precipitation in inches.
type WeatherObservation struct {
	TempHigh      float64 `json:"temp_high"`
	TempLow       float64 `json:"temp_low"`
	Condition     string  `json:"condition"` // free text, e.g. "partly cloudy"
	Precipitation float64 `json:"precipitation"`
}

// RevenueRecord is the domain representation of one observed day. Records are
// immutable once loaded; the forecasting core only reads them.
type RevenueRecord struct {
	Date    time.Time           `json:"date"`
	Revenue float64             `json:"revenue"`
	Notes   string              `json:"notes,omitempty"`
	Weather *WeatherObservation `json:"weather,omitempty"`
}

// Weekday returns the record's day of week.
func (r RevenueRecord) Weekday() time.Weekday {
	return r.Date.Weekday()
}

// HasEvent reports whether the export's notes column tagged this day with an
// event. Baseline averages exclude such days.
func (r RevenueRecord) HasEvent() bool {
	return trimmedNonEmpty(r.Notes)
}

// LocationShare is one named location's slice of a forecast's final revenue.
type LocationShare struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Revenue float64 `json:"revenue"`
}

// Forecast is the per-date output of the forecast engine. Output-only and
// recomputable; never mutated after creation.
type Forecast struct {
	Date              time.Time `json:"date"`
	DayOfWeek         string    `json:"day_of_week"`
	BaseRevenue       float64   `json:"base_revenue"`
	EventMultiplier   float64   `json:"event_multiplier"`
	WeatherMultiplier float64   `json:"weather_multiplier"`
	Spillover         float64   `json:"spillover_contribution"`
	FinalRevenue      float64   `json:"final_revenue"`
	Events            []string  `json:"events,omitempty"`

	// Locations holds the named-garage breakdown. Unattributed absorbs
	// rounding and any weight mass not assigned to a named location, so
	// named shares plus Unattributed always reconcile to FinalRevenue.
	Locations    []LocationShare `json:"locations,omitempty"`
	Unattributed float64         `json:"unattributed,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
