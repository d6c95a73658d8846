package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for record dates.
const DateLayout = "2006-01-02"

// ParseRawRecord deserializes a RawRecord's value into a RevenueRecord.
// It expects the flat JSON produced by the booking-system collector.
func ParseRawRecord(raw RawRecord) (RevenueRecord, error) {
	var rec RawExportRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return RevenueRecord{}, fmt.Errorf("parse raw record: %w", err)
	}

	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(rec.Date), time.UTC)
	if err != nil {
		return RevenueRecord{}, fmt.Errorf("parse raw record date %q: %w", rec.Date, err)
	}
	if rec.Revenue < 0 {
		return RevenueRecord{}, fmt.Errorf("parse raw record %s: negative revenue %.2f", rec.Date, rec.Revenue)
	}

	return RevenueRecord{
		Date:    date,
		Revenue: rec.Revenue,
		Notes:   strings.TrimSpace(rec.Notes),
		Weather: rec.Weather,
	}, nil
}

// DateKey formats a date as its canonical YYYY-MM-DD key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func trimmedNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
