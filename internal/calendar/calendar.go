// Package calendar loads the curated event calendar: a JSON object mapping
// YYYY-MM-DD dates to the event names scheduled that day.
package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
)

// Calendar holds scheduled events keyed by date.
type Calendar struct {
	entries map[string][]string
}

// Load reads a calendar file. Dates must parse and event names must be
// non-blank; a curation typo should fail loudly at startup, not silently
// drop an event.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event calendar: %w", err)
	}
	return Parse(data)
}

// Parse builds a Calendar from raw JSON.
func Parse(data []byte) (*Calendar, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse event calendar: %w", err)
	}

	entries := make(map[string][]string, len(raw))
	for key, names := range raw {
		if _, err := time.ParseInLocation(domain.DateLayout, key, time.UTC); err != nil {
			return nil, fmt.Errorf("event calendar date %q: %w", key, err)
		}
		var kept []string
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("event calendar date %q: blank event name", key)
			}
			kept = append(kept, strings.TrimSpace(name))
		}
		if len(kept) > 0 {
			entries[key] = kept
		}
	}
	return &Calendar{entries: entries}, nil
}

// Lookup returns the calendar as a domain.EventLookup.
func (c *Calendar) Lookup() domain.EventLookup {
	return func(date time.Time) []string {
		return c.entries[domain.DateKey(date)]
	}
}

// Len returns the number of dates with at least one event.
func (c *Calendar) Len() int {
	return len(c.entries)
}
