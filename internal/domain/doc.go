// Package domain models daily parking revenue and the coefficient tables used
// to forecast it.
//
// # Data Source
//
// Daily revenue records originate from the garage operator's booking-system
// export. The upstream collector publishes one flat JSON record per calendar
// day to the Kafka source topic: date, total revenue across all garages, the
// free-text event notes column from the export, and (when available) that
// day's weather observation.
//
// # Forecast Composition
//
// A date's forecast is composed from four independent parts:
//
//	final = baseline × event_multiplier × weather_multiplier + spillover
//
// Baseline is the average revenue for the date's day of week across recent
// non-event days (see [BaselineModel]). Event and weather multipliers are
// dimensionless demand factors. Spillover is an additive term covering revenue
// that leaks into the days after a multi-day festival as attendees depart.
//
// # Event Taxonomy
//
// Free-text event names are classified by an ordered keyword cascade, first
// match wins. Precedence (highest to lowest):
//
//	mega_festival > sports > festival > major_performance > performance > holiday > other
//
// The ordering is a contract: a name matching several rules always gets the
// highest-precedence category ("Lollapalooza Aftershow Concert" is
// mega_festival, not performance). The catch-all "other" rule always matches,
// so classification never fails.
//
// # Multipliers
//
// Each category carries a base multiplier. Categories with strong day-of-week
// structure (currently only mega_festival) additionally carry per-weekday
// override multipliers: the flagship festival's Thursday demand differs from
// its Saturday demand. Multiple events on one date combine by the dominant
// one: the date's effective multiplier is the maximum across its events,
// never the product.
//
// # Departure-Day Spillover
//
// Multi-day festival attendees who park for the whole event pay on the day
// they leave, so the days after the festival's last day carry revenue the
// multiplicative model cannot see. For an event window with summed revenue E,
// the day at offset k past the window's end receives E × decay[category][k]
// for k in 1..3; offsets beyond 3 contribute nothing. Decay coefficients live
// in [0, 1] and sum to at most 1 so the model never attributes more spillover
// than the window itself earned.
//
// # Coefficient Tables
//
// All multipliers and decay coefficients live in a [CoefficientTable], an
// immutable snapshot value. Calibration produces a new snapshot rather than
// mutating shared state, so forecasting may run concurrently with no locking.
// Snapshots are versioned and JSON-persistable; a save/load round trip
// preserves every float64 value exactly.
package domain
