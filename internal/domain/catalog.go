package domain

import (
	"strings"
	"time"
)

// Category is an event's place in the fixed demand taxonomy.
type Category string

const (
	CategoryMegaFestival     Category = "mega_festival"
	CategorySports           Category = "sports"
	CategoryFestival         Category = "festival"
	CategoryMajorPerformance Category = "major_performance"
	CategoryPerformance      Category = "performance"
	CategoryHoliday          Category = "holiday"
	CategoryOther            Category = "other"
)

// SpilloverEligible reports whether the category participates in the
// departure-day spillover model. Only multi-day flagship festivals generate
// enough extended stays to matter.
func (c Category) SpilloverEligible() bool {
	return c == CategoryMegaFestival
}

// categoryRule maps a keyword set to a category. Rules are evaluated in
// order, first match wins, so the slice ordering encodes the taxonomy
// precedence. Keeping the cascade as data lets categories and keywords grow
// without touching control flow.
type categoryRule struct {
	category Category
	keywords []string
}

var categoryRules = []categoryRule{
	{CategoryMegaFestival, []string{"lollapalooza", "lolla"}},
	{CategorySports, []string{"bears", "bulls", "cubs", "sox", "blackhawks", "fire"}},
	{CategoryFestival, []string{"festival", "fest", "taste of chicago", "blues"}},
	{CategoryMajorPerformance, []string{"symphony", "orchestra", "opera", "broadway"}},
	{CategoryPerformance, []string{"concert", "music", "performance", "show", "theater", "series"}},
	{CategoryHoliday, []string{"holiday", "christmas", "thanksgiving", "memorial day", "labor day", "july 4", "independence day", "new year"}},
}

// Categorize classifies a free-text event name. Pure and deterministic:
// identical input always yields the same category, and a name matching
// several rules gets the highest-precedence one. Falls through to
// CategoryOther, so it never fails.
func Categorize(eventName string) Category {
	name := strings.ToLower(eventName)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// categoryPrecedence returns the rule index for ordering; lower is stronger.
func categoryPrecedence(c Category) int {
	for i, rule := range categoryRules {
		if rule.category == c {
			return i
		}
	}
	return len(categoryRules) // other
}

// DominantCategory classifies each event name and returns the
// highest-precedence category among them. Empty input yields CategoryOther.
func DominantCategory(eventNames []string) Category {
	best := CategoryOther
	for _, name := range eventNames {
		if c := Categorize(name); categoryPrecedence(c) < categoryPrecedence(best) {
			best = c
		}
	}
	return best
}

// ResolveMultiplier returns the multiplier for an event of the given category
// on the given day of week: the day-specific override when one is calibrated,
// otherwise the category's base multiplier.
func ResolveMultiplier(table *CoefficientTable, category Category, day time.Weekday) float64 {
	if m, ok := table.Override(category, day); ok {
		return m
	}
	return table.BaseMultiplier(category)
}

// EffectiveEventMultiplier resolves a date's multiplier across all of its
// events. Events combine by the dominant one, not by stacking: the result is
// the maximum single-event multiplier. No events means a neutral 1.0.
func EffectiveEventMultiplier(table *CoefficientTable, day time.Weekday, eventNames []string) float64 {
	if len(eventNames) == 0 {
		return 1.0
	}
	best := 0.0
	for _, name := range eventNames {
		if m := ResolveMultiplier(table, Categorize(name), day); m > best {
			best = m
		}
	}
	return best
}
