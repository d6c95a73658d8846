package domain

import "strings"

// Weather step tables. The optimal band is 70–80°F; penalties step down
// outside it, with cold penalized at least as hard as heat for the same
// distance from the band. Values follow the operation's backtested tables.
const (
	tempOptimalLow  = 70.0
	tempOptimalHigh = 80.0

	precipLightThreshold = 0.1 // inches
	precipHeavyThreshold = 0.5
)

var severeConditionTerms = []string{"storm", "thunder", "severe", "heavy rain", "blizzard", "hail"}

var poorConditionTerms = []string{"rain", "drizzle", "snow", "sleet", "overcast"}

// WeatherMultiplier maps a daily observation to a multiplicative demand
// factor: the product of independent temperature, precipitation, and
// condition-text sub-factors, each capped at 1.0. A missing observation is
// neutral: the forecast never blocks on weather.
func WeatherMultiplier(obs *WeatherObservation) float64 {
	if obs == nil {
		return 1.0
	}
	return temperatureFactor(obs.TempHigh) * precipitationFactor(obs.Precipitation) * conditionFactor(obs.Condition)
}

// temperatureFactor is a monotonic step function of the day's high.
func temperatureFactor(high float64) float64 {
	switch {
	case high >= tempOptimalLow && high <= tempOptimalHigh:
		return 1.0
	case high < 32:
		return 0.75
	case high < 50:
		return 0.85
	case high < tempOptimalLow:
		return 0.95
	case high > 95:
		return 0.90
	default: // 80–95
		return 0.97
	}
}

func precipitationFactor(inches float64) float64 {
	switch {
	case inches > precipHeavyThreshold:
		return 0.85
	case inches > precipLightThreshold:
		return 0.95
	default:
		return 1.0
	}
}

// conditionFactor scores the free-text condition independently of the numeric
// precipitation amount; both penalties may apply to the same day. Benign
// descriptors (clear, cloudy, ...) are neutral.
func conditionFactor(condition string) float64 {
	text := strings.ToLower(condition)
	for _, term := range severeConditionTerms {
		if strings.Contains(text, term) {
			return 0.80
		}
	}
	for _, term := range poorConditionTerms {
		if strings.Contains(text, term) {
			return 0.90
		}
	}
	return 1.0
}
