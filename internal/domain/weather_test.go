package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeatherMultiplier_MissingObservation(t *testing.T) {
	assert.Equal(t, 1.0, WeatherMultiplier(nil), "missing observation must be exactly neutral")
}

func TestWeatherMultiplier_OptimalBand(t *testing.T) {
	obs := &WeatherObservation{TempHigh: 75, TempLow: 62, Condition: "clear", Precipitation: 0}
	assert.Equal(t, 1.0, WeatherMultiplier(obs))

	// Benign descriptors stay neutral.
	obs.Condition = "partly cloudy"
	assert.Equal(t, 1.0, WeatherMultiplier(obs))
}

func TestWeatherMultiplier_StepTables(t *testing.T) {
	tests := []struct {
		name     string
		obs      WeatherObservation
		expected float64
	}{
		{"extreme cold", WeatherObservation{TempHigh: 20, Condition: "clear"}, 0.75},
		{"cold", WeatherObservation{TempHigh: 45, Condition: "clear"}, 0.85},
		{"cool", WeatherObservation{TempHigh: 60, Condition: "clear"}, 0.95},
		{"band edge low", WeatherObservation{TempHigh: 70, Condition: "clear"}, 1.0},
		{"band edge high", WeatherObservation{TempHigh: 80, Condition: "clear"}, 1.0},
		{"warm", WeatherObservation{TempHigh: 88, Condition: "clear"}, 0.97},
		{"extreme heat", WeatherObservation{TempHigh: 98, Condition: "clear"}, 0.90},
		{"light precipitation", WeatherObservation{TempHigh: 75, Condition: "clear", Precipitation: 0.2}, 0.95},
		{"heavy precipitation", WeatherObservation{TempHigh: 75, Condition: "clear", Precipitation: 0.8}, 0.85},
		{"rain text only", WeatherObservation{TempHigh: 75, Condition: "light rain"}, 0.90},
		{"storm text", WeatherObservation{TempHigh: 75, Condition: "thunderstorm"}, 0.80},
		{"snow", WeatherObservation{TempHigh: 28, Condition: "snow"}, 0.75 * 0.90},
		{"storm with heavy precipitation", WeatherObservation{TempHigh: 75, Condition: "severe storms", Precipitation: 1.2}, 0.85 * 0.80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WeatherMultiplier(&tt.obs), 1e-9)
		})
	}
}

// Any observation more adverse than the optimal band must land in (0, 1.0],
// and cold must be penalized at least as hard as heat for the same distance
// from the band.
func TestWeatherMultiplier_Bounds(t *testing.T) {
	for temp := -10.0; temp <= 110; temp += 5 {
		for _, precip := range []float64{0, 0.2, 1.0} {
			for _, cond := range []string{"clear", "cloudy", "rain", "thunderstorm"} {
				m := WeatherMultiplier(&WeatherObservation{TempHigh: temp, Condition: cond, Precipitation: precip})
				assert.Greater(t, m, 0.0)
				assert.LessOrEqual(t, m, 1.0)
			}
		}
	}

	for _, dist := range []float64{5.0, 15.0, 25.0} {
		cold := temperatureFactor(tempOptimalLow - dist)
		warm := temperatureFactor(tempOptimalHigh + dist)
		assert.LessOrEqual(t, cold, warm, "cold penalty must be at least the warm penalty at distance %v", dist)
	}
}
