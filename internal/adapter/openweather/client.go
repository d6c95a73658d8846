package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
)

// millimetersPerInch converts the API's metric precipitation amounts.
const millimetersPerInch = 25.4

// Client fetches forward-looking weather from the OpenWeather 5-day forecast
// API and folds its 3-hour entries into daily summaries.
type Client struct {
	apiKey     string
	lat, lon   float64
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client pinned to one set of coordinates.
func NewClient(apiKey string, lat, lon float64, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		lat:    lat,
		lon:    lon,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		logger:  logger,
	}
}

// DailyForecast returns one observation per calendar day covered by the API's
// forecast horizon, keyed by YYYY-MM-DD.
func (c *Client) DailyForecast(ctx context.Context) (map[string]*domain.WeatherObservation, error) {
	params := url.Values{
		"lat":   {fmt.Sprintf("%.4f", c.lat)},
		"lon":   {fmt.Sprintf("%.4f", c.lon)},
		"appid": {c.apiKey},
		"units": {"imperial"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owmResp response
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return summarize(owmResp.List), nil
}

// summarize folds 3-hour forecast slots into per-day observations: the day's
// high and low across slots, total precipitation in inches, and the most
// frequent condition text.
func summarize(slots []slot) map[string]*domain.WeatherObservation {
	type acc struct {
		obs        *domain.WeatherObservation
		conditions map[string]int
		order      []string
	}
	days := map[string]*acc{}

	for _, s := range slots {
		key := time.Unix(s.Timestamp, 0).UTC().Format(domain.DateLayout)
		a, ok := days[key]
		if !ok {
			a = &acc{
				obs: &domain.WeatherObservation{
					TempHigh: s.Main.TempMax,
					TempLow:  s.Main.TempMin,
				},
				conditions: map[string]int{},
			}
			days[key] = a
		}
		if s.Main.TempMax > a.obs.TempHigh {
			a.obs.TempHigh = s.Main.TempMax
		}
		if s.Main.TempMin < a.obs.TempLow {
			a.obs.TempLow = s.Main.TempMin
		}
		a.obs.Precipitation += (s.Rain.ThreeHours + s.Snow.ThreeHours) / millimetersPerInch

		for _, w := range s.Weather {
			if a.conditions[w.Description] == 0 {
				a.order = append(a.order, w.Description)
			}
			a.conditions[w.Description]++
		}
	}

	out := make(map[string]*domain.WeatherObservation, len(days))
	for key, a := range days {
		best, bestCount := "", 0
		for _, cond := range a.order {
			if a.conditions[cond] > bestCount {
				best, bestCount = cond, a.conditions[cond]
			}
		}
		a.obs.Condition = best
		out[key] = a.obs
	}
	return out
}

// OpenWeather API response types.

type response struct {
	List []slot `json:"list"`
}

type slot struct {
	Timestamp int64 `json:"dt"`
	Main      struct {
		TempMax float64 `json:"temp_max"`
		TempMin float64 `json:"temp_min"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Rain volume `json:"rain"`
	Snow volume `json:"snow"`
}

type volume struct {
	ThreeHours float64 `json:"3h"` // millimeters
}
