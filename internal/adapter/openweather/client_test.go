package openweather

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testKey,
		lat:        41.8781,
		lon:        -87.6298,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// slotAt builds one 3-hour forecast slot.
func slotAt(ts time.Time, tempMax, tempMin float64, condition string, rainMM float64) slot {
	s := slot{Timestamp: ts.Unix()}
	s.Main.TempMax = tempMax
	s.Main.TempMin = tempMin
	s.Weather = []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	}{{Main: condition, Description: condition}}
	s.Rain.ThreeHours = rainMM
	return s
}

func TestClient_DailyForecast_Success(t *testing.T) {
	day := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		assert.Equal(t, "41.8781", r.URL.Query().Get("lat"))

		resp := response{List: []slot{
			slotAt(day.Add(9*time.Hour), 68, 60, "clear sky", 0),
			slotAt(day.Add(12*time.Hour), 75, 64, "light rain", 2.54),
			slotAt(day.Add(15*time.Hour), 78, 66, "light rain", 5.08),
			slotAt(day.Add(27*time.Hour), 81, 65, "clear sky", 0),
		}}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	days, err := c.DailyForecast(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 2)

	first := days["2025-08-28"]
	require.NotNil(t, first)
	assert.Equal(t, 78.0, first.TempHigh)
	assert.Equal(t, 60.0, first.TempLow)
	assert.InDelta(t, 7.62/25.4, first.Precipitation, 1e-9, "millimeters converted to inches")
	assert.Equal(t, "light rain", first.Condition, "most frequent condition wins")

	second := days["2025-08-29"]
	require.NotNil(t, second)
	assert.Equal(t, 81.0, second.TempHigh)
	assert.Equal(t, "clear sky", second.Condition)
}

func TestClient_DailyForecast_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyForecast(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_DailyForecast_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"list": not-json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).DailyForecast(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestSummarize_EmptyList(t *testing.T) {
	assert.Empty(t, summarize(nil))
}
