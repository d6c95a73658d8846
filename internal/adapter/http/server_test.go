package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/parking-revenue-forecast/internal/adapter/http"
	"github.com/couchcryptid/parking-revenue-forecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockProvider struct {
	err       error
	gotStart  time.Time
	gotDays   int
	forecasts []domain.Forecast
}

func (m *mockProvider) ForecastRange(_ context.Context, start time.Time, days int) ([]domain.Forecast, error) {
	m.gotStart = start
	m.gotDays = days
	if m.err != nil {
		return nil, m.err
	}
	return m.forecasts, nil
}

func newTestServer(readyErr error, provider httpadapter.ForecastProvider) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, provider, logger)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, &mockProvider{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, &mockProvider{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"), &mockProvider{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestForecastEndpoint(t *testing.T) {
	provider := &mockProvider{forecasts: []domain.Forecast{
		{Date: time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), DayOfWeek: "Friday", FinalRevenue: 54933},
	}}
	srv := newTestServer(nil, provider)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/forecast?start=2025-08-29&days=7", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), provider.gotStart)
	assert.Equal(t, 7, provider.gotDays)

	var body struct {
		Forecasts []domain.Forecast `json:"forecasts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Forecasts, 1)
	assert.Equal(t, "Friday", body.Forecasts[0].DayOfWeek)
}

func TestForecastEndpointDefaults(t *testing.T) {
	provider := &mockProvider{}
	srv := newTestServer(nil, provider)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/forecast", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, provider.gotDays)
}

func TestForecastEndpointRejectsBadParams(t *testing.T) {
	tests := []struct{ name, query string }{
		{"bad start", "/forecast?start=yesterday"},
		{"non-numeric days", "/forecast?days=soon"},
		{"zero days", "/forecast?days=0"},
		{"days too large", "/forecast?days=365"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil, &mockProvider{})
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestForecastEndpointSurfacesEngineError(t *testing.T) {
	srv := newTestServer(nil, &mockProvider{err: fmt.Errorf("no baseline observations")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/forecast", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &mockProvider{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
