package http

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
	"github.com/irwan019/GrkApp/internal/metrics"
)

func newTestFetcher(baseURL string, recorder metrics.Recorder) *OpenMeteoFetcher {
	return NewOpenMeteoFetcher(OpenMeteoOptions{
		BaseURL:      baseURL,
		Timeout:      2 * time.Second,
		PastDays:     7,
		ForecastDays: 2,
		Probe:        entities.DefaultLocations()[0],
	}, recorder, logger.Nop())
}

type outcomeRecorder struct {
	metrics.Recorder
	outcomes []string
}

func (r *outcomeRecorder) RecordFetch(_, outcome string, _ time.Duration, _ int) {
	r.outcomes = append(r.outcomes, outcome)
}

func serveJSON(t *testing.T, status int, body interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		switch b := body.(type) {
		case string:
			w.Write([]byte(b))
		default:
			json.NewEncoder(w).Encode(b)
		}
	}))
}

func TestOpenMeteoFetcher_Fetch(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		recorder := metrics.NewPrometheusRecorder()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/air-quality", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "-6.1862", q.Get("latitude"))
			assert.Equal(t, "106.8347", q.Get("longitude"))
			assert.Equal(t, "carbon_dioxide,methane", q.Get("hourly"))
			assert.Equal(t, "7", q.Get("past_days"))
			assert.Equal(t, "2", q.Get("forecast_days"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"latitude": -6.2,
				"longitude": 106.8,
				"hourly": {
					"time": ["2026-10-19T00:00", "2026-10-19T01:00", "2026-10-19T02:00"],
					"carbon_dioxide": [421.0, 423.5, 425.0],
					"methane": [1890.0, 1901.0, 1910.5]
				}
			}`))
		}))
		defer server.Close()

		series := newTestFetcher(server.URL, recorder).Fetch(context.Background(), -6.1862, 106.8347)

		require.Len(t, series, 3)
		count, err := testutil.GatherAndCount(recorder.Registry(), "grkapp_fetch_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), series[0].Timestamp)
		assert.Equal(t, time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC), series[2].Timestamp)
		assert.Equal(t, 423.5, series[1].CO2)
		assert.Equal(t, 1910.5, series[2].CH4)
	})

	t.Run("length is the shortest array", func(t *testing.T) {
		server := serveJSON(t, http.StatusOK, map[string]interface{}{
			"hourly": map[string]interface{}{
				"time":           []string{"2026-10-19T00:00", "2026-10-19T01:00", "2026-10-19T02:00", "2026-10-19T03:00"},
				"carbon_dioxide": []float64{420, 421},
				"methane":        []float64{1900, 1901, 1902},
			},
		})
		defer server.Close()

		series := newTestFetcher(server.URL, nil).Fetch(context.Background(), 0, 0)

		require.Len(t, series, 2)
		assert.Equal(t, 1, series[1].Timestamp.Hour())
		assert.Equal(t, 1901.0, series[1].CH4)
	})

	t.Run("null values become NaN", func(t *testing.T) {
		server := serveJSON(t, http.StatusOK, `{"hourly":{"time":["2026-10-19T00:00","2026-10-19T01:00"],"carbon_dioxide":[null,430],"methane":[1900,null]}}`)
		defer server.Close()

		series := newTestFetcher(server.URL, nil).Fetch(context.Background(), 0, 0)

		require.Len(t, series, 2)
		assert.True(t, math.IsNaN(series[0].CO2))
		assert.Equal(t, 1900.0, series[0].CH4)
		assert.True(t, math.IsNaN(series[1].CH4))
	})

	testCases := []struct {
		name    string
		status  int
		body    interface{}
		outcome string
	}{
		{"missing hourly", http.StatusOK, `{"latitude":-6.2,"longitude":106.8}`, metrics.FetchMalformed},
		{"missing methane", http.StatusOK, `{"hourly":{"time":["2026-10-19T00:00"],"carbon_dioxide":[420]}}`, metrics.FetchMalformed},
		{"bad timestamp", http.StatusOK, `{"hourly":{"time":["yesterday"],"carbon_dioxide":[420],"methane":[1900]}}`, metrics.FetchMalformed},
		{"api error body", http.StatusOK, `{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`, metrics.FetchMalformed},
		{"invalid json", http.StatusOK, "invalid json", metrics.FetchDecode},
		{"server error", http.StatusBadGateway, `{"error":true}`, metrics.FetchStatus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := serveJSON(t, tc.status, tc.body)
			defer server.Close()

			recorder := &outcomeRecorder{Recorder: metrics.Nop()}
			series := newTestFetcher(server.URL, recorder).Fetch(context.Background(), -6.1862, 106.8347)

			assert.NotNil(t, series)
			assert.Empty(t, series)
			assert.Equal(t, []string{tc.outcome}, recorder.outcomes)
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		server := serveJSON(t, http.StatusOK, "{}")
		url := server.URL
		server.Close()

		series := newTestFetcher(url, nil).Fetch(context.Background(), 0, 0)
		assert.Empty(t, series)
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := serveJSON(t, http.StatusOK, `{"hourly":{"time":[],"carbon_dioxide":[],"methane":[]}}`)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		series := newTestFetcher(server.URL, nil).Fetch(ctx, 0, 0)
		assert.Empty(t, series)
	})
}

func TestOpenMeteoFetcher_RateLimit(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"hourly":{"time":[],"carbon_dioxide":[],"methane":[]}}`)
	defer server.Close()

	f := NewOpenMeteoFetcher(OpenMeteoOptions{
		BaseURL:           server.URL,
		RequestsPerSecond: 0.001,
		Burst:             1,
	}, nil, logger.Nop())

	assert.Empty(t, f.Fetch(context.Background(), 0, 0))

	// The bucket is drained; the second call cannot get a token before the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	started := time.Now()
	assert.Empty(t, f.Fetch(ctx, 0, 0))
	assert.Less(t, time.Since(started), time.Second)
}

func TestOpenMeteoFetcher_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "-6.1862", r.URL.Query().Get("latitude"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		assert.NoError(t, newTestFetcher(server.URL, nil).HealthCheck(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		server := serveJSON(t, http.StatusServiceUnavailable, "{}")
		defer server.Close()

		err := newTestFetcher(server.URL, nil).HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status: 503")
	})
}
