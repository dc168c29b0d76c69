package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
	"github.com/irwan019/GrkApp/internal/metrics"
)

// TimeLayout is the hourly timestamp format of the air-quality API. Without a
// timezone parameter the API answers in GMT.
const TimeLayout = "2006-01-02T15:04"

const hourlyVariables = "carbon_dioxide,methane"

type OpenMeteoOptions struct {
	BaseURL      string
	Timeout      time.Duration
	PastDays     int
	ForecastDays int
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int
	// Probe is the point HealthCheck queries.
	Probe entities.Location
}

type OpenMeteoFetcher struct {
	client   *http.Client
	opts     OpenMeteoOptions
	limiter  *rate.Limiter
	recorder metrics.Recorder
	logger   logger.Logger
}

func NewOpenMeteoFetcher(opts OpenMeteoOptions, recorder metrics.Recorder, log logger.Logger) *OpenMeteoFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if recorder == nil {
		recorder = metrics.Nop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &OpenMeteoFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		opts:     opts,
		limiter:  limiter,
		recorder: recorder,
		logger:   logger.Component(log, "openmeteo_fetcher"),
	}
}

type airQualityResponse struct {
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Hourly    *hourlyBlock `json:"hourly"`
	Error     bool         `json:"error"`
	Reason    string       `json:"reason"`
}

type hourlyBlock struct {
	Time          []string   `json:"time"`
	CarbonDioxide []*float64 `json:"carbon_dioxide"`
	Methane       []*float64 `json:"methane"`
}

type fetchError struct {
	outcome string
	err     error
}

func (e *fetchError) Error() string { return e.outcome + ": " + e.err.Error() }

func (e *fetchError) Unwrap() error { return e.err }

// Fetch returns the hourly CO₂/CH₄ series for the point. Every failure is
// logged and reported as an empty series.
func (f *OpenMeteoFetcher) Fetch(ctx context.Context, latitude, longitude float64) entities.Series {
	point := fmt.Sprintf("%.4f,%.4f", latitude, longitude)
	started := time.Now()

	series, err := f.fetch(ctx, latitude, longitude)
	outcome := metrics.FetchOK
	if err != nil {
		var fe *fetchError
		if errors.As(err, &fe) {
			outcome = fe.outcome
		}
		f.logger.WithFields(map[string]interface{}{
			"point":   point,
			"outcome": outcome,
		}).Warnf("Air-quality fetch failed: %v", err)
		series = entities.Series{}
	}

	f.recorder.RecordFetch(point, outcome, time.Since(started), len(series))
	f.logger.Debugf("Fetched %d readings for %s", len(series), point)
	return series
}

func (f *OpenMeteoFetcher) fetch(ctx context.Context, latitude, longitude float64) (entities.Series, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &fetchError{metrics.FetchTransport, fmt.Errorf("rate limiter: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(latitude, longitude), nil)
	if err != nil {
		return nil, &fetchError{metrics.FetchTransport, fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &fetchError{metrics.FetchTransport, fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &fetchError{metrics.FetchStatus, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))}
	}

	var apiResp airQualityResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &fetchError{metrics.FetchDecode, fmt.Errorf("failed to decode response: %w", err)}
	}

	return convertHourly(&apiResp)
}

func (f *OpenMeteoFetcher) requestURL(latitude, longitude float64) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("hourly", hourlyVariables)
	q.Set("past_days", strconv.Itoa(f.opts.PastDays))
	q.Set("forecast_days", strconv.Itoa(f.opts.ForecastDays))
	return f.opts.BaseURL + "/air-quality?" + q.Encode()
}

// convertHourly zips the parallel arrays, truncating to the shortest one.
func convertHourly(resp *airQualityResponse) (entities.Series, error) {
	if resp.Error {
		return nil, &fetchError{metrics.FetchMalformed, fmt.Errorf("API error: %s", resp.Reason)}
	}
	h := resp.Hourly
	if h == nil {
		return nil, &fetchError{metrics.FetchMalformed, errors.New("response has no hourly block")}
	}
	if h.Time == nil || h.CarbonDioxide == nil || h.Methane == nil {
		return nil, &fetchError{metrics.FetchMalformed, errors.New("hourly block is missing time, carbon_dioxide or methane")}
	}

	n := min(len(h.Time), len(h.CarbonDioxide), len(h.Methane))
	series := make(entities.Series, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation(TimeLayout, h.Time[i], time.UTC)
		if err != nil {
			return nil, &fetchError{metrics.FetchMalformed, fmt.Errorf("bad timestamp at index %d: %w", i, err)}
		}
		series = append(series, entities.Reading{
			Timestamp: ts,
			CO2:       valueOrNaN(h.CarbonDioxide[i]),
			CH4:       valueOrNaN(h.Methane[i]),
		})
	}
	return series, nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// HealthCheck queries the probe point once and only looks at the status code.
func (f *OpenMeteoFetcher) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(f.opts.Probe.Latitude, f.opts.Probe.Longitude), nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("air-quality API health check failed with status: %d", resp.StatusCode)
	}

	f.logger.Debug("Air-quality API health check passed")
	return nil
}
