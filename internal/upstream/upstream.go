// Package upstream fetches day-ahead spot-price and carbon-intensity
// records from the Energi Data Service feeds and parses them into the
// engine's time-series points: an HTTP GET against a dataset endpoint,
// parsing a {"records": [...]} JSON body, filtering to a single price
// area, and reversing the newest-first response so it comes out
// oldest-first. Requests are context-bounded and retried with a fixed
// backoff.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// priceArea is the only electricity price area the scheduling engine
// serves.
const priceArea = "DK1"

// priceRecord mirrors a single Elspotprices row.
type priceRecord struct {
	HourUTC      string  `json:"HourUTC"`
	PriceArea    string  `json:"PriceArea"`
	SpotPriceDKK float64 `json:"SpotPriceDKK"`
}

// emissionRecord mirrors a single CO2EmisProg row.
type emissionRecord struct {
	Minutes5UTC string  `json:"Minutes5UTC"`
	PriceArea   string  `json:"PriceArea"`
	CO2Emission float64 `json:"CO2Emission"`
}

type recordsEnvelope[T any] struct {
	Records []T `json:"records"`
}

// Fetcher retrieves price and emission records over HTTP with retry and
// backoff, per cfg.
type Fetcher struct {
	cfg    config.UpstreamConfig
	client *http.Client
	logger types.Logger
}

// New builds a Fetcher bound to the given upstream configuration.
func New(cfg config.UpstreamConfig, logger types.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// FetchPrices retrieves spot-price points from start (inclusive) through
// whatever the feed currently has published, oldest first.
func (f *Fetcher) FetchPrices(ctx context.Context, start time.Time) ([]types.PricePoint, error) {
	body, err := f.getWithRetry(ctx, f.cfg.PriceBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}

	var envelope recordsEnvelope[priceRecord]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed price response: %v", types.ErrUpstreamUnavailable, err)
	}

	points := make([]types.PricePoint, 0, len(envelope.Records))
	for _, rec := range envelope.Records {
		if rec.PriceArea != priceArea {
			continue
		}
		t, err := time.Parse(time.RFC3339, rec.HourUTC)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", rec.HourUTC)
			if err != nil {
				return nil, fmt.Errorf("%w: price record has invalid HourUTC %q: %v", types.ErrInvalidTimeSeries, rec.HourUTC, err)
			}
		}
		t = t.UTC()
		if t.Before(start) {
			continue
		}
		// EDS publishes SpotPriceDKK per MWh; the engine works in
		// price-per-kWh so every component integrates against kW.
		points = append(points, types.PricePoint{Time: t, Price: rec.SpotPriceDKK / 1000})
	}

	reverse(points)
	return points, nil
}

// FetchEmissions retrieves carbon-intensity points from start (inclusive)
// through whatever the feed currently has published, oldest first.
func (f *Fetcher) FetchEmissions(ctx context.Context, start time.Time) ([]types.EmissionPoint, error) {
	body, err := f.getWithRetry(ctx, f.cfg.EmissionBaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}

	var envelope recordsEnvelope[emissionRecord]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed emission response: %v", types.ErrUpstreamUnavailable, err)
	}

	points := make([]types.EmissionPoint, 0, len(envelope.Records))
	for _, rec := range envelope.Records {
		if rec.PriceArea != priceArea {
			continue
		}
		t, err := time.Parse(time.RFC3339, rec.Minutes5UTC)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", rec.Minutes5UTC)
			if err != nil {
				return nil, fmt.Errorf("%w: emission record has invalid Minutes5UTC %q: %v", types.ErrInvalidTimeSeries, rec.Minutes5UTC, err)
			}
		}
		t = t.UTC()
		if t.Before(start) {
			continue
		}
		points = append(points, types.EmissionPoint{Time: t, Intensity: rec.CO2Emission})
	}

	reverse(points)
	return points, nil
}

// getWithRetry issues a GET against url, retrying up to cfg.MaxRetries
// times with a fixed backoff between attempts, and bailing out early if
// ctx is done.
func (f *Fetcher) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.cfg.RetryBackoff):
			}
		}

		body, err := f.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if f.logger != nil {
			f.logger.Warn("upstream fetch attempt failed", "url", url, "attempt", attempt, "error", err)
		}
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
