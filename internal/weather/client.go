package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"golang.org/x/time/rate"

	"github.com/abelbrown/hotspot/internal/geo"
	"github.com/abelbrown/hotspot/internal/logging"
)

// DefaultEndpoint is the Open-Meteo forecast API.
const DefaultEndpoint = "https://api.open-meteo.com/v1/forecast"

// ErrInvalidCoordinate is returned for latitude/longitude outside WGS84 bounds.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Lookup returns the current weather at a coordinate.
type Lookup interface {
	Current(ctx context.Context, p geo.Point) (*Observation, error)
}

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Zero values pick defaults.
type Options struct {
	Endpoint   string
	Timezone   string
	CacheTTL   time.Duration
	Attempts   uint
	HTTPClient HTTPClient
}

// Client fetches observations from Open-Meteo and caches them per rounded coordinate.
type Client struct {
	endpoint string
	timezone string
	attempts uint
	http     HTTPClient
	limiter  *rate.Limiter
	cache    *otter.Cache[string, Observation]
}

type openMeteoResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		WeatherCode   int     `json:"weather_code"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		Precipitation float64 `json:"precipitation"`
	} `json:"current"`
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timezone == "" {
		opts.Timezone = "Asia/Jakarta"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		endpoint: opts.Endpoint,
		timezone: opts.Timezone,
		attempts: opts.Attempts,
		http:     opts.HTTPClient,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		cache: otter.Must(&otter.Options[string, Observation]{
			MaximumSize:      1_000,
			ExpiryCalculator: otter.ExpiryWriting[string, Observation](opts.CacheTTL),
		}),
	}
}

// cacheKey rounds to ~1 km so nearby lookups share an entry.
func cacheKey(p geo.Point) string {
	return fmt.Sprintf("%.2f,%.2f", p.Lat, p.Lon)
}

// Current returns the observation at p, from cache when fresh.
func (c *Client) Current(ctx context.Context, p geo.Point) (*Observation, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, p.Lat, p.Lon)
	}

	key := cacheKey(p)
	if obs, ok := c.cache.GetIfPresent(key); ok {
		return &obs, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("weather: rate limit: %w", err)
	}

	var obs Observation
	err := retry.Do(
		func() error {
			var fetchErr error
			obs, fetchErr = c.fetch(ctx, p)
			return fetchErr
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			logging.Debug("retrying weather lookup", "attempt", n+1, "key", key, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("weather: lookup failed: %w", err)
	}

	c.cache.Set(key, obs)
	return &obs, nil
}

func (c *Client) fetch(ctx context.Context, p geo.Point) (Observation, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(p.Lon, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code,wind_speed_10m,precipitation")
	q.Set("timezone", c.timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return Observation{}, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Observation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return Observation{}, err
		}
		return Observation{}, retry.Unrecoverable(err)
	}

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Observation{}, retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}

	cond, desc, good := FromWMOCode(data.Current.WeatherCode)
	return Observation{
		Temperature:      data.Current.Temperature,
		Condition:        cond,
		Description:      desc,
		IsGoodForDriving: good,
		WindSpeed:        data.Current.WindSpeed,
		Precipitation:    data.Current.Precipitation,
		Code:             data.Current.WeatherCode,
	}, nil
}
