// Package remote queries the backing store for community points of interest.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/peak"
)

// ErrTransport wraps every failure to obtain a complete result set.
var ErrTransport = errors.New("remote transport failed")

// ErrNotConfigured is returned when no endpoint is set.
var ErrNotConfigured = fmt.Errorf("%w: endpoint not configured", ErrTransport)

// Source returns all remote points of interest, most popular first.
type Source interface {
	Fetch(ctx context.Context) ([]model.PointOfInterest, error)
}

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Zero values pick defaults.
type Options struct {
	Endpoint   string // project base URL, e.g. https://xyz.supabase.co
	APIKey     string
	Timeout    time.Duration
	Attempts   uint
	RetryDelay time.Duration
	HTTPClient HTTPClient
}

// Client reads the hotspots table through a PostgREST endpoint.
type Client struct {
	endpoint string
	apiKey   string
	attempts uint
	delay    time.Duration
	http     HTTPClient
	limiter  *rate.Limiter
}

// row mirrors the hotspots table. Nullable columns are pointers.
type row struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Category    *string  `json:"category"`
	PeakHours   []string `json:"peak_hours"`
	IsSafeZone  *bool    `json:"is_safe_zone"`
	IsPreset    *bool    `json:"is_preset"`
	Verified    *bool    `json:"verified"`
	Upvotes     *int     `json:"upvotes"`
	Tips        *string  `json:"tips"`
	Area        *string  `json:"area"`
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		apiKey:   opts.APIKey,
		attempts: opts.Attempts,
		delay:    opts.RetryDelay,
		http:     opts.HTTPClient,
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Fetch returns every valid remote record tagged remote, ordered by upvotes.
// Rows with an unknown category or out-of-range coordinates are dropped and
// logged. Any failure returns no records at all.
func (c *Client) Fetch(ctx context.Context) ([]model.PointOfInterest, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", ErrTransport, err)
	}

	var rows []row
	err := retry.Do(
		func() error {
			var fetchErr error
			rows, fetchErr = c.fetch(ctx)
			return fetchErr
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			logging.Debug("retrying remote fetch", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	points := make([]model.PointOfInterest, 0, len(rows))
	for _, r := range rows {
		p, err := r.toPoint()
		if err != nil {
			logging.Warn("dropping remote hotspot", "id", r.ID, "error", err)
			continue
		}
		points = append(points, p)
	}
	logging.Debug("remote fetch complete", "rows", len(rows), "kept", len(points))
	return points, nil
}

func (c *Client) fetch(ctx context.Context) ([]row, error) {
	u := c.endpoint + "/rest/v1/hotspots?select=*&order=upvotes.desc"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, err
		}
		return nil, retry.Unrecoverable(err)
	}

	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	return rows, nil
}

func (r row) toPoint() (model.PointOfInterest, error) {
	cat := model.CategoryGeneral
	if r.Category != nil && *r.Category != "" {
		parsed, err := model.ParseCategory(*r.Category)
		if err != nil {
			return model.PointOfInterest{}, err
		}
		cat = parsed
	}
	if err := peak.Validate(r.PeakHours); err != nil {
		// Kept: malformed windows never match, so the record still ranks.
		logging.Warn("remote hotspot has malformed peak hours", "id", r.ID, "error", err)
	}

	p := model.PointOfInterest{
		ID:          r.ID,
		Name:        r.Name,
		Description: deref(r.Description),
		Lat:         r.Latitude,
		Lon:         r.Longitude,
		Category:    cat,
		PeakHours:   r.PeakHours,
		IsSafeZone:  r.IsSafeZone == nil || *r.IsSafeZone,
		Verified:    r.Verified != nil && *r.Verified,
		Tips:        deref(r.Tips),
		Area:        deref(r.Area),
		Provenance:  model.ProvenanceRemote,
		Origin:      model.ProvenanceRemote,
	}
	if r.Upvotes != nil {
		p.Upvotes = *r.Upvotes
	}
	if r.IsPreset != nil && *r.IsPreset {
		p.Origin = model.ProvenancePreset
	}
	if err := p.Validate(); err != nil {
		return model.PointOfInterest{}, err
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
