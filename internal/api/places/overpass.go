package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
)

var overpassAttr = metric.WithAttributes(attribute.String("provider", "overpass"))

// overpassClient queries the Overpass API with mirror failover. Public mirrors
// rate-limit aggressively, so every query cycles through the configured
// endpoints with a short backoff between attempts.
type overpassClient struct {
	logger    *slog.Logger
	client    *http.Client
	endpoints []string
	userAgent string
	retries   int
	backoff   time.Duration
}

func newOverpassClient(endpoints []string, userAgent string, timeout time.Duration, logger *slog.Logger) *overpassClient {
	if len(endpoints) == 0 {
		endpoints = []string{
			"https://overpass-api.de/api/interpreter",
			"https://overpass.kumi.systems/api/interpreter",
		}
	}
	return &overpassClient{
		logger:    logger,
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
		userAgent: userAgent,
		retries:   2,
		backoff:   600 * time.Millisecond,
	}
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// coordinates returns the element position, falling back to the way/relation
// center. ok is false when neither is present.
func (e overpassElement) coordinates() (lat, lon float64, ok bool) {
	if e.Lat != 0 || e.Lon != 0 {
		return e.Lat, e.Lon, true
	}
	if e.Center != nil && (e.Center.Lat != 0 || e.Center.Lon != 0) {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}

func (e overpassElement) placeID() string {
	return fmt.Sprintf("osm-%s-%d", e.Type, e.ID)
}

// name prefers the English name tag, then the international one.
func (e overpassElement) name() string {
	for _, key := range []string{"name:en", "int_name", "name"} {
		if v := strings.TrimSpace(e.Tags[key]); v != "" {
			return v
		}
	}
	return ""
}

func (c *overpassClient) query(ctx context.Context, ql string) (*overpassResponse, error) {
	var lastErr error
	for round := 0; round < c.retries; round++ {
		for _, endpoint := range c.endpoints {
			resp, err := c.post(ctx, endpoint, ql)
			if err == nil {
				return resp, nil
			}
			lastErr = err
			c.logger.DebugContext(ctx, "Overpass endpoint failed, trying next",
				slog.String("endpoint", endpoint), slog.Any("error", err))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return &overpassResponse{}, nil
}

func (c *overpassClient) post(ctx context.Context, endpoint, ql string) (*overpassResponse, error) {
	form := url.Values{}
	form.Set("data", ql)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	metrics.Get().ProviderCallsTotal.Add(ctx, 1, overpassAttr)
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, overpassAttr)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, overpassAttr)
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	var out overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}
	return &out, nil
}
