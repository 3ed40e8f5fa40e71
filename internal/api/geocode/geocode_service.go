package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

var nominatimAttr = metric.WithAttributes(attribute.String("provider", "nominatim"))

var _ Service = (*ServiceImpl)(nil)

// Service resolves free-text city names against Nominatim.
type Service interface {
	Resolve(ctx context.Context, city string) (*types.GeoPoint, error)
	SearchCities(ctx context.Context, query string, limit int) ([]types.GeoPoint, error)
	ReverseCountry(ctx context.Context, lat, lon float64) (string, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	client    *http.Client
	baseURL   string
	email     string
	userAgent string
}

// NewServiceImpl builds a resolver. email is the contact identifier attached
// to every outbound lookup per the Nominatim usage policy.
func NewServiceImpl(baseURL, email string, timeout time.Duration, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		email:     email,
		userAgent: fmt.Sprintf("go-travel-planner/1.0 (+https://example.com) %s", email),
	}
}

type nominatimResult struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func (s *ServiceImpl) Resolve(ctx context.Context, city string) (*types.GeoPoint, error) {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("city.query", city),
	))
	defer span.End()

	city = strings.Join(strings.Fields(city), " ")
	if city == "" {
		return nil, fmt.Errorf("%w: empty city name", types.ErrValidation)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("accept-language", "en")
	params.Set("addressdetails", "1")

	results, err := s.query(ctx, "/search", params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Nominatim lookup failed")
		return nil, fmt.Errorf("%w: geocoding %q: %v", types.ErrProviderUnavailable, city, err)
	}
	if len(results) == 0 {
		span.SetStatus(codes.Error, "No geocoding result")
		return nil, fmt.Errorf("%w: could not geocode city %q", types.ErrNotFound, city)
	}

	point, err := toGeoPoint(results[0])
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: malformed geocoding result for %q: %v", types.ErrProviderUnavailable, city, err)
	}
	span.SetStatus(codes.Ok, "City resolved")
	return point, nil
}

func (s *ServiceImpl) SearchCities(ctx context.Context, query string, limit int) ([]types.GeoPoint, error) {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "SearchCities")
	defer span.End()

	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []types.GeoPoint{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "0")
	params.Set("accept-language", "en")

	results, err := s.query(ctx, "/search", params)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: city search: %v", types.ErrProviderUnavailable, err)
	}

	points := make([]types.GeoPoint, 0, len(results))
	for _, r := range results {
		p, err := toGeoPoint(r)
		if err != nil || p.DisplayName == "" {
			continue
		}
		points = append(points, *p)
	}
	span.SetAttributes(attribute.Int("results.count", len(points)))
	return points, nil
}

// ReverseCountry returns the lowercase ISO country code for a coordinate, or
// an empty string when the lookup fails. Callers use it as a best-effort
// validation signal, never as a hard dependency.
func (s *ServiceImpl) ReverseCountry(ctx context.Context, lat, lon float64) (string, error) {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "ReverseCountry")
	defer span.End()

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("format", "json")
	params.Set("accept-language", "en")
	params.Set("addressdetails", "1")
	if s.email != "" {
		params.Set("email", s.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en")

	metrics.Get().ProviderCallsTotal.Add(ctx, 1, nominatimAttr)
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, nominatimAttr)
		span.RecordError(err)
		return "", fmt.Errorf("%w: reverse geocoding: %v", types.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, nominatimAttr)
		return "", fmt.Errorf("%w: reverse geocoding status %d", types.ErrProviderUnavailable, resp.StatusCode)
	}

	var result nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: reverse geocoding decode: %v", types.ErrProviderUnavailable, err)
	}
	return strings.ToLower(result.Address.CountryCode), nil
}

func (s *ServiceImpl) query(ctx context.Context, path string, params url.Values) ([]nominatimResult, error) {
	if s.email != "" {
		params.Set("email", s.email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en")

	metrics.Get().ProviderCallsTotal.Add(ctx, 1, nominatimAttr)
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, nominatimAttr)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, nominatimAttr)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return results, nil
}

func toGeoPoint(r nominatimResult) (*types.GeoPoint, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lat: %w", err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lon: %w", err)
	}
	return &types.GeoPoint{
		Lat:         lat,
		Lon:         lon,
		DisplayName: r.DisplayName,
		PlaceID:     r.PlaceID.String(),
		CountryCode: strings.ToLower(r.Address.CountryCode),
	}, nil
}
