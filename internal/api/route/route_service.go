package route

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*ServiceImpl)(nil)

var orsAttr = metric.WithAttributes(attribute.String("provider", "openrouteservice"))

// Service estimates ground-transport routes between two points. Estimates
// never fail: without a provider key or on provider error the straight-line
// fallback fills in, flagged Available=false.
type Service interface {
	Estimate(ctx context.Context, origin, dest types.GeoPoint, mode types.TransportMode) *types.RouteEstimate
	GroundTransportOptions(ctx context.Context, airport types.Airport, dest types.GeoPoint) *types.GroundTransport
}

type ServiceImpl struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *cache.Cache
}

// NewServiceImpl builds the estimator. Cached provider results expire after
// ttl; expired entries are swept opportunistically at twice the ttl.
func NewServiceImpl(baseURL, apiKey string, timeout, ttl time.Duration, logger *slog.Logger) *ServiceImpl {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ServiceImpl{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// profile maps a transport mode to an OpenRouteService routing profile. The
// heavy-goods profile is the closest approximation of bus routing.
func profile(mode types.TransportMode) string {
	if mode == types.ModeBus {
		return "driving-hgv"
	}
	return "driving-car"
}

func description(mode types.TransportMode) string {
	switch mode {
	case types.ModeBus:
		return "Bus service"
	case types.ModeSharedTaxi:
		return "Shared taxi/cab"
	default:
		return "Private taxi or car"
	}
}

// fallbackSpeedKmh is the assumed average speed used to synthesize a duration
// when no routing provider is available.
func fallbackSpeedKmh(mode types.TransportMode) float64 {
	if mode == types.ModeBus {
		return 50
	}
	return 60
}

// cacheKey hashes the profile plus coordinates rounded to ~100 m so
// near-identical queries for the same city pair collide intentionally.
func cacheKey(origin, dest types.GeoPoint, mode types.TransportMode) string {
	raw, _ := json.Marshal(map[string]any{
		"origin":  [2]float64{round3(origin.Lat), round3(origin.Lon)},
		"dest":    [2]float64{round3(dest.Lat), round3(dest.Lon)},
		"profile": profile(mode),
	})
	return fmt.Sprintf("%x", md5.Sum(raw))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func (s *ServiceImpl) Estimate(ctx context.Context, origin, dest types.GeoPoint, mode types.TransportMode) *types.RouteEstimate {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "Estimate", trace.WithAttributes(
		attribute.String("route.mode", string(mode)),
	))
	defer span.End()

	key := cacheKey(origin, dest, mode)
	if cached, found := s.cache.Get(key); found {
		if est, ok := cached.(types.RouteEstimate); ok {
			est.Mode = mode
			est.Description = description(mode)
			est.Cached = true
			metrics.Get().RouteCacheHitsTotal.Add(ctx, 1)
			span.AddEvent("Cache hit")
			span.SetStatus(codes.Ok, "Route served from cache")
			return &est
		}
	}

	if s.apiKey == "" {
		est := s.fallback(origin, dest, mode, "Route details unavailable (OpenRouteService API key not configured)")
		span.SetStatus(codes.Ok, "Fallback estimate, no provider key")
		return est
	}

	est, err := s.queryProvider(ctx, origin, dest, mode)
	if err != nil {
		s.logger.WarnContext(ctx, "Routing provider failed, using straight-line fallback",
			slog.String("mode", string(mode)), slog.Any("error", err))
		span.RecordError(err)
		return s.fallback(origin, dest, mode, fmt.Sprintf("Route API error: %s", truncate(err.Error(), 100)))
	}

	// Only authoritative results go in the cache; fallbacks are cheap to
	// recompute and should retry the provider next time.
	s.cache.Set(key, *est, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Route estimated")
	return est
}

// GroundTransportOptions estimates the airport-to-destination leg for all
// supported modes. Bus durations are stretched when the provider returns the
// same figure as the car profile; shared taxis run slightly slower than
// private ones due to stops.
func (s *ServiceImpl) GroundTransportOptions(ctx context.Context, airport types.Airport, dest types.GeoPoint) *types.GroundTransport {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "GroundTransportOptions", trace.WithAttributes(
		attribute.String("airport.name", airport.Name),
	))
	defer span.End()

	origin := types.GeoPoint{Lat: airport.Lat, Lon: airport.Lon}

	taxi := s.Estimate(ctx, origin, dest, types.ModeTaxi)

	bus := s.Estimate(ctx, origin, dest, types.ModeBus)
	if bus.DistanceKm > 0 && taxi.DistanceKm > 0 && bus.DurationMinutes == taxi.DurationMinutes {
		bus.DurationMinutes = int(float64(taxi.DurationMinutes) * 1.3)
	}

	shared := *taxi
	shared.Mode = types.ModeSharedTaxi
	shared.Description = description(types.ModeSharedTaxi)
	if shared.DurationMinutes > 0 {
		shared.DurationMinutes = int(float64(shared.DurationMinutes) * 1.15)
	}

	return &types.GroundTransport{
		AirportName: airport.Name,
		AirportIATA: airport.IATA,
		Taxi:        taxi,
		Bus:         bus,
		SharedTaxi:  &shared,
		Primary:     taxi,
	}
}

func (s *ServiceImpl) fallback(origin, dest types.GeoPoint, mode types.TransportMode, note string) *types.RouteEstimate {
	distKm := types.HaversineKm(origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	return &types.RouteEstimate{
		Mode:            mode,
		Description:     description(mode),
		DistanceKm:      math.Round(distKm*100) / 100,
		DurationMinutes: int(distKm / fallbackSpeedKmh(mode) * 60),
		Available:       false,
		Note:            note,
	}
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Steps    []struct {
					Instruction string  `json:"instruction"`
					Distance    float64 `json:"distance"`
					Duration    float64 `json:"duration"`
				} `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

func (s *ServiceImpl) queryProvider(ctx context.Context, origin, dest types.GeoPoint, mode types.TransportMode) (*types.RouteEstimate, error) {
	params := url.Values{}
	params.Set("start", fmt.Sprintf("%f,%f", origin.Lon, origin.Lat))
	params.Set("end", fmt.Sprintf("%f,%f", dest.Lon, dest.Lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/"+profile(mode)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/geo+json")
	req.Header.Set("Authorization", s.apiKey)

	metrics.Get().ProviderCallsTotal.Add(ctx, 1, orsAttr)
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, orsAttr)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, orsAttr)
		return nil, fmt.Errorf("openrouteservice status %d", resp.StatusCode)
	}

	var out orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}
	if len(out.Features) == 0 || len(out.Features[0].Properties.Segments) == 0 {
		return nil, fmt.Errorf("no route segments returned")
	}

	segment := out.Features[0].Properties.Segments[0]
	steps := make([]types.RouteStep, 0, len(segment.Steps))
	for i, step := range segment.Steps {
		if i >= 10 {
			break
		}
		steps = append(steps, types.RouteStep{
			Instruction:     step.Instruction,
			DistanceKm:      math.Round(step.Distance/10) / 100,
			DurationMinutes: int(step.Duration / 60),
		})
	}

	return &types.RouteEstimate{
		Mode:            mode,
		Description:     description(mode),
		DistanceKm:      math.Round(segment.Distance/10) / 100,
		DurationMinutes: int(segment.Duration / 60),
		Steps:           steps,
		Available:       true,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
