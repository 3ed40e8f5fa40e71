package places

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/FACorreiaa/go-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Service = (*ServiceImpl)(nil)

// Service discovers attractions, hotels and airports around a resolved city.
type Service interface {
	FindAttractions(ctx context.Context, point types.GeoPoint, radiusM, limit int) ([]types.Attraction, error)
	FindHotels(ctx context.Context, point types.GeoPoint, city string, limit int) (*types.HotelsSection, error)
	FindAirport(ctx context.Context, point types.GeoPoint) (*types.Airport, error)
}

type Options struct {
	OpenTripMapBaseURL  string
	OpenTripMapKey      string
	OverpassEndpoints   []string
	GooglePlacesBaseURL string
	GooglePlacesKey     string
	NominatimEmail      string
	Timeout             time.Duration
	Region              types.BoundingBox
	RegionCountryCode   string
}

type ServiceImpl struct {
	logger   *slog.Logger
	otm      *openTripMapClient
	overpass *overpassClient
	google   *googlePlacesClient
	geocoder geocode.Service
	region   types.BoundingBox
	regionCC string
}

func NewServiceImpl(opts Options, geocoder geocode.Service, logger *slog.Logger) *ServiceImpl {
	userAgent := fmt.Sprintf("go-travel-planner/1.0 (+https://example.com) %s", opts.NominatimEmail)
	return &ServiceImpl{
		logger:   logger,
		otm:      newOpenTripMapClient(opts.OpenTripMapBaseURL, opts.OpenTripMapKey, opts.Timeout),
		overpass: newOverpassClient(opts.OverpassEndpoints, userAgent, opts.Timeout, logger),
		google:   newGooglePlacesClient(opts.GooglePlacesBaseURL, opts.GooglePlacesKey, opts.Timeout),
		geocoder: geocoder,
		region:   opts.Region,
		regionCC: opts.RegionCountryCode,
	}
}

// FindAttractions queries OpenTripMap around the point and enriches each hit
// with description, opening hours and a best-time-to-visit guess. Detail
// lookups are best-effort; a failed lookup leaves the base record intact.
func (s *ServiceImpl) FindAttractions(ctx context.Context, point types.GeoPoint, radiusM, limit int) ([]types.Attraction, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "FindAttractions", trace.WithAttributes(
		attribute.Float64("latitude", point.Lat),
		attribute.Float64("longitude", point.Lon),
		attribute.Int("radius_m", radiusM),
	))
	defer span.End()

	if radiusM <= 0 {
		radiusM = 12000
	}
	if limit <= 0 || limit > 20 {
		limit = 20
	}

	features, err := s.otm.radiusSearch(ctx, point.Lat, point.Lon, radiusM, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "OpenTripMap search failed")
		return nil, fmt.Errorf("%w: attractions: %v", types.ErrProviderUnavailable, err)
	}

	attractions := make([]types.Attraction, 0, len(features))
	for _, f := range features {
		if f.Properties.Name == "" || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		a := types.Attraction{
			PlaceID: f.Properties.XID,
			Name:    f.Properties.Name,
			Lat:     f.Geometry.Coordinates[1],
			Lon:     f.Geometry.Coordinates[0],
		}
		if f.Properties.XID != "" {
			if detail, err := s.otm.detail(ctx, f.Properties.XID); err == nil {
				a.Description = firstNonEmpty(detail.WikipediaExtracts.Text, detail.Info.Descr)
				a.OpeningHours = firstNonEmpty(detail.OpeningHours, detail.Info.OpeningHours)
				a.BestTimeToVisit = bestTimeGuess(detail.WikipediaExtracts.Text)
				a.URL = firstNonEmpty(detail.URL, detail.OTM, detail.Wikipedia)
			}
		}
		attractions = append(attractions, a)
	}

	span.SetAttributes(attribute.Int("attractions.count", len(attractions)))
	span.SetStatus(codes.Ok, "Attractions discovered")
	return attractions, nil
}

// hotel search widens both the radius and the tag filter until enough
// candidates accumulate. The first step asks only for tourism=hotel; later
// steps accept hostels, guest houses, apartments and resorts.
var hotelRadiusStepsM = []int{5000, 10000, 15000, 25000}

func hotelQuery(radiusM int, lat, lon float64, loose bool) string {
	filter := `"tourism"="hotel"`
	if loose {
		filter = `"tourism"~"hotel|hostel|guest_house|apartment|resort"`
	}
	return fmt.Sprintf(`
[out:json][timeout:25];
(
  node[%[1]s](around:%[2]d,%[3]f,%[4]f);
  way[%[1]s](around:%[2]d,%[3]f,%[4]f);
);
out center;
`, filter, radiusM, lat, lon)
}

func (s *ServiceImpl) FindHotels(ctx context.Context, point types.GeoPoint, city string, limit int) (*types.HotelsSection, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "FindHotels", trace.WithAttributes(
		attribute.String("city.name", city),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if limit <= 0 {
		limit = 15
	}
	regional := s.isRegional(point, city)

	// Hotels must stay near the destination; slightly wider for the home
	// region where OSM address data is sparser.
	maxDistanceKm := 30.0
	if point.CountryCode == s.regionCC {
		maxDistanceKm = 35.0
	}

	seen := make(map[string]bool)
	var hotels []types.Hotel
	for i, radius := range hotelRadiusStepsM {
		data, err := s.overpass.query(ctx, hotelQuery(radius, point.Lat, point.Lon, i > 0))
		if err != nil {
			s.logger.WarnContext(ctx, "Overpass hotel query failed", slog.Int("radius_m", radius), slog.Any("error", err))
			continue
		}

		for _, el := range data.Elements {
			name := el.name()
			if name == "" || seen[name] {
				continue
			}
			lat, lon, ok := el.coordinates()
			if !ok {
				continue
			}
			if types.HaversineKm(point.Lat, point.Lon, lat, lon) > maxDistanceKm {
				continue
			}
			if point.CountryCode != "" && point.CountryCode != s.regionCC {
				// Outside the home region coordinates near borders need a
				// country check, not just a distance check.
				cc, err := s.geocoder.ReverseCountry(ctx, lat, lon)
				if err != nil || (cc != "" && cc != point.CountryCode) {
					continue
				}
			}

			hotel := types.Hotel{
				PlaceID:      el.placeID(),
				Name:         name,
				Address:      firstNonEmpty(el.Tags["addr:full"], el.Tags["addr:street"], el.Tags["addr:city"]),
				Lat:          lat,
				Lon:          lon,
				Phone:        firstNonEmpty(el.Tags["phone"], el.Tags["contact:phone"]),
				URL:          firstNonEmpty(el.Tags["website"], el.Tags["contact:website"]),
				Stars:        parseStars(el.Tags["stars"]),
				City:         cleanCityName(city),
				BookingLinks: hotelBookingLinks(name, city, lat, lon, regional),
			}
			if enriched := s.google.enrich(ctx, name, lat, lon); enriched != nil {
				hotel.Rating = enriched.Rating
				hotel.UserRatingsTotal = enriched.UserRatingsTotal
				hotel.PriceLevel = enriched.PriceLevel
				if enriched.Phone != "" {
					hotel.Phone = enriched.Phone
				}
				if enriched.URL != "" {
					hotel.URL = enriched.URL
				}
			}

			seen[name] = true
			hotels = append(hotels, hotel)
			if len(hotels) >= limit {
				break
			}
		}
		if len(hotels) >= limit {
			break
		}
	}

	section := &types.HotelsSection{
		Hotels:    hotels,
		Count:     len(hotels),
		CityLinks: cityBookingLinks(city, regional),
		Note:      "Hotel list is limited due to OpenStreetMap coverage. Use booking links to explore more hotels.",
	}
	span.SetAttributes(attribute.Int("hotels.count", len(hotels)))
	span.SetStatus(codes.Ok, "Hotels discovered")
	return section, nil
}

// isRegional reports whether the destination falls inside the configured
// bounding region or the city text carries the region country token.
func (s *ServiceImpl) isRegional(point types.GeoPoint, city string) bool {
	if s.region.Contains(point.Lat, point.Lon) {
		return true
	}
	if s.regionCC == "" {
		return false
	}
	cityLower := strings.ToLower(city)
	return strings.HasSuffix(cityLower, ", "+s.regionCC) || point.CountryCode == s.regionCC
}

// airport search radii, progressively widening.
var airportRadiusStepsM = []int{80000, 100000, 150000}

func airportQuery(radiusM int, lat, lon float64) string {
	return fmt.Sprintf(`
[out:json][timeout:25];
(
  node["aeroway"~"airport|aerodrome"](around:%[1]d,%[2]f,%[3]f);
  way["aeroway"~"airport|aerodrome"](around:%[1]d,%[2]f,%[3]f);
  relation["aeroway"~"airport|aerodrome"](around:%[1]d,%[2]f,%[3]f);
);
out center 20;
`, radiusM, lat, lon)
}

type airportCandidate struct {
	types.Airport
	commercial bool
	distKm     float64
}

// military and private strips are never useful arrival airports.
var airportSkipKeywords = []string{
	"military", "air force", "airforce", "air base", "airbase", "naval", "army",
	"rtaf", "afb", "usaf", "squadron", "wing",
}

func skipAirportName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range airportSkipKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FindAirport queries progressively widening radii and ranks candidates:
// commercial airport tag above generic aerodrome, then IATA presence, then
// proximity. Widening stops as soon as a commercial IATA-coded candidate is
// found. If no commercial airport exists the closest aerodrome wins; with no
// candidates at all the lookup fails.
func (s *ServiceImpl) FindAirport(ctx context.Context, point types.GeoPoint) (*types.Airport, error) {
	ctx, span := otel.Tracer("PlacesService").Start(ctx, "FindAirport", trace.WithAttributes(
		attribute.Float64("latitude", point.Lat),
		attribute.Float64("longitude", point.Lon),
	))
	defer span.End()

	var all []airportCandidate
	for _, radius := range airportRadiusStepsM {
		data, err := s.overpass.query(ctx, airportQuery(radius, point.Lat, point.Lon))
		if err != nil {
			s.logger.WarnContext(ctx, "Overpass airport query failed", slog.Int("radius_m", radius), slog.Any("error", err))
			continue
		}

		all = all[:0]
		for _, el := range data.Elements {
			name := el.name()
			if name == "" || skipAirportName(name) {
				continue
			}
			lat, lon, ok := el.coordinates()
			if !ok {
				continue
			}
			iata := strings.ToUpper(strings.Trim(el.Tags["iata"], `"' `))
			all = append(all, airportCandidate{
				Airport: types.Airport{
					PlaceID: el.placeID(),
					Name:    name,
					IATA:    iata,
					Lat:     lat,
					Lon:     lon,
				},
				commercial: el.Tags["aeroway"] == "airport",
				distKm:     types.HaversineKm(point.Lat, point.Lon, lat, lon),
			})
		}

		if best := selectAirport(all); best != nil && best.commercial && best.IATA != "" {
			span.SetAttributes(attribute.String("airport.name", best.Name), attribute.String("airport.iata", best.IATA))
			span.SetStatus(codes.Ok, "Airport selected")
			return &best.Airport, nil
		}
	}

	if best := selectAirport(all); best != nil {
		span.SetAttributes(attribute.String("airport.name", best.Name))
		span.SetStatus(codes.Ok, "Airport selected")
		return &best.Airport, nil
	}

	span.SetStatus(codes.Error, "No airport found")
	return nil, fmt.Errorf("%w: no airport near %.4f,%.4f", types.ErrNotFound, point.Lat, point.Lon)
}

// selectAirport ranks candidates by commercial tag, IATA presence and
// proximity. Equal candidates fall back to lexical order of the place ID so
// selection is deterministic regardless of provider ordering.
func selectAirport(candidates []airportCandidate) *airportCandidate {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]airportCandidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.commercial != b.commercial {
			return a.commercial
		}
		if (a.IATA != "") != (b.IATA != "") {
			return a.IATA != ""
		}
		if a.distKm != b.distKm {
			return a.distKm < b.distKm
		}
		return a.PlaceID < b.PlaceID
	})
	return &sorted[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
