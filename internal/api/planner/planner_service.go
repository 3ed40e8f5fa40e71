package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/api/cost"
	"github.com/FACorreiaa/go-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-travel-planner/internal/api/places"
	"github.com/FACorreiaa/go-travel-planner/internal/api/route"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the whole planning pipeline and manages saved itineraries.
type Service interface {
	PlanTrip(ctx context.Context, req types.PlanTripRequest, userID *uuid.UUID) (*types.ItineraryDocument, error)
	GetItinerary(ctx context.Context, id uuid.UUID) (*types.ItineraryDocument, error)
	ListUserItineraries(ctx context.Context, userID uuid.UUID) ([]types.ItineraryDocument, error)
	DeleteItinerary(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
}

// Options are the planning knobs sourced from configuration.
type Options struct {
	DefaultCurrency        string
	TrainMaxDistanceKm     float64
	GroundRouteThresholdKm float64
	MaxAttractions         int
	MaxHotels              int
}

type ServiceImpl struct {
	logger   *slog.Logger
	geocoder geocode.Service
	places   places.Service
	routes   route.Service
	costs    cost.Service
	composer itinerary.Service
	repo     Repository
	opts     Options
}

func NewServiceImpl(geocoder geocode.Service, placesSvc places.Service, routes route.Service,
	costs cost.Service, composer itinerary.Service, repo Repository, opts Options, logger *slog.Logger) *ServiceImpl {
	if opts.TrainMaxDistanceKm <= 0 {
		opts.TrainMaxDistanceKm = 1200
	}
	if opts.GroundRouteThresholdKm <= 0 {
		opts.GroundRouteThresholdKm = 10
	}
	return &ServiceImpl{
		logger:   logger,
		geocoder: geocoder,
		places:   placesSvc,
		routes:   routes,
		costs:    costs,
		composer: composer,
		repo:     repo,
		opts:     opts,
	}
}

// PlanTrip resolves the cities, discovers places, estimates transport and
// costs, composes the day-by-day plan and persists the result. Only two
// failures abort the run: an invalid request and an unresolvable destination.
// Everything else degrades into notes on the returned document.
func (s *ServiceImpl) PlanTrip(ctx context.Context, req types.PlanTripRequest, userID *uuid.UUID) (*types.ItineraryDocument, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "PlanTrip", trace.WithAttributes(
		attribute.String("trip.origin", req.OriginCity),
		attribute.String("trip.destination", req.DestinationCity),
		attribute.Int("trip.days", req.NumDays),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().PlanDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()
	metrics.Get().PlanRequestsTotal.Add(ctx, 1)

	if err := req.Validate(s.opts.DefaultCurrency); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request")
		return nil, err
	}
	currency := req.BudgetCurrency

	l := s.logger.With(slog.String("origin", req.OriginCity), slog.String("destination", req.DestinationCity))
	var notes []string

	dest, err := s.geocoder.Resolve(ctx, req.DestinationCity)
	if err != nil {
		l.ErrorContext(ctx, "Destination could not be resolved", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination geocoding failed")
		return nil, fmt.Errorf("resolving destination: %w", err)
	}

	origin, err := s.geocoder.Resolve(ctx, req.OriginCity)
	if err != nil {
		l.WarnContext(ctx, "Origin could not be resolved, skipping transport legs", slog.Any("error", err))
		notes = append(notes, fmt.Sprintf("Could not locate origin city %q; flight and train estimates are unavailable.", req.OriginCity))
		origin = nil
	}

	attractions, hotelsSection, destAirport, originAirport, discoveryNotes := s.discover(ctx, l, *dest, origin, req)
	notes = append(notes, discoveryNotes...)

	// Ground-transport legs only matter when the airport sits well outside
	// the city; a short hop is left out of the itinerary entirely.
	var ground *types.GroundTransport
	if destAirport != nil {
		airportDistKm := types.HaversineKm(destAirport.Lat, destAirport.Lon, dest.Lat, dest.Lon)
		if airportDistKm > s.opts.GroundRouteThresholdKm {
			ground = s.routes.GroundTransportOptions(ctx, *destAirport, types.GeoPoint{Lat: dest.Lat, Lon: dest.Lon})
		}
	}

	var train *types.TrainEstimate
	if origin != nil && origin.CountryCode != "" && origin.CountryCode == dest.CountryCode {
		if types.HaversineKm(origin.Lat, origin.Lon, dest.Lat, dest.Lon) <= s.opts.TrainMaxDistanceKm {
			train = s.costs.EstimateTrain(*origin, *dest, currency)
		}
	}

	flights := s.costs.EstimateFlights(originAirport, destAirport, req.OriginCity, req.DestinationCity, currency)
	hotelEst := s.costs.EstimateHotels(hotelsSection.Hotels, currency)
	other := s.costs.EstimateOtherCosts(s.costs.DeriveCityPriceLevel(hotelsSection.Hotels), currency)
	totals := s.costs.Totals(req, flights, hotelEst, other, train, len(attractions), currency)

	comp := s.composer.Compose(ctx, itinerary.ComposeInput{
		Request:     req,
		Attractions: attractions,
		Hotels:      hotelsSection,
		Ground:      ground,
		Train:       train,
	})
	if comp.UsedFallback {
		notes = append(notes, "Day-by-day text was generated from a basic template; AI-assisted planning was unavailable.")
	}

	doc := &types.ItineraryDocument{
		ID:              uuid.New(),
		UserID:          userID,
		OriginCity:      req.OriginCity,
		DestinationCity: req.DestinationCity,
		Summary:         comp.Summary,
		Flights:         flights,
		Train:           train,
		Hotels:          comp.Hotels,
		Attractions:     attractions,
		DailyPlan:       comp.DailyPlan,
		RouteInfo:       ground,
		EstimatedTotals: totals,
		Notes:           notes,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.SaveItinerary(ctx, doc); err != nil {
		l.ErrorContext(ctx, "Failed to persist itinerary", slog.String("itinerary_id", doc.ID.String()), slog.Any("error", err))
		span.RecordError(err)
		doc.Notes = append(doc.Notes, "This itinerary could not be saved; retrieval by ID will not be possible.")
	}

	l.InfoContext(ctx, "Trip planned",
		slog.String("itinerary_id", doc.ID.String()),
		slog.Int("attractions", len(attractions)),
		slog.Int("hotels", comp.Hotels.Count),
		slog.Bool("fallback", comp.UsedFallback),
	)
	span.SetStatus(codes.Ok, "Trip planned")
	return doc, nil
}

// discover runs the independent provider lookups concurrently. Failures never
// abort planning; each missing piece becomes a note on the document.
func (s *ServiceImpl) discover(ctx context.Context, l *slog.Logger, dest types.GeoPoint, origin *types.GeoPoint,
	req types.PlanTripRequest) ([]types.Attraction, types.HotelsSection, *types.Airport, *types.Airport, []string) {

	ctx, span := otel.Tracer("PlannerService").Start(ctx, "discover")
	defer span.End()

	var (
		attractions   []types.Attraction
		hotelsSection *types.HotelsSection
		destAirport   *types.Airport
		originAirport *types.Airport

		attractionsErr, hotelsErr, destAirportErr, originAirportErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		attractions, attractionsErr = s.places.FindAttractions(gctx, dest, 0, s.opts.MaxAttractions)
		return nil
	})
	g.Go(func() error {
		hotelsSection, hotelsErr = s.places.FindHotels(gctx, dest, req.DestinationCity, s.opts.MaxHotels)
		return nil
	})
	g.Go(func() error {
		destAirport, destAirportErr = s.places.FindAirport(gctx, dest)
		return nil
	})
	if origin != nil {
		originPoint := *origin
		g.Go(func() error {
			originAirport, originAirportErr = s.places.FindAirport(gctx, originPoint)
			return nil
		})
	}
	_ = g.Wait()

	var notes []string
	if attractionsErr != nil {
		l.WarnContext(ctx, "Attraction discovery failed", slog.Any("error", attractionsErr))
		notes = append(notes, "Attraction discovery was unavailable; the plan may be lighter than usual.")
		attractions = []types.Attraction{}
	}
	if hotelsErr != nil || hotelsSection == nil {
		if hotelsErr != nil {
			l.WarnContext(ctx, "Hotel discovery failed", slog.Any("error", hotelsErr))
		}
		notes = append(notes, "Hotel discovery was unavailable; use the booking links to search manually.")
		hotelsSection = &types.HotelsSection{}
	}
	if destAirportErr != nil {
		l.WarnContext(ctx, "No arrival airport found", slog.Any("error", destAirportErr))
		notes = append(notes, fmt.Sprintf("No airport was found near %s; flight estimates are unavailable.", req.DestinationCity))
	}
	if origin != nil && originAirportErr != nil {
		l.WarnContext(ctx, "No departure airport found", slog.Any("error", originAirportErr))
		notes = append(notes, fmt.Sprintf("No airport was found near %s; flight estimates are unavailable.", req.OriginCity))
	}

	span.SetAttributes(
		attribute.Int("attractions.count", len(attractions)),
		attribute.Int("hotels.count", len(hotelsSection.Hotels)),
	)
	span.SetStatus(codes.Ok, "Discovery complete")
	return attractions, *hotelsSection, destAirport, originAirport, notes
}

func (s *ServiceImpl) GetItinerary(ctx context.Context, id uuid.UUID) (*types.ItineraryDocument, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "GetItinerary", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	doc, err := s.repo.GetItinerary(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Itinerary fetched")
	return doc, nil
}

func (s *ServiceImpl) ListUserItineraries(ctx context.Context, userID uuid.UUID) ([]types.ItineraryDocument, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "ListUserItineraries")
	defer span.End()

	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("itineraries.count", len(docs)))
	span.SetStatus(codes.Ok, "Itineraries listed")
	return docs, nil
}

func (s *ServiceImpl) DeleteItinerary(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "DeleteItinerary", trace.WithAttributes(
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetStatus(codes.Ok, "Itinerary deleted")
	return nil
}
