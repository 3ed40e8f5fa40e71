package types

import (
	"time"

	"github.com/google/uuid"
)

// PlanTripRequest is the single input of the planning pipeline.
type PlanTripRequest struct {
	OriginCity          string   `json:"originCity"`
	DestinationCity     string   `json:"destinationCity"`
	NumDays             int      `json:"numDays"`
	NumPeople           int      `json:"numPeople"`
	BudgetCurrency      string   `json:"budgetCurrency,omitempty"`
	BudgetAmount        *float64 `json:"budgetAmount,omitempty"`
	IncludeFoodRecos    bool     `json:"includeFoodRecos,omitempty"`
	IncludeCommuteTimes bool     `json:"includeCommuteTimes,omitempty"`
}

// GeoPoint is a resolved city location. Immutable once returned by the resolver.
type GeoPoint struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lng"`
	DisplayName string  `json:"formatted,omitempty"`
	PlaceID     string  `json:"place_id,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
}

type Attraction struct {
	PlaceID         string  `json:"place_id"`
	Name            string  `json:"name"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lng"`
	Address         string  `json:"address,omitempty"`
	Description     string  `json:"description,omitempty"`
	OpeningHours    string  `json:"openingHours,omitempty"`
	BestTimeToVisit string  `json:"bestTimeToVisit,omitempty"`
	URL             string  `json:"url,omitempty"`
}

type Hotel struct {
	PlaceID          string            `json:"place_id"`
	Name             string            `json:"name"`
	Address          string            `json:"address,omitempty"`
	Lat              float64           `json:"lat"`
	Lon              float64           `json:"lng"`
	Rating           *float64          `json:"rating,omitempty"`
	UserRatingsTotal *int              `json:"user_ratings_total,omitempty"`
	PriceLevel       *int              `json:"price_level,omitempty"`
	Stars            *float64          `json:"stars,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	URL              string            `json:"url,omitempty"`
	City             string            `json:"city,omitempty"`
	BookingLinks     map[string]string `json:"booking_links,omitempty"`
}

type Airport struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name"`
	IATA    string  `json:"iata,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lng"`
}

// TransportMode is a ground transport mode for airport-to-city legs.
type TransportMode string

const (
	ModeTaxi       TransportMode = "taxi"
	ModeBus        TransportMode = "bus"
	ModeSharedTaxi TransportMode = "shared_taxi"
)

// RouteEstimate is the result of a single route lookup. Available reports
// whether a routing provider answered; a false value means the distance and
// duration come from the straight-line fallback.
type RouteEstimate struct {
	Mode            TransportMode `json:"mode"`
	Description     string        `json:"description,omitempty"`
	DistanceKm      float64       `json:"distance_km"`
	DurationMinutes int           `json:"duration_minutes"`
	Steps           []RouteStep   `json:"steps,omitempty"`
	Available       bool          `json:"available"`
	Cached          bool          `json:"cached,omitempty"`
	Note            string        `json:"note,omitempty"`
}

type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

// GroundTransport bundles the route options for the airport-to-destination leg.
type GroundTransport struct {
	AirportName string         `json:"airport_name"`
	AirportIATA string         `json:"airport_iata,omitempty"`
	Taxi        *RouteEstimate `json:"taxi,omitempty"`
	Bus         *RouteEstimate `json:"bus,omitempty"`
	SharedTaxi  *RouteEstimate `json:"shared_taxi,omitempty"`
	Primary     *RouteEstimate `json:"primary,omitempty"`
}

type FlightEstimate struct {
	OriginAirport               string   `json:"originAirport,omitempty"`
	DestinationAirport          string   `json:"destinationAirport,omitempty"`
	EstimatedRoundTripPerPerson *float64 `json:"estimatedRoundTripPerPerson,omitempty"`
	Currency                    string   `json:"currency"`
	SkyscannerLink              string   `json:"skyscanner_link,omitempty"`
}

type TrainClassEstimate struct {
	EstFarePerPerson float64 `json:"estFarePerPerson"`
	EstDurationHours float64 `json:"estDurationHours"`
	Currency         string  `json:"currency"`
	Description      string  `json:"description,omitempty"`
}

type TrainEstimate struct {
	Available  bool                          `json:"available"`
	DistanceKm float64                       `json:"distance_km,omitempty"`
	Classes    map[string]TrainClassEstimate `json:"classes"`
	Note       string                        `json:"note,omitempty"`
}

type HotelEstimate struct {
	EstimatedPerNight *float64 `json:"estimatedPerNight,omitempty"`
	Currency          string   `json:"currency"`
}

type OtherCostsEstimate struct {
	ActivitiesPerDayPerPerson        float64 `json:"activitiesPerDayPerPerson"`
	FoodTransportMiscPerDayPerPerson float64 `json:"foodTransportMiscPerDayPerPerson"`
	Currency                         string  `json:"currency"`
}

// CostBreakdown is the aggregate estimate attached to an itinerary. A nil
// category was not applicable for the request and is excluded from GrandTotal.
type CostBreakdown struct {
	Flights           *float64 `json:"flights,omitempty"`
	Train             *float64 `json:"train,omitempty"`
	Hotels            *float64 `json:"hotels,omitempty"`
	Activities        *float64 `json:"activities,omitempty"`
	FoodTransportMisc *float64 `json:"foodTransportMisc,omitempty"`
	GrandTotal        float64  `json:"grandTotal"`
	Currency          string   `json:"currency"`
}

// DayPlan holds the ordered narrative items for one day. Day is 1-based.
type DayPlan struct {
	Day   int      `json:"day"`
	Items []string `json:"items"`
}

// HotelsSection groups hotel candidates for the response. HotelsByDay is keyed
// by the 1-based day index in memory; the persistence layer coerces those keys
// to strings before writing.
type HotelsSection struct {
	Hotels       []Hotel            `json:"hotels"`
	HotelsByCity map[string][]Hotel `json:"hotels_by_city,omitempty"`
	HotelsByDay  map[int][]Hotel    `json:"hotels_by_day,omitempty"`
	Count        int                `json:"count"`
	CityLinks    map[string]string  `json:"city_links,omitempty"`
	Note         string             `json:"note,omitempty"`
}

// ItineraryDocument is the immutable result of one successful planning run.
type ItineraryDocument struct {
	ID              uuid.UUID        `json:"itineraryId"`
	UserID          *uuid.UUID       `json:"userId,omitempty"`
	OriginCity      string           `json:"originCity"`
	DestinationCity string           `json:"destinationCity"`
	Summary         string           `json:"summary"`
	Flights         FlightEstimate   `json:"flights"`
	Train           *TrainEstimate   `json:"train,omitempty"`
	Hotels          HotelsSection    `json:"hotels"`
	Attractions     []Attraction     `json:"attractions"`
	DailyPlan       []DayPlan        `json:"dailyPlan"`
	RouteInfo       *GroundTransport `json:"routeInfo,omitempty"`
	EstimatedTotals CostBreakdown    `json:"estimatedTotals"`
	Notes           []string         `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}
