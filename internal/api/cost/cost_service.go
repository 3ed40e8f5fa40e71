package cost

import (
	"math"
	"net/url"
	"strings"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

var _ Service = (*Estimator)(nil)

// Service produces heuristic cost estimates. Every method is a pure function
// of its inputs: no network access, no clock, no randomness. Identical inputs
// always produce identical estimates, which is what makes plans reproducible.
type Service interface {
	EstimateFlights(originAirport, destAirport *types.Airport, originCity, destCity, currency string) types.FlightEstimate
	EstimateTrain(origin, dest types.GeoPoint, currency string) *types.TrainEstimate
	EstimateHotels(hotels []types.Hotel, currency string) types.HotelEstimate
	EstimateOtherCosts(cityPriceLevel int, currency string) types.OtherCostsEstimate
	DeriveCityPriceLevel(hotels []types.Hotel) int
	Totals(req types.PlanTripRequest, flights types.FlightEstimate, hotels types.HotelEstimate,
		other types.OtherCostsEstimate, train *types.TrainEstimate, attractionCount int, currency string) types.CostBreakdown
}

type Estimator struct {
	defaultCurrency  string
	occupancyPerRoom int
}

func NewEstimator(defaultCurrency string, occupancyPerRoom int) *Estimator {
	if occupancyPerRoom <= 0 {
		occupancyPerRoom = 2
	}
	return &Estimator{defaultCurrency: defaultCurrency, occupancyPerRoom: occupancyPerRoom}
}

func (e *Estimator) currencyOr(currency string) string {
	if currency != "" {
		return currency
	}
	return e.defaultCurrency
}

// Flight fare model: a base fee plus a per-km rate that eases off with
// distance, floored at a minimum round-trip fare.
const (
	flightBaseFare = 3000.0
	flightMinFare  = 9000.0
)

var flightBands = []struct {
	uptoKm    float64
	ratePerKm float64
}{
	{1500, 6.5},            // short haul
	{4000, 6.0},            // medium haul
	{math.MaxFloat64, 5.5}, // long haul
}

func flightFarePerPerson(distanceKm float64) float64 {
	fare := flightBaseFare
	prev := 0.0
	for _, band := range flightBands {
		if distanceKm <= prev {
			break
		}
		span := math.Min(distanceKm, band.uptoKm) - prev
		fare += span * band.ratePerKm
		prev = band.uptoKm
	}
	return math.Max(flightMinFare, fare)
}

func (e *Estimator) EstimateFlights(originAirport, destAirport *types.Airport, originCity, destCity, currency string) types.FlightEstimate {
	estimate := types.FlightEstimate{Currency: e.currencyOr(currency)}
	if originAirport == nil || destAirport == nil {
		return estimate
	}

	distanceKm := types.HaversineKm(originAirport.Lat, originAirport.Lon, destAirport.Lat, destAirport.Lon)
	fare := round2(flightFarePerPerson(distanceKm))

	estimate.OriginAirport = originAirport.Name
	estimate.DestinationAirport = destAirport.Name
	estimate.EstimatedRoundTripPerPerson = &fare
	estimate.SkyscannerLink = skyscannerLink(originAirport, destAirport, originCity, destCity)
	return estimate
}

// skyscannerLink builds a flight search deep link, preferring IATA codes over
// free-text city names.
func skyscannerLink(originAirport, destAirport *types.Airport, originCity, destCity string) string {
	origin := originAirport.IATA
	dest := destAirport.IATA
	if origin == "" || dest == "" {
		origin = firstSegment(originCity)
		dest = firstSegment(destCity)
	}
	if origin == "" || dest == "" {
		return ""
	}
	return "https://www.skyscanner.net/transport/flights/" +
		url.PathEscape(origin) + "/" + url.PathEscape(dest) + "/"
}

func firstSegment(city string) string {
	if idx := strings.Index(city, ","); idx >= 0 {
		city = city[:idx]
	}
	return strings.TrimSpace(city)
}

// Train fare tiers, cheapest to most comfortable. Rates and floors follow the
// Indian Railways fare structure; each tier is strictly more expensive than
// the previous for any distance.
var trainClasses = []struct {
	code        string
	ratePerKm   float64
	minFare     float64
	description string
}{
	{"SL", 0.6, 200, "Sleeper Class"},
	{"3A", 1.6, 600, "3-tier AC"},
	{"2A", 2.4, 900, "2-tier AC"},
	{"1A", 4.0, 1500, "First AC"},
}

const trainAvgSpeedKmh = 55.0

func (e *Estimator) EstimateTrain(origin, dest types.GeoPoint, currency string) *types.TrainEstimate {
	distanceKm := types.HaversineKm(origin.Lat, origin.Lon, dest.Lat, dest.Lon)

	// Duration is a property of the route, not of the class, so every tier
	// shares the same figure.
	durationH := math.Max(1.0, distanceKm/trainAvgSpeedKmh+0.5)

	classes := make(map[string]types.TrainClassEstimate, len(trainClasses))
	for _, c := range trainClasses {
		classes[c.code] = types.TrainClassEstimate{
			EstFarePerPerson: round2(math.Max(c.minFare, c.ratePerKm*distanceKm)),
			EstDurationHours: math.Round(durationH*10) / 10,
			Currency:         e.currencyOr(currency),
			Description:      c.description,
		}
	}

	return &types.TrainEstimate{
		Available:  true,
		DistanceKm: math.Round(distanceKm*10) / 10,
		Classes:    classes,
		Note:       "Estimates only. Actual fares and duration may vary. Book via IRCTC (irctc.co.in) or authorized agents.",
	}
}

// Nightly rate per observed price tier (0-4), for a standard double room.
var tierToNightlyRate = map[int]float64{
	0: 2500,
	1: 4000,
	2: 7000,
	3: 11000,
	4: 16000,
}

const fallbackNightlyRate = 7000.0

func (e *Estimator) EstimateHotels(hotels []types.Hotel, currency string) types.HotelEstimate {
	perNight := fallbackNightlyRate
	if tier, ok := medianPriceLevel(hotels); ok {
		if rate, found := tierToNightlyRate[tier]; found {
			perNight = rate
		}
	}
	perNight = round2(perNight)
	return types.HotelEstimate{EstimatedPerNight: &perNight, Currency: e.currencyOr(currency)}
}

func medianPriceLevel(hotels []types.Hotel) (int, bool) {
	var levels []int
	for _, h := range hotels {
		if h.PriceLevel != nil {
			levels = append(levels, *h.PriceLevel)
		}
	}
	if len(levels) == 0 {
		return 0, false
	}
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j] < levels[j-1]; j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
	return levels[len(levels)/2], true
}

// DeriveCityPriceLevel maps observed hotel price tiers onto a 0-4 city price
// signal; an unknown market defaults to the middle band.
func (e *Estimator) DeriveCityPriceLevel(hotels []types.Hotel) int {
	var sum, n float64
	for _, h := range hotels {
		if h.PriceLevel != nil {
			sum += float64(*h.PriceLevel)
			n++
		}
	}
	if n == 0 {
		return 2
	}
	avg := sum / n
	switch {
	case avg >= 3.2:
		return 4
	case avg >= 2.5:
		return 3
	case avg >= 1.5:
		return 2
	case avg >= 0.8:
		return 1
	default:
		return 0
	}
}

// Daily spend bands per city price level: activities, food/transport/misc.
var dailySpendBands = map[int][2]float64{
	0: {400, 600},
	1: {700, 900},
	2: {1200, 1500},
	3: {1800, 2200},
	4: {2600, 3200},
}

func (e *Estimator) EstimateOtherCosts(cityPriceLevel int, currency string) types.OtherCostsEstimate {
	band, ok := dailySpendBands[cityPriceLevel]
	if !ok {
		band = dailySpendBands[2]
	}
	return types.OtherCostsEstimate{
		ActivitiesPerDayPerPerson:        round2(band[0]),
		FoodTransportMiscPerDayPerPerson: round2(band[1]),
		Currency:                         e.currencyOr(currency),
	}
}

// Totals sums the applicable categories. A category whose precondition is not
// met is left nil and excluded from the grand total. When a train estimate is
// present the train replaces flights as the main transport.
func (e *Estimator) Totals(req types.PlanTripRequest, flights types.FlightEstimate, hotels types.HotelEstimate,
	other types.OtherCostsEstimate, train *types.TrainEstimate, attractionCount int, currency string) types.CostBreakdown {

	breakdown := types.CostBreakdown{Currency: e.currencyOr(currency)}
	people := float64(req.NumPeople)
	days := float64(req.NumDays)

	if train != nil && train.Available {
		// Prefer the 3A tier as the value-for-money benchmark.
		if chosen, ok := train.Classes["3A"]; ok {
			total := round2(chosen.EstFarePerPerson * people)
			breakdown.Train = &total
		}
	} else if flights.EstimatedRoundTripPerPerson != nil {
		total := round2(*flights.EstimatedRoundTripPerPerson * people)
		breakdown.Flights = &total
	}

	if hotels.EstimatedPerNight != nil {
		rooms := math.Ceil(people / float64(e.occupancyPerRoom))
		total := round2(*hotels.EstimatedPerNight * days * rooms)
		breakdown.Hotels = &total
	}

	if other.ActivitiesPerDayPerPerson > 0 {
		// Light scaling by how many attractions actually made the plan.
		scale := 0.9 + 0.02*math.Min(float64(attractionCount), 10)
		total := round2(other.ActivitiesPerDayPerPerson * people * days * scale)
		breakdown.Activities = &total
	}
	if other.FoodTransportMiscPerDayPerPerson > 0 {
		total := round2(other.FoodTransportMiscPerDayPerPerson * people * days)
		breakdown.FoodTransportMisc = &total
	}

	for _, category := range []*float64{breakdown.Flights, breakdown.Train, breakdown.Hotels, breakdown.Activities, breakdown.FoodTransportMisc} {
		if category != nil {
			breakdown.GrandTotal += *category
		}
	}
	breakdown.GrandTotal = round2(breakdown.GrandTotal)
	return breakdown
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
