package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestEstimator() *Estimator {
	return NewEstimator("INR", 2)
}

func TestEstimateFlights(t *testing.T) {
	e := newTestEstimator()

	delhi := &types.Airport{Name: "Indira Gandhi International Airport", IATA: "DEL", Lat: 28.5562, Lon: 77.1000}
	mumbai := &types.Airport{Name: "Chhatrapati Shivaji Maharaj International Airport", IATA: "BOM", Lat: 19.0896, Lon: 72.8656}

	t.Run("both airports resolved", func(t *testing.T) {
		got := e.EstimateFlights(delhi, mumbai, "Delhi", "Mumbai", "INR")

		require.NotNil(t, got.EstimatedRoundTripPerPerson)
		assert.GreaterOrEqual(t, *got.EstimatedRoundTripPerPerson, flightMinFare)
		assert.Equal(t, "INR", got.Currency)
		assert.Equal(t, delhi.Name, got.OriginAirport)
		assert.Equal(t, mumbai.Name, got.DestinationAirport)
		assert.Equal(t, "https://www.skyscanner.net/transport/flights/DEL/BOM/", got.SkyscannerLink)
	})

	t.Run("missing airport omits fare", func(t *testing.T) {
		got := e.EstimateFlights(nil, mumbai, "Nowhere", "Mumbai", "INR")

		assert.Nil(t, got.EstimatedRoundTripPerPerson)
		assert.Empty(t, got.SkyscannerLink)
		assert.Equal(t, "INR", got.Currency)
	})

	t.Run("falls back to city names without IATA codes", func(t *testing.T) {
		a := &types.Airport{Name: "Small Strip", Lat: 10, Lon: 76}
		got := e.EstimateFlights(a, mumbai, "Kochi, Kerala, India", "Mumbai", "INR")

		assert.Equal(t, "https://www.skyscanner.net/transport/flights/Kochi/Mumbai/", got.SkyscannerLink)
	})

	t.Run("deterministic", func(t *testing.T) {
		first := e.EstimateFlights(delhi, mumbai, "Delhi", "Mumbai", "INR")
		second := e.EstimateFlights(delhi, mumbai, "Delhi", "Mumbai", "INR")
		assert.Equal(t, *first.EstimatedRoundTripPerPerson, *second.EstimatedRoundTripPerPerson)
	})
}

func TestFlightFarePerPerson(t *testing.T) {
	t.Run("short hops hit the minimum fare", func(t *testing.T) {
		assert.Equal(t, flightMinFare, flightFarePerPerson(100))
	})

	t.Run("fare grows monotonically with distance", func(t *testing.T) {
		prev := 0.0
		for _, km := range []float64{500, 1500, 2500, 4000, 6000, 9000} {
			fare := flightFarePerPerson(km)
			assert.GreaterOrEqual(t, fare, prev, "fare at %.0f km should not be below fare at shorter distance", km)
			prev = fare
		}
	})

	t.Run("long haul uses the eased rate", func(t *testing.T) {
		// 5000 km = 1500*6.5 + 2500*6.0 + 1000*5.5 + base 3000
		assert.InDelta(t, 3000+1500*6.5+2500*6.0+1000*5.5, flightFarePerPerson(5000), 0.01)
	})
}

func TestEstimateTrain(t *testing.T) {
	e := newTestEstimator()

	delhi := types.GeoPoint{Lat: 28.6139, Lon: 77.2090}
	jaipur := types.GeoPoint{Lat: 26.9124, Lon: 75.7873}

	got := e.EstimateTrain(delhi, jaipur, "INR")
	require.NotNil(t, got)
	assert.True(t, got.Available)
	require.Len(t, got.Classes, 4)

	t.Run("tiers are strictly ordered by comfort", func(t *testing.T) {
		sl := got.Classes["SL"]
		threeA := got.Classes["3A"]
		twoA := got.Classes["2A"]
		oneA := got.Classes["1A"]

		assert.Less(t, sl.EstFarePerPerson, threeA.EstFarePerPerson)
		assert.Less(t, threeA.EstFarePerPerson, twoA.EstFarePerPerson)
		assert.Less(t, twoA.EstFarePerPerson, oneA.EstFarePerPerson)
	})

	t.Run("duration is shared across tiers", func(t *testing.T) {
		want := got.Classes["SL"].EstDurationHours
		for code, c := range got.Classes {
			assert.Equal(t, want, c.EstDurationHours, "class %s", code)
		}
		assert.GreaterOrEqual(t, want, 1.0)
	})

	t.Run("minimum fares apply on tiny distances", func(t *testing.T) {
		nearby := types.GeoPoint{Lat: 28.62, Lon: 77.22}
		short := e.EstimateTrain(delhi, nearby, "INR")
		require.NotNil(t, short)
		assert.Equal(t, 200.0, short.Classes["SL"].EstFarePerPerson)
		assert.Equal(t, 1500.0, short.Classes["1A"].EstFarePerPerson)
	})
}

func TestEstimateHotels(t *testing.T) {
	e := newTestEstimator()

	t.Run("uses median price tier", func(t *testing.T) {
		hotels := []types.Hotel{
			{Name: "A", PriceLevel: intPtr(1)},
			{Name: "B", PriceLevel: intPtr(3)},
			{Name: "C", PriceLevel: intPtr(3)},
		}
		got := e.EstimateHotels(hotels, "INR")
		require.NotNil(t, got.EstimatedPerNight)
		assert.Equal(t, 11000.0, *got.EstimatedPerNight)
	})

	t.Run("falls back when no tiers are known", func(t *testing.T) {
		got := e.EstimateHotels([]types.Hotel{{Name: "Unrated"}}, "INR")
		require.NotNil(t, got.EstimatedPerNight)
		assert.Equal(t, fallbackNightlyRate, *got.EstimatedPerNight)
	})
}

func TestDeriveCityPriceLevel(t *testing.T) {
	e := newTestEstimator()

	assert.Equal(t, 2, e.DeriveCityPriceLevel(nil), "unknown market defaults to mid band")
	assert.Equal(t, 4, e.DeriveCityPriceLevel([]types.Hotel{
		{PriceLevel: intPtr(4)}, {PriceLevel: intPtr(3)}, {PriceLevel: intPtr(4)},
	}))
	assert.Equal(t, 0, e.DeriveCityPriceLevel([]types.Hotel{
		{PriceLevel: intPtr(0)}, {PriceLevel: intPtr(1)}, {PriceLevel: intPtr(0)},
	}))
}

func TestTotals(t *testing.T) {
	e := newTestEstimator()

	req := types.PlanTripRequest{
		OriginCity:      "Delhi",
		DestinationCity: "Mumbai",
		NumDays:         4,
		NumPeople:       3,
	}
	other := e.EstimateOtherCosts(2, "INR")
	hotels := types.HotelEstimate{EstimatedPerNight: floatPtr(7000), Currency: "INR"}

	t.Run("flights path", func(t *testing.T) {
		flights := types.FlightEstimate{EstimatedRoundTripPerPerson: floatPtr(10000), Currency: "INR"}

		got := e.Totals(req, flights, hotels, other, nil, 8, "INR")

		require.NotNil(t, got.Flights)
		assert.Nil(t, got.Train)
		assert.Equal(t, 30000.0, *got.Flights)

		// 3 people with double occupancy need 2 rooms.
		require.NotNil(t, got.Hotels)
		assert.Equal(t, 7000.0*4*2, *got.Hotels)

		require.NotNil(t, got.Activities)
		require.NotNil(t, got.FoodTransportMisc)
		assert.Equal(t, 1500.0*3*4, *got.FoodTransportMisc)

		sum := *got.Flights + *got.Hotels + *got.Activities + *got.FoodTransportMisc
		assert.InDelta(t, sum, got.GrandTotal, 0.01)
	})

	t.Run("train replaces flights", func(t *testing.T) {
		flights := types.FlightEstimate{EstimatedRoundTripPerPerson: floatPtr(10000), Currency: "INR"}
		train := e.EstimateTrain(
			types.GeoPoint{Lat: 28.6139, Lon: 77.2090},
			types.GeoPoint{Lat: 26.9124, Lon: 75.7873},
			"INR",
		)

		got := e.Totals(req, flights, hotels, other, train, 8, "INR")

		assert.Nil(t, got.Flights)
		require.NotNil(t, got.Train)
		assert.Equal(t, round2(train.Classes["3A"].EstFarePerPerson*3), *got.Train)
	})

	t.Run("omitted categories are excluded from the grand total", func(t *testing.T) {
		got := e.Totals(req, types.FlightEstimate{Currency: "INR"}, types.HotelEstimate{Currency: "INR"}, other, nil, 0, "INR")

		assert.Nil(t, got.Flights)
		assert.Nil(t, got.Train)
		assert.Nil(t, got.Hotels)
		require.NotNil(t, got.Activities)
		require.NotNil(t, got.FoodTransportMisc)
		assert.InDelta(t, *got.Activities+*got.FoodTransportMisc, got.GrandTotal, 0.01)
	})

	t.Run("currency falls back to the configured default", func(t *testing.T) {
		got := e.Totals(req, types.FlightEstimate{}, types.HotelEstimate{}, other, nil, 0, "")
		assert.Equal(t, "INR", got.Currency)
	})
}
