package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// stubGeocoder satisfies geocode.Service for the reverse-country checks done
// during hotel filtering outside the home region.
type stubGeocoder struct {
	countryCode string
	err         error
}

func (s *stubGeocoder) Resolve(ctx context.Context, city string) (*types.GeoPoint, error) {
	return nil, types.ErrNotFound
}

func (s *stubGeocoder) SearchCities(ctx context.Context, query string, limit int) ([]types.GeoPoint, error) {
	return nil, nil
}

func (s *stubGeocoder) ReverseCountry(ctx context.Context, lat, lon float64) (string, error) {
	return s.countryCode, s.err
}

func newTestService(t *testing.T, handler http.Handler, geocoder *stubGeocoder) *ServiceImpl {
	t.Helper()
	metrics.InitAppMetrics()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if geocoder == nil {
		geocoder = &stubGeocoder{}
	}
	return NewServiceImpl(Options{
		OpenTripMapBaseURL: server.URL,
		OpenTripMapKey:     "test-key",
		OverpassEndpoints:  []string{server.URL + "/overpass"},
		NominatimEmail:     "test@example.com",
		Timeout:            2 * time.Second,
		Region:             types.BoundingBox{MinLat: 6, MaxLat: 37, MinLon: 68, MaxLon: 98},
		RegionCountryCode:  "in",
	}, geocoder, slog.Default())
}

func overpassJSON(elements ...map[string]any) string {
	raw, _ := json.Marshal(map[string]any{"elements": elements})
	return string(raw)
}

func hotelElement(id int64, name string, lat, lon float64) map[string]any {
	return map[string]any{
		"type": "node",
		"id":   id,
		"lat":  lat,
		"lon":  lon,
		"tags": map[string]string{"tourism": "hotel", "name": name},
	}
}

func airportElement(id int64, name, aeroway, iata string, lat, lon float64) map[string]any {
	tags := map[string]string{"aeroway": aeroway, "name": name}
	if iata != "" {
		tags["iata"] = iata
	}
	return map[string]any{"type": "node", "id": id, "lat": lat, "lon": lon, "tags": tags}
}

func TestFindAttractions(t *testing.T) {
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/places/radius", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = fmt.Fprint(w, `{"features": [
			{"properties": {"xid": "W123", "name": "Amber Fort"}, "geometry": {"coordinates": [75.85, 26.98]}},
			{"properties": {"xid": "W456", "name": ""}, "geometry": {"coordinates": [75.80, 26.90]}},
			{"properties": {"xid": "W789", "name": "City Palace"}, "geometry": {"coordinates": [75.82, 26.92]}}
		]}`)
	})
	mux.HandleFunc("/places/xid/W123", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{
			"xid": "W123",
			"url": "https://example.com/amber-fort",
			"wikipedia_extracts": {"text": "A hill fort best visited from Oct to Mar."},
			"info": {"opening_hours": "08:00-17:30"}
		}`)
	})
	mux.HandleFunc("/places/xid/W789", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	svc := newTestService(t, mux, nil)

	attractions, err := svc.FindAttractions(ctx, types.GeoPoint{Lat: 26.91, Lon: 75.79}, 0, 10)
	require.NoError(t, err)
	require.Len(t, attractions, 2, "nameless features are dropped")

	assert.Equal(t, "Amber Fort", attractions[0].Name)
	assert.InDelta(t, 26.98, attractions[0].Lat, 0.001)
	assert.Contains(t, attractions[0].Description, "hill fort")
	assert.Equal(t, "08:00-17:30", attractions[0].OpeningHours)
	assert.Equal(t, "https://example.com/amber-fort", attractions[0].URL)
	assert.Equal(t, "Mar-Oct", attractions[0].BestTimeToVisit)

	// detail lookup failure leaves the base record intact
	assert.Equal(t, "City Palace", attractions[1].Name)
	assert.Empty(t, attractions[1].Description)
}

func TestFindAttractionsProviderDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/places/radius", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	svc := newTestService(t, mux, nil)

	_, err := svc.FindAttractions(context.Background(), types.GeoPoint{Lat: 26.91, Lon: 75.79}, 0, 10)
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestFindAirport(t *testing.T) {
	ctx := context.Background()

	t.Run("CommercialWithIATAWinsAndStopsWidening", func(t *testing.T) {
		var calls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = fmt.Fprint(w, overpassJSON(
				airportElement(1, "Jaipur Flying Club", "aerodrome", "", 26.89, 75.80),
				airportElement(2, "Jaipur International Airport", "airport", "jai", 26.82, 75.81),
				airportElement(3, "Jodhpur Air Force Station", "airport", "JDH", 26.25, 73.05),
			))
		})
		svc := newTestService(t, mux, nil)

		airport, err := svc.FindAirport(ctx, types.GeoPoint{Lat: 26.91, Lon: 75.79})
		require.NoError(t, err)
		assert.Equal(t, "Jaipur International Airport", airport.Name)
		assert.Equal(t, "JAI", airport.IATA, "IATA codes are upper-cased")
		assert.Equal(t, int32(1), calls.Load(), "widening stops once a commercial IATA airport is found")
	})

	t.Run("ClosestAerodromeWhenNoCommercial", func(t *testing.T) {
		var calls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = fmt.Fprint(w, overpassJSON(
				airportElement(1, "Far Strip", "aerodrome", "", 27.40, 75.80),
				airportElement(2, "Near Strip", "aerodrome", "", 26.95, 75.80),
			))
		})
		svc := newTestService(t, mux, nil)

		airport, err := svc.FindAirport(ctx, types.GeoPoint{Lat: 26.91, Lon: 75.79})
		require.NoError(t, err)
		assert.Equal(t, "Near Strip", airport.Name)
		assert.Equal(t, int32(3), calls.Load(), "all radius steps are tried before settling")
	})

	t.Run("NoCandidates", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, overpassJSON())
		})
		svc := newTestService(t, mux, nil)

		_, err := svc.FindAirport(ctx, types.GeoPoint{Lat: 26.91, Lon: 75.79})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestSelectAirport(t *testing.T) {
	commercial := func(id string, iata string, dist float64) airportCandidate {
		return airportCandidate{
			Airport:    types.Airport{PlaceID: id, Name: id, IATA: iata},
			commercial: true,
			distKm:     dist,
		}
	}

	t.Run("IATABeatsProximity", func(t *testing.T) {
		best := selectAirport([]airportCandidate{
			commercial("a", "", 5),
			commercial("b", "XYZ", 50),
		})
		require.NotNil(t, best)
		assert.Equal(t, "b", best.PlaceID)
	})

	t.Run("LexicalTieBreak", func(t *testing.T) {
		best := selectAirport([]airportCandidate{
			commercial("osm-node-2", "AAA", 10),
			commercial("osm-node-1", "BBB", 10),
		})
		require.NotNil(t, best)
		assert.Equal(t, "osm-node-1", best.PlaceID)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, selectAirport(nil))
	})
}

func TestFindHotels(t *testing.T) {
	ctx := context.Background()
	jaipur := types.GeoPoint{Lat: 26.91, Lon: 75.79, CountryCode: "in"}

	t.Run("DeduplicatesAndFiltersByDistance", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, overpassJSON(
				hotelElement(1, "Hotel Pearl Palace", 26.91, 75.80),
				hotelElement(2, "Hotel Pearl Palace", 26.92, 75.81), // duplicate name
				hotelElement(3, "Rambagh Palace", 26.89, 75.80),
				hotelElement(4, "Distant Resort", 27.40, 75.80), // ~55km away
			))
		})
		svc := newTestService(t, mux, nil)

		section, err := svc.FindHotels(ctx, jaipur, "Jaipur, IN", 10)
		require.NoError(t, err)
		require.Equal(t, 2, section.Count)
		assert.Equal(t, "Hotel Pearl Palace", section.Hotels[0].Name)
		assert.Equal(t, "Rambagh Palace", section.Hotels[1].Name)
		assert.Equal(t, "Jaipur", section.Hotels[0].City, "country suffix is stripped")
		assert.NotEmpty(t, section.Note)
	})

	t.Run("RegionalBookingLinks", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, overpassJSON(hotelElement(1, "Hotel Pearl Palace", 26.91, 75.80)))
		})
		svc := newTestService(t, mux, nil)

		section, err := svc.FindHotels(ctx, jaipur, "Jaipur", 5)
		require.NoError(t, err)
		require.Equal(t, 1, section.Count)

		links := section.Hotels[0].BookingLinks
		assert.Contains(t, links, "booking_com")
		assert.Contains(t, links, "agoda")
		assert.Contains(t, links, "makemytrip")
		assert.Contains(t, links, "goibibo")
		assert.Contains(t, section.CityLinks, "makemytrip")
	})

	t.Run("NonRegionalSkipsLocalSites", func(t *testing.T) {
		paris := types.GeoPoint{Lat: 48.86, Lon: 2.35, CountryCode: "fr"}
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, overpassJSON(hotelElement(1, "Hotel Lutetia", 48.85, 2.33)))
		})
		svc := newTestService(t, mux, &stubGeocoder{countryCode: "fr"})

		section, err := svc.FindHotels(ctx, paris, "Paris", 5)
		require.NoError(t, err)
		require.Equal(t, 1, section.Count)
		assert.NotContains(t, section.Hotels[0].BookingLinks, "makemytrip")
		assert.NotContains(t, section.CityLinks, "goibibo")
	})

	t.Run("CrossBorderHotelDropped", func(t *testing.T) {
		geneva := types.GeoPoint{Lat: 46.20, Lon: 6.14, CountryCode: "ch"}
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, overpassJSON(hotelElement(1, "Hotel Frontiere", 46.19, 6.12)))
		})
		// reverse lookup places the hotel across the border
		svc := newTestService(t, mux, &stubGeocoder{countryCode: "fr"})

		section, err := svc.FindHotels(ctx, geneva, "Geneva", 5)
		require.NoError(t, err)
		assert.Equal(t, 0, section.Count)
	})

	t.Run("LimitRespected", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, overpassJSON(
				hotelElement(1, "Hotel A", 26.91, 75.80),
				hotelElement(2, "Hotel B", 26.92, 75.81),
				hotelElement(3, "Hotel C", 26.90, 75.78),
			))
		})
		svc := newTestService(t, mux, nil)

		section, err := svc.FindHotels(ctx, jaipur, "Jaipur", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, section.Count)
	})
}

func TestCleanCityName(t *testing.T) {
	assert.Equal(t, "Jaipur", cleanCityName("Jaipur, IN"))
	assert.Equal(t, "Jaipur", cleanCityName("  Jaipur  "))
	assert.Equal(t, "New York", cleanCityName("New York, NY, USA"))
}

func TestBestTimeGuess(t *testing.T) {
	assert.Equal(t, "Mar-Oct", bestTimeGuess("Best visited between Oct and Mar."))
	assert.Equal(t, "May", bestTimeGuess("Peak bloom in May."))
	assert.Empty(t, bestTimeGuess("No season mentioned."))
}
