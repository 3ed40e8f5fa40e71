package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *ServiceImpl {
	t.Helper()
	metrics.InitAppMetrics()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewServiceImpl(server.URL, "test@example.com", 2*time.Second, slog.Default())
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		var gotQuery string
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "test@example.com", r.URL.Query().Get("email"))
			assert.Contains(t, r.Header.Get("User-Agent"), "go-travel-planner")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{
				"place_id": 12345,
				"lat": "26.9124",
				"lon": "75.7873",
				"display_name": "Jaipur, Rajasthan, India",
				"address": {"country_code": "IN"}
			}]`))
		})

		point, err := svc.Resolve(ctx, "  Jaipur   ")
		require.NoError(t, err)
		assert.Equal(t, "Jaipur", gotQuery)
		assert.InDelta(t, 26.9124, point.Lat, 0.0001)
		assert.InDelta(t, 75.7873, point.Lon, 0.0001)
		assert.Equal(t, "Jaipur, Rajasthan, India", point.DisplayName)
		assert.Equal(t, "12345", point.PlaceID)
		assert.Equal(t, "in", point.CountryCode, "country code should be lowercased")
	})

	t.Run("NoResults", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})

		point, err := svc.Resolve(ctx, "Nowhereville")
		assert.Nil(t, point)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("EmptyCity", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for an empty city")
		})

		_, err := svc.Resolve(ctx, "   ")
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("ProviderError", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := svc.Resolve(ctx, "Jaipur")
		assert.ErrorIs(t, err, types.ErrProviderUnavailable)
	})

	t.Run("MalformedCoordinates", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"place_id": 1, "lat": "not-a-number", "lon": "75.0", "display_name": "x"}]`))
		})

		_, err := svc.Resolve(ctx, "Jaipur")
		assert.ErrorIs(t, err, types.ErrProviderUnavailable)
	})
}

func TestSearchCities(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsMatches", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[
				{"place_id": 1, "lat": "28.61", "lon": "77.20", "display_name": "New Delhi, India"},
				{"place_id": 2, "lat": "40.71", "lon": "-74.00", "display_name": "New York, USA"},
				{"place_id": 3, "lat": "bad", "lon": "0", "display_name": "Broken"}
			]`))
		})

		cities, err := svc.SearchCities(ctx, "New", 0)
		require.NoError(t, err)
		require.Len(t, cities, 2, "unparseable rows are skipped")
		assert.Equal(t, "New Delhi, India", cities[0].DisplayName)
		assert.Equal(t, "New York, USA", cities[1].DisplayName)
	})

	t.Run("ShortQuery", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for a short query")
		})

		cities, err := svc.SearchCities(ctx, " a ", 5)
		require.NoError(t, err)
		assert.Empty(t, cities)
	})

	t.Run("ProviderError", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := svc.SearchCities(ctx, "Delhi", 5)
		assert.ErrorIs(t, err, types.ErrProviderUnavailable)
	})
}

func TestReverseCountry(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/reverse", r.URL.Path)
			_, _ = w.Write([]byte(`{"place_id": 9, "lat": "26.9", "lon": "75.8", "display_name": "Jaipur", "address": {"country_code": "IN"}}`))
		})

		cc, err := svc.ReverseCountry(ctx, 26.9, 75.8)
		require.NoError(t, err)
		assert.Equal(t, "in", cc)
	})

	t.Run("ProviderError", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := svc.ReverseCountry(ctx, 26.9, 75.8)
		assert.ErrorIs(t, err, types.ErrProviderUnavailable)
	})
}
