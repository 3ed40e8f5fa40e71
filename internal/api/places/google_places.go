package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
)

var googlePlacesAttr = metric.WithAttributes(attribute.String("provider", "google_places"))

// googlePlacesClient enriches OSM hotel candidates with ratings data. The
// client is optional; a nil receiver is a no-op so callers never need to
// branch on whether the key is configured.
type googlePlacesClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newGooglePlacesClient(baseURL, apiKey string, timeout time.Duration) *googlePlacesClient {
	if apiKey == "" {
		return nil
	}
	return &googlePlacesClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type gpPlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
}

type gpNearbyResponse struct {
	Results []gpPlace `json:"results"`
}

type gpDetailsResponse struct {
	Result struct {
		FormattedPhoneNumber string   `json:"formatted_phone_number"`
		Website              string   `json:"website"`
		Rating               *float64 `json:"rating"`
		UserRatingsTotal     *int     `json:"user_ratings_total"`
	} `json:"result"`
}

type hotelEnrichment struct {
	Rating           *float64
	UserRatingsTotal *int
	PriceLevel       *int
	Phone            string
	URL              string
}

// enrich looks up rating data for a hotel by name and coordinate proximity.
// Any provider failure returns nil; enrichment is never fatal.
func (c *googlePlacesClient) enrich(ctx context.Context, name string, lat, lon float64) *hotelEnrichment {
	if c == nil {
		return nil
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("radius", "100")
	params.Set("type", "lodging")
	params.Set("keyword", name)
	params.Set("key", c.apiKey)

	var nearby gpNearbyResponse
	if err := c.get(ctx, "/nearbysearch/json", params, &nearby); err != nil || len(nearby.Results) == 0 {
		return nil
	}

	best := matchByName(name, nearby.Results)
	if best == nil {
		best = &nearby.Results[0]
	}

	enriched := &hotelEnrichment{
		Rating:           best.Rating,
		UserRatingsTotal: best.UserRatingsTotal,
		PriceLevel:       best.PriceLevel,
	}

	if best.PlaceID != "" {
		details := url.Values{}
		details.Set("place_id", best.PlaceID)
		details.Set("fields", "formatted_phone_number,website,rating,user_ratings_total")
		details.Set("key", c.apiKey)

		var d gpDetailsResponse
		if err := c.get(ctx, "/details/json", details, &d); err == nil {
			enriched.Phone = d.Result.FormattedPhoneNumber
			enriched.URL = d.Result.Website
			if d.Result.Rating != nil {
				enriched.Rating = d.Result.Rating
			}
			if d.Result.UserRatingsTotal != nil {
				enriched.UserRatingsTotal = d.Result.UserRatingsTotal
			}
		}
	}
	return enriched
}

// matchByName finds the first candidate whose name overlaps the hotel name,
// either by containment or by sharing a word longer than three characters.
func matchByName(name string, candidates []gpPlace) *gpPlace {
	nameLower := strings.ToLower(name)
	words := strings.Fields(nameLower)
	for i := range candidates {
		candLower := strings.ToLower(candidates[i].Name)
		if strings.Contains(candLower, nameLower) || strings.Contains(nameLower, candLower) {
			return &candidates[i]
		}
		for _, w := range words {
			if len(w) > 3 && strings.Contains(candLower, w) {
				return &candidates[i]
			}
		}
	}
	return nil
}

func (c *googlePlacesClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	metrics.Get().ProviderCallsTotal.Add(ctx, 1, googlePlacesAttr)
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, googlePlacesAttr)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, googlePlacesAttr)
		return fmt.Errorf("google places status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func parseStars(raw string) *float64 {
	if raw == "" {
		return nil
	}
	raw = strings.Trim(raw, `"'`)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
