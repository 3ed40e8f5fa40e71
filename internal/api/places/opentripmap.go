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

var openTripMapAttr = metric.WithAttributes(attribute.String("provider", "opentripmap"))

// openTripMapClient wraps the OpenTripMap places API used for attraction
// discovery. Responses are GeoJSON feature collections.
type openTripMapClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newOpenTripMapClient(baseURL, apiKey string, timeout time.Duration) *openTripMapClient {
	return &openTripMapClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type otmFeature struct {
	Properties struct {
		XID  string `json:"xid"`
		Name string `json:"name"`
		Rate int    `json:"rate"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
}

type otmRadiusResponse struct {
	Features []otmFeature `json:"features"`
}

type otmDetail struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	OTM          string `json:"otm"`
	Wikipedia    string `json:"wikipedia"`
	OpeningHours string `json:"opening_hours"`
	Info         struct {
		Descr        string `json:"descr"`
		OpeningHours string `json:"opening_hours"`
	} `json:"info"`
	WikipediaExtracts struct {
		Text string `json:"text"`
	} `json:"wikipedia_extracts"`
}

func (c *openTripMapClient) radiusSearch(ctx context.Context, lat, lon float64, radiusM, limit int) ([]otmFeature, error) {
	params := url.Values{}
	params.Set("radius", strconv.Itoa(radiusM))
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("rate", "2") // popularity filter
	params.Set("limit", strconv.Itoa(limit))
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/radius?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	metrics.Get().ProviderCallsTotal.Add(ctx, 1, openTripMapAttr)
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, openTripMapAttr)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, openTripMapAttr)
		return nil, fmt.Errorf("opentripmap status %d", resp.StatusCode)
	}

	var out otmRadiusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding radius response: %w", err)
	}
	return out.Features, nil
}

func (c *openTripMapClient) detail(ctx context.Context, xid string) (*otmDetail, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/xid/"+url.PathEscape(xid)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	metrics.Get().ProviderCallsTotal.Add(ctx, 1, openTripMapAttr)
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, openTripMapAttr)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1, openTripMapAttr)
		return nil, fmt.Errorf("opentripmap detail status %d", resp.StatusCode)
	}

	var out otmDetail
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding detail response: %w", err)
	}
	return &out, nil
}

// bestTimeGuess scans a wikipedia extract for month names and reports the
// first-to-last month range found, mirroring how travel copy usually phrases
// a visiting season.
func bestTimeGuess(text string) string {
	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	var found []string
	for _, m := range months {
		if strings.Contains(text, m) {
			found = append(found, m)
		}
	}
	switch {
	case len(found) == 0:
		return ""
	case len(found) == 1:
		return found[0]
	default:
		return found[0] + "-" + found[len(found)-1]
	}
}
