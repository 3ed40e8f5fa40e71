package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (g *stubGenerator) GeneratePlan(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.response, g.err
}

func testRequest(days int) types.PlanTripRequest {
	return types.PlanTripRequest{
		OriginCity:      "Delhi",
		DestinationCity: "Jaipur",
		NumDays:         days,
		NumPeople:       2,
	}
}

func testAttractions(n int) []types.Attraction {
	out := make([]types.Attraction, n)
	for i := range out {
		out[i] = types.Attraction{PlaceID: fmt.Sprintf("otm-%d", i), Name: fmt.Sprintf("Attraction %d", i+1)}
	}
	return out
}

func newTestService(gen PlanGenerator) *ServiceImpl {
	metrics.InitAppMetrics()
	return NewServiceImpl(gen, slog.Default())
}

func TestComposeWithGeneratedPlan(t *testing.T) {
	gen := &stubGenerator{response: `{
		"summary": "Two relaxed days in the Pink City.",
		"days": [
			{"day": 1, "items": ["Visit Hawa Mahal", "Dinner near the old city"]},
			{"day": 2, "items": ["Amber Fort in the morning"]}
		]
	}`}
	svc := newTestService(gen)

	got := svc.Compose(context.Background(), ComposeInput{
		Request:     testRequest(2),
		Attractions: testAttractions(4),
	})

	assert.False(t, got.UsedFallback)
	assert.Equal(t, "Two relaxed days in the Pink City.", got.Summary)
	require.Len(t, got.DailyPlan, 2)
	assert.Equal(t, 1, got.DailyPlan[0].Day)
	assert.Equal(t, []string{"Amber Fort in the morning"}, got.DailyPlan[1].Items)
}

func TestComposeToleratesCodeFences(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + `{
		"summary": "One day sprint.",
		"days": [{"day": 1, "items": ["See everything"]}]
	}` + "\n```"}
	svc := newTestService(gen)

	got := svc.Compose(context.Background(), ComposeInput{Request: testRequest(1)})

	assert.False(t, got.UsedFallback)
	assert.Equal(t, "One day sprint.", got.Summary)
}

func TestComposeFallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"generator error", &stubGenerator{err: fmt.Errorf("model unavailable")}},
		{"invalid json", &stubGenerator{response: "Sure! Here is your trip plan: Day 1..."}},
		{"wrong day count", &stubGenerator{response: `{"summary":"s","days":[{"day":1,"items":["x"]}]}`}},
		{"duplicate day", &stubGenerator{response: `{"summary":"s","days":[{"day":1,"items":["x"]},{"day":1,"items":["y"]}]}`}},
		{"empty items", &stubGenerator{response: `{"summary":"s","days":[{"day":1,"items":["x"]},{"day":2,"items":[]}]}`}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(tc.gen)

			got := svc.Compose(context.Background(), ComposeInput{
				Request:     testRequest(2),
				Attractions: testAttractions(3),
			})

			assert.True(t, got.UsedFallback)
			assert.NotEmpty(t, got.Summary)
			require.Len(t, got.DailyPlan, 2)
			for i, day := range got.DailyPlan {
				assert.Equal(t, i+1, day.Day)
				assert.NotEmpty(t, day.Items)
			}
		})
	}
}

func TestTemplatePlanShape(t *testing.T) {
	t.Run("exact day count even with no attractions", func(t *testing.T) {
		_, days := templatePlan(testRequest(5), nil)
		require.Len(t, days, 5)
		for _, d := range days {
			assert.NotEmpty(t, d.Items)
		}
	})

	t.Run("food recommendations appear when requested", func(t *testing.T) {
		req := testRequest(2)
		req.IncludeFoodRecos = true
		_, days := templatePlan(req, testAttractions(2))

		for _, d := range days {
			found := false
			for _, item := range d.Items {
				if strings.HasPrefix(item, "Food:") {
					found = true
				}
			}
			assert.True(t, found, "day %d should carry a food suggestion", d.Day)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		s1, d1 := templatePlan(testRequest(3), testAttractions(4))
		s2, d2 := templatePlan(testRequest(3), testAttractions(4))
		assert.Equal(t, s1, s2)
		assert.Equal(t, d1, d2)
	})
}

func TestBuildPromptCapsCandidates(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("capture only")}
	svc := newTestService(gen)

	hotels := make([]types.Hotel, 10)
	for i := range hotels {
		hotels[i] = types.Hotel{Name: fmt.Sprintf("Hotel %d", i+1)}
	}

	svc.Compose(context.Background(), ComposeInput{
		Request:     testRequest(2),
		Attractions: testAttractions(12),
		Hotels:      types.HotelsSection{Hotels: hotels},
	})

	assert.Contains(t, gen.prompt, "Attraction 8")
	assert.NotContains(t, gen.prompt, "Attraction 9")
	assert.Contains(t, gen.prompt, "Hotel 6")
	assert.NotContains(t, gen.prompt, "Hotel 7")
	assert.Contains(t, gen.prompt, "exactly 2 entries")
}

func TestAssignHotels(t *testing.T) {
	hotels := []types.Hotel{
		{PlaceID: "a", Name: "Alpha", City: "Jaipur"},
		{PlaceID: "b", Name: "Beta", City: "Jaipur"},
	}
	section := types.HotelsSection{Hotels: hotels}

	got := assignHotels(section, 5)

	assert.Equal(t, 2, got.Count)
	require.Len(t, got.HotelsByDay, 5)
	// Two hotels over five days cycle a-b-a-b-a.
	assert.Equal(t, "Alpha", got.HotelsByDay[1][0].Name)
	assert.Equal(t, "Beta", got.HotelsByDay[2][0].Name)
	assert.Equal(t, "Alpha", got.HotelsByDay[3][0].Name)
	assert.Equal(t, "Alpha", got.HotelsByDay[5][0].Name)

	require.Contains(t, got.HotelsByCity, "Jaipur")
	assert.Len(t, got.HotelsByCity["Jaipur"], 2)

	t.Run("empty input leaves maps nil", func(t *testing.T) {
		empty := assignHotels(types.HotelsSection{}, 3)
		assert.Zero(t, empty.Count)
		assert.Nil(t, empty.HotelsByDay)
	})
}

func TestAttachArrivalDetails(t *testing.T) {
	ground := &types.GroundTransport{
		AirportName: "Jaipur International Airport",
		Primary: &types.RouteEstimate{
			Mode:            types.ModeTaxi,
			Description:     "Private taxi or car",
			DistanceKm:      12.5,
			DurationMinutes: 35,
		},
	}

	t.Run("prepended when a ground leg exists", func(t *testing.T) {
		days := []types.DayPlan{{Day: 1, Items: []string{"Visit fort"}}}

		attachArrivalDetails(days, ComposeInput{Request: testRequest(1), Ground: ground})

		require.Len(t, days[0].Items, 2)
		assert.Contains(t, days[0].Items[0], "Jaipur International Airport")
		assert.Contains(t, days[0].Items[0], "35 min")
		assert.Contains(t, days[0].Items[0], "private taxi or car")
	})

	t.Run("skipped without ground transport", func(t *testing.T) {
		days := []types.DayPlan{{Day: 1, Items: []string{"Visit fort"}}}
		attachArrivalDetails(days, ComposeInput{Request: testRequest(1)})
		assert.Len(t, days[0].Items, 1)
	})

	t.Run("skipped without a primary mode", func(t *testing.T) {
		days := []types.DayPlan{{Day: 1, Items: []string{"Visit fort"}}}
		attachArrivalDetails(days, ComposeInput{Request: testRequest(1), Ground: &types.GroundTransport{AirportName: "X"}})
		assert.Len(t, days[0].Items, 1)
	})
}
