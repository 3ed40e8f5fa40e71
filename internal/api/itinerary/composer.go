package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// ComposeInput carries everything discovery and routing produced for one trip.
type ComposeInput struct {
	Request     types.PlanTripRequest
	Attractions []types.Attraction
	Hotels      types.HotelsSection
	Ground      *types.GroundTransport
	Train       *types.TrainEstimate
}

// Composition is the narrative half of an itinerary. UsedFallback reports
// whether the template produced the plan instead of the model.
type Composition struct {
	Summary      string
	DailyPlan    []types.DayPlan
	Hotels       types.HotelsSection
	UsedFallback bool
}

// Service turns discovered places into a day-by-day plan. Compose never
// fails outright on model errors; it degrades to a deterministic template.
type Service interface {
	Compose(ctx context.Context, input ComposeInput) *Composition
}

type ServiceImpl struct {
	logger    *slog.Logger
	generator PlanGenerator
}

func NewServiceImpl(generator PlanGenerator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, generator: generator}
}

func (s *ServiceImpl) Compose(ctx context.Context, input ComposeInput) *Composition {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Compose", trace.WithAttributes(
		attribute.String("trip.destination", input.Request.DestinationCity),
		attribute.Int("trip.days", input.Request.NumDays),
	))
	defer span.End()

	comp := &Composition{
		Hotels: assignHotels(input.Hotels, input.Request.NumDays),
	}

	prompt := buildPrompt(input.Request, input.Attractions, input.Hotels.Hotels)
	raw, err := s.generator.GeneratePlan(ctx, prompt)
	if err == nil {
		if summary, days, perr := parseGeneratedPlan(raw, input.Request.NumDays); perr == nil {
			comp.Summary = summary
			comp.DailyPlan = days
		} else {
			err = perr
		}
	}

	if err != nil {
		s.logger.WarnContext(ctx, "Plan generation failed, using template fallback",
			slog.String("destination", input.Request.DestinationCity), slog.Any("error", err))
		span.RecordError(err)
		metrics.Get().ComposeFallbacksTotal.Add(ctx, 1)

		comp.Summary, comp.DailyPlan = templatePlan(input.Request, input.Attractions)
		comp.UsedFallback = true
	}

	attachArrivalDetails(comp.DailyPlan, input)

	span.SetAttributes(attribute.Bool("compose.fallback", comp.UsedFallback))
	span.SetStatus(codes.Ok, "Itinerary composed")
	return comp
}

type generatedPlan struct {
	Summary string `json:"summary"`
	Days    []struct {
		Day   int      `json:"day"`
		Items []string `json:"items"`
	} `json:"days"`
}

// parseGeneratedPlan decodes the model output and checks the structural
// contract: exactly numDays entries numbered 1..N, each with items.
func parseGeneratedPlan(raw string, numDays int) (string, []types.DayPlan, error) {
	var plan generatedPlan
	if err := json.Unmarshal([]byte(extractJSON(raw)), &plan); err != nil {
		return "", nil, fmt.Errorf("decoding generated plan: %w", err)
	}
	if len(plan.Days) != numDays {
		return "", nil, fmt.Errorf("generated plan has %d days, want %d", len(plan.Days), numDays)
	}

	days := make([]types.DayPlan, 0, numDays)
	seen := make(map[int]bool, numDays)
	for _, d := range plan.Days {
		if d.Day < 1 || d.Day > numDays || seen[d.Day] {
			return "", nil, fmt.Errorf("generated plan has invalid day number %d", d.Day)
		}
		if len(d.Items) == 0 {
			return "", nil, fmt.Errorf("generated plan day %d has no items", d.Day)
		}
		seen[d.Day] = true
		days = append(days, types.DayPlan{Day: d.Day, Items: d.Items})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	summary := strings.TrimSpace(plan.Summary)
	if summary == "" {
		return "", nil, fmt.Errorf("generated plan has empty summary")
	}
	return summary, days, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its output and trims to the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// assignHotels groups candidates by city and spreads them cyclically across
// the trip's days so every day suggests somewhere to stay even when there are
// fewer hotels than days.
func assignHotels(section types.HotelsSection, numDays int) types.HotelsSection {
	out := section
	out.Count = len(section.Hotels)

	if len(section.Hotels) == 0 || numDays <= 0 {
		return out
	}

	byCity := make(map[string][]types.Hotel)
	for _, h := range section.Hotels {
		city := h.City
		if city == "" {
			city = "unknown"
		}
		byCity[city] = append(byCity[city], h)
	}
	out.HotelsByCity = byCity

	byDay := make(map[int][]types.Hotel, numDays)
	for day := 1; day <= numDays; day++ {
		h := section.Hotels[(day-1)%len(section.Hotels)]
		byDay[day] = []types.Hotel{h}
	}
	out.HotelsByDay = byDay
	return out
}

// attachArrivalDetails prepends the arrival leg to day 1 whenever a ground
// transport leg was resolved, naming the airport, mode, distance and duration.
func attachArrivalDetails(days []types.DayPlan, input ComposeInput) {
	if len(days) == 0 || input.Ground == nil {
		return
	}
	primary := input.Ground.Primary
	if primary == nil {
		return
	}
	item := fmt.Sprintf("Arrive via %s; %s to the city takes about %d min (%.0f km)",
		input.Ground.AirportName, strings.ToLower(primary.Description), primary.DurationMinutes, primary.DistanceKm)
	days[0].Items = append([]string{item}, days[0].Items...)
}
