package itinerary

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// PlanGenerator drafts the narrative plan from a prompt. The production
// implementation talks to Gemini; tests substitute a canned generator.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	ai *generativeAI.AIClient
}

// NewGeminiGenerator wraps an AI client as a PlanGenerator. A nil client is
// allowed and yields a generator that always errors, pushing composition onto
// the template fallback.
func NewGeminiGenerator(ai *generativeAI.AIClient) PlanGenerator {
	return &geminiGenerator{ai: ai}
}

func (g *geminiGenerator) GeneratePlan(ctx context.Context, prompt string) (string, error) {
	if g.ai == nil {
		return "", fmt.Errorf("generative model not configured")
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.4),
		ResponseMIMEType: "application/json",
	}
	return g.ai.GenerateContent(ctx, prompt, config)
}

const (
	maxPromptAttractions = 8
	maxPromptHotels      = 6
)

// buildPrompt renders the planning request and discovered places into the
// instruction sent to the model. Candidate lists are capped so the prompt
// stays small regardless of how much discovery returned.
func buildPrompt(req types.PlanTripRequest, attractions []types.Attraction, hotels []types.Hotel) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a travel planner. Create a %d-day itinerary for %d people visiting %s from %s.\n",
		req.NumDays, req.NumPeople, req.DestinationCity, req.OriginCity)
	if req.BudgetAmount != nil {
		fmt.Fprintf(&b, "Total budget: %.0f %s.\n", *req.BudgetAmount, req.BudgetCurrency)
	}
	if req.IncludeFoodRecos {
		b.WriteString("Include one local food or restaurant suggestion per day.\n")
	}
	if req.IncludeCommuteTimes {
		b.WriteString("Mention the approximate commute time between consecutive stops.\n")
	}

	b.WriteString("\nAttractions to draw from:\n")
	for i, a := range attractions {
		if i >= maxPromptAttractions {
			break
		}
		line := a.Name
		if a.Description != "" {
			line += " (" + truncate(a.Description, 120) + ")"
		}
		fmt.Fprintf(&b, "- %s\n", line)
	}

	if len(hotels) > 0 {
		b.WriteString("\nHotel options nearby:\n")
		for i, h := range hotels {
			if i >= maxPromptHotels {
				break
			}
			fmt.Fprintf(&b, "- %s\n", h.Name)
		}
	}

	fmt.Fprintf(&b, "\nRespond with JSON only, no prose around it, in this exact shape:\n"+
		`{"summary": "<2-3 sentence trip summary>", "days": [{"day": 1, "items": ["<activity>", ...]}]}`+
		"\nThe days array must contain exactly %d entries, numbered 1 through %d, each with at least one item.\n",
		req.NumDays, req.NumDays)

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
