package itinerary

import (
	"fmt"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// templatePlan builds a deterministic plan when the model is unavailable or
// returned something unusable. Attractions are dealt round-robin into
// morning and afternoon slots; evenings rotate through a fixed set of
// suggestions. The result always has exactly req.NumDays days.
func templatePlan(req types.PlanTripRequest, attractions []types.Attraction) (string, []types.DayPlan) {
	summary := fmt.Sprintf("A %d-day trip to %s for %d people, covering the city's main sights at a relaxed pace.",
		req.NumDays, req.DestinationCity, req.NumPeople)

	evenings := []string{
		"Evening: stroll through a local market and try street food",
		"Evening: dinner at a well-reviewed local restaurant",
		"Evening: sunset viewpoint or waterfront walk",
	}

	days := make([]types.DayPlan, 0, req.NumDays)
	next := 0
	for day := 1; day <= req.NumDays; day++ {
		var items []string

		if day == 1 {
			items = append(items, fmt.Sprintf("Check in and settle into your accommodation in %s", req.DestinationCity))
		}

		if next < len(attractions) {
			items = append(items, "Morning: visit "+attractions[next].Name)
			next++
		} else {
			items = append(items, "Morning: explore the neighbourhood around your hotel")
		}

		if next < len(attractions) {
			items = append(items, "Afternoon: visit "+attractions[next].Name)
			next++
		} else {
			items = append(items, "Afternoon: free time for shopping or a cafe break")
		}

		if req.IncludeFoodRecos {
			items = append(items, "Food: ask your hotel for the best regional speciality nearby")
		}
		items = append(items, evenings[(day-1)%len(evenings)])

		if day == req.NumDays {
			items = append(items, "Pack up and depart; keep buffer time for the trip to the station or airport")
		}

		days = append(days, types.DayPlan{Day: day, Items: items})
	}

	return summary, days
}
