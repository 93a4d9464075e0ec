package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpetrin/tripweave/pkg/api"
)

// planExtraction mirrors the JSON schema the model is asked to produce.
// Pointer fields distinguish "absent" from zero values so the pause
// question can name exactly what is missing.
type planExtraction struct {
	Destination    *string  `json:"destination"`
	Origin         *string  `json:"origin"`
	DepartureDate  *string  `json:"departure_date"`
	ArrivalDate    *string  `json:"arrival_date"`
	Budget         *float64 `json:"budget"`
	BudgetCurrency *string  `json:"budget_currency"`
	Interests      string   `json:"interests"`
	NeedHotel      *bool    `json:"need_hotel"`
	NeedActivities *bool    `json:"need_activities"`
}

const defaultOrigin = "New York"

// Plan parses the conversation into a structured trip plan. Ambiguous or
// missing destination, dates, or budget pause the pipeline with a question
// naming exactly the missing fields.
func Plan(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Plan != nil && st.AwaitingStep != StepPlan {
		return api.Continue(), nil
	}

	raw, err := rt.LLM.Complete(ctx, planPrompt(st, rt.Now()))
	if err != nil {
		return api.Outcome{}, fmt.Errorf("plan extraction: %w", err)
	}

	var ext planExtraction
	if err := extractInto(raw, &ext); err != nil {
		st.RequestInput(StepPlan,
			"I couldn't work out the trip details. Where would you like to go, on which dates, and with what budget?")
		return api.Pause(), nil
	}

	var missing []string
	if ext.Destination == nil || strings.TrimSpace(*ext.Destination) == "" {
		missing = append(missing, "destination")
	}
	if ext.DepartureDate == nil || *ext.DepartureDate == "" {
		missing = append(missing, "departure date")
	}
	if ext.ArrivalDate == nil || *ext.ArrivalDate == "" {
		missing = append(missing, "arrival date")
	}
	if ext.Budget == nil || *ext.Budget <= 0 {
		missing = append(missing, "budget")
	}
	if len(missing) > 0 {
		st.RequestInput(StepPlan,
			fmt.Sprintf("I still need the following to plan your trip: %s. Could you provide them?",
				strings.Join(missing, ", ")))
		return api.Pause(), nil
	}

	origin := defaultOrigin
	if ext.Origin != nil && strings.TrimSpace(*ext.Origin) != "" {
		origin = *ext.Origin
	}
	cur := "USD"
	if ext.BudgetCurrency != nil && *ext.BudgetCurrency != "" {
		cur = strings.ToUpper(*ext.BudgetCurrency)
	}
	needHotel := true
	if ext.NeedHotel != nil {
		needHotel = *ext.NeedHotel
	}
	needActivities := true
	if ext.NeedActivities != nil {
		needActivities = *ext.NeedActivities
	}

	// A changed destination invalidates every search category; results
	// are never discarded implicitly otherwise.
	if st.Plan != nil && st.Plan.Destination != *ext.Destination {
		st.ResetSearches()
	}

	st.Plan = &api.Plan{
		Destination:     *ext.Destination,
		Origin:          origin,
		DepartureDate:   *ext.DepartureDate,
		ArrivalDate:     *ext.ArrivalDate,
		TotalBudget:     *ext.Budget,
		BudgetCurrency:  cur,
		RemainingBudget: *ext.Budget - committedTotal(st),
		Interests:       ext.Interests,
		NeedHotel:       needHotel,
		NeedActivities:  needActivities,
	}
	st.ClearPending()
	return api.Continue(), nil
}

// committedTotal re-applies already-committed cost lines so a re-parsed
// plan (same destination) does not resurrect spent budget.
func committedTotal(st *api.TripState) float64 {
	var total float64
	for _, c := range st.Costs {
		total += c.Converted
	}
	return total
}
