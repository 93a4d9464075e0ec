package steps

import (
	"context"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

const maxActivityResults = 8

// ActivitySearch looks up activities at the destination. Activities are
// not budget-gated, but their summed, converted cost is still subtracted
// from the remaining budget so the itinerary's numbers add up.
func ActivitySearch(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Activities != nil && st.AwaitingStep != StepActivitySearch {
		return api.Continue(), nil
	}
	if st.Plan == nil || st.Codes == nil {
		st.RequestInput(StepActivitySearch,
			"I don't have resolved trip details yet. Where are you travelling, and what are you interested in?")
		return api.Pause(), nil
	}

	options, err := rt.Activities.SearchActivities(ctx, api.ActivityCriteria{
		CityCode:   st.Codes.Destination,
		Interests:  st.Plan.Interests,
		MaxResults: maxActivityResults,
	})
	if err != nil {
		return api.Outcome{}, fmt.Errorf("activity search in %s: %w", st.Codes.Destination, err)
	}

	if len(options) == 0 {
		st.RequestInput(StepActivitySearch,
			fmt.Sprintf("I couldn't find activities in %s matching %q. Different interests, or shall I plan without them?",
				st.Codes.Destination, st.Plan.Interests))
		return api.Pause(), nil
	}

	// One cost line per distinct source currency, so a fallback rate is
	// attributed to the currencies it actually affected.
	type bucket struct {
		amount   float64
		conv     float64
		fallback bool
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0, 2)
	for _, opt := range options {
		conv := rt.FX.Convert(ctx, opt.Price, opt.Currency, st.Plan.BudgetCurrency)
		b, ok := buckets[conv.From]
		if !ok {
			b = &bucket{}
			buckets[conv.From] = b
			order = append(order, conv.From)
		}
		b.amount += opt.Price
		b.conv += conv.Result
		b.fallback = b.fallback || conv.Fallback
	}
	for _, cur := range order {
		b := buckets[cur]
		if err := st.CommitCost(api.CostLine{
			Category:     "activities",
			Amount:       b.amount,
			FromCurrency: cur,
			Converted:    b.conv,
			Currency:     st.Plan.BudgetCurrency,
			FallbackRate: b.fallback,
		}); err != nil {
			return api.Outcome{}, err
		}
	}

	if err := st.SetActivityResults(&api.ActivityResults{Options: options}); err != nil {
		return api.Outcome{}, err
	}
	st.ClearPending()
	return api.Continue(), nil
}
