package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/mpetrin/tripweave/pkg/api"
)

const maxFlightResults = 10

type selection struct {
	SelectedIndex *int   `json:"selected_index"`
	Reasoning     string `json:"reasoning"`
}

// FlightSearch searches flights bounded by the remaining budget, filters
// out over-budget and red-flag itineraries, selects one option, converts
// its price into the budget currency, and decrements the remaining budget.
func FlightSearch(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Flights != nil && st.Flights.Selected != nil && st.AwaitingStep != StepFlightSearch {
		return api.Continue(), nil
	}
	if st.Plan == nil || st.Codes == nil {
		st.RequestInput(StepFlightSearch,
			"I don't have resolved trip details yet. Where are you flying from and to, and on which dates?")
		return api.Pause(), nil
	}

	adults := 1
	class := api.ClassEconomy
	if st.Passengers != nil {
		adults = st.Passengers.Adults
		class = st.Passengers.TravelClass
	}

	options, err := rt.Flights.SearchFlights(ctx, api.FlightCriteria{
		Origin:        st.Codes.Origin,
		Destination:   st.Codes.Destination,
		DepartureDate: st.Plan.DepartureDate,
		ReturnDate:    st.Plan.ArrivalDate,
		Adults:        adults,
		TravelClass:   class,
		MaxResults:    maxFlightResults,
	})
	if err != nil {
		return api.Outcome{}, fmt.Errorf("flight search %s-%s: %w", st.Codes.Origin, st.Codes.Destination, err)
	}

	if len(options) == 0 {
		st.RequestInput(StepFlightSearch,
			fmt.Sprintf("I couldn't find any flights from %s to %s between %s and %s. Would you like to adjust the dates, the origin, or the budget?",
				st.Codes.Origin, st.Codes.Destination, st.Plan.DepartureDate, st.Plan.ArrivalDate))
		return api.Pause(), nil
	}

	// Deterministic pre-filter before any model ranking: drop options the
	// budget cannot cover and red-flag itineraries.
	viable := make([]int, 0, len(options))
	converted := make([]float64, len(options))
	fallback := make([]bool, len(options))
	for i, opt := range options {
		conv := rt.FX.Convert(ctx, opt.Price, opt.Currency, st.Plan.BudgetCurrency)
		converted[i] = conv.Result
		fallback[i] = conv.Fallback
		if conv.Result > st.Plan.RemainingBudget {
			continue
		}
		if redFlagged(opt) {
			continue
		}
		viable = append(viable, i)
	}

	if len(viable) == 0 {
		st.RequestInput(StepFlightSearch,
			fmt.Sprintf("Every workable flight exceeds your remaining budget of %.2f %s or has an unreasonable itinerary. Would you like to adjust the dates, the origin, or the budget?",
				st.Plan.RemainingBudget, st.Plan.BudgetCurrency))
		return api.Pause(), nil
	}

	selected := rankFlights(ctx, rt, st, options, viable, converted)

	line := api.CostLine{
		Category:     "flight",
		Amount:       options[selected].Price,
		FromCurrency: options[selected].Currency,
		Converted:    converted[selected],
		Currency:     st.Plan.BudgetCurrency,
		FallbackRate: fallback[selected],
	}
	if err := st.CommitCost(line); err != nil {
		return api.Outcome{}, err
	}
	if err := st.SetFlightResults(&api.FlightResults{Options: options, Selected: &selected}); err != nil {
		return api.Outcome{}, err
	}
	st.ClearPending()
	return api.Continue(), nil
}

// rankFlights asks the model to pick among the viable candidates, with
// cheapest-under-budget as the deterministic fallback whenever the model's
// answer is unusable.
func rankFlights(ctx context.Context, rt *api.Runtime, st *api.TripState, options []api.FlightOption, viable []int, converted []float64) int {
	shortlist := make([]api.FlightOption, len(viable))
	for i, idx := range viable {
		shortlist[i] = options[idx]
	}

	raw, err := rt.LLM.Complete(ctx, flightRankPrompt(st, shortlist))
	if err == nil {
		var sel selection
		if extractInto(raw, &sel) == nil && sel.SelectedIndex != nil {
			if i := *sel.SelectedIndex; i >= 0 && i < len(viable) {
				return viable[i]
			}
		}
	}

	cheapest := viable[0]
	for _, idx := range viable[1:] {
		if converted[idx] < converted[cheapest] {
			cheapest = idx
		}
	}
	return cheapest
}

const (
	maxLayover   = 8 * time.Hour
	redEyeCutoff = 5 // hours; departures/arrivals in [00:00, 05:00) are red-flagged
)

// redFlagged reports whether an itinerary has an excessive layover or an
// overnight departure or arrival.
func redFlagged(opt api.FlightOption) bool {
	for i, seg := range opt.Segments {
		dep, errD := time.Parse(time.RFC3339, seg.DepartureTime)
		arr, errA := time.Parse(time.RFC3339, seg.ArrivalTime)
		if errD != nil || errA != nil {
			continue // unparseable times are not grounds for exclusion
		}
		if dep.Hour() < redEyeCutoff || arr.Hour() < redEyeCutoff {
			return true
		}
		if i+1 < len(opt.Segments) {
			next, err := time.Parse(time.RFC3339, opt.Segments[i+1].DepartureTime)
			if err == nil && next.Sub(arr) > maxLayover {
				return true
			}
		}
	}
	return false
}
