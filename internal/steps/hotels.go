package steps

import (
	"context"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

const maxHotelResults = 10

// HotelSearch searches hotels at the resolved destination for the stay's
// night count, selects one offer, and decrements the budget by the
// converted nightly-total cost.
func HotelSearch(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Hotels != nil && st.Hotels.Selected != nil && st.AwaitingStep != StepHotelSearch {
		return api.Continue(), nil
	}
	if st.Plan == nil || st.Codes == nil {
		st.RequestInput(StepHotelSearch,
			"I don't have resolved trip details yet. Where are you staying, and on which dates?")
		return api.Pause(), nil
	}

	adults := 1
	if st.Passengers != nil {
		adults = st.Passengers.Adults
	}
	nights := st.Plan.Nights()

	options, err := rt.Hotels.SearchHotels(ctx, api.HotelCriteria{
		CityCode:     st.Codes.Destination,
		CheckInDate:  st.Plan.DepartureDate,
		CheckOutDate: st.Plan.ArrivalDate,
		Adults:       adults,
		MaxResults:   maxHotelResults,
	})
	if err != nil {
		return api.Outcome{}, fmt.Errorf("hotel search in %s: %w", st.Codes.Destination, err)
	}

	if len(options) == 0 {
		st.RequestInput(StepHotelSearch,
			fmt.Sprintf("I couldn't find any hotels in %s for %s to %s. Would you like different dates, or should I skip the hotel?",
				st.Codes.Destination, st.Plan.DepartureDate, st.Plan.ArrivalDate))
		return api.Pause(), nil
	}

	viable := make([]int, 0, len(options))
	totals := make([]float64, len(options))
	fallback := make([]bool, len(options))
	for i, opt := range options {
		conv := rt.FX.Convert(ctx, opt.PricePerNight*float64(nights), opt.Currency, st.Plan.BudgetCurrency)
		totals[i] = conv.Result
		fallback[i] = conv.Fallback
		if conv.Result > st.Plan.RemainingBudget {
			continue
		}
		viable = append(viable, i)
	}

	if len(viable) == 0 {
		st.RequestInput(StepHotelSearch,
			fmt.Sprintf("Every hotel for your %d-night stay exceeds the remaining budget of %.2f %s. Would you like to adjust the budget or the dates?",
				nights, st.Plan.RemainingBudget, st.Plan.BudgetCurrency))
		return api.Pause(), nil
	}

	selected := rankHotels(ctx, rt, st, options, viable, totals, nights)

	line := api.CostLine{
		Category:     "hotel",
		Amount:       options[selected].PricePerNight * float64(nights),
		FromCurrency: options[selected].Currency,
		Converted:    totals[selected],
		Currency:     st.Plan.BudgetCurrency,
		FallbackRate: fallback[selected],
	}
	if err := st.CommitCost(line); err != nil {
		return api.Outcome{}, err
	}
	if err := st.SetHotelResults(&api.HotelResults{Options: options, Selected: &selected}); err != nil {
		return api.Outcome{}, err
	}
	st.ClearPending()
	return api.Continue(), nil
}

func rankHotels(ctx context.Context, rt *api.Runtime, st *api.TripState, options []api.HotelOption, viable []int, totals []float64, nights int) int {
	shortlist := make([]api.HotelOption, len(viable))
	for i, idx := range viable {
		shortlist[i] = options[idx]
	}

	raw, err := rt.LLM.Complete(ctx, hotelRankPrompt(st, shortlist, nights))
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
		if totals[idx] < totals[cheapest] {
			cheapest = idx
		}
	}
	return cheapest
}
