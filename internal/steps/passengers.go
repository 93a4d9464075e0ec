package steps

import (
	"context"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

type passengerExtraction struct {
	Adults      *int    `json:"adults"`
	Children    *int    `json:"children"`
	Infants     *int    `json:"infants"`
	TravelClass *string `json:"travel_class"`
	Confidence  string  `json:"confidence"`
}

const passengerQuestion = "How many people will be travelling? Please specify adults, children (2-11 years), and infants (under 2) if applicable."

// Passengers parses adult/child/infant counts and the travel class from
// the latest message. Low-confidence extraction is treated exactly like
// missing data, specifically to avoid booking for the wrong party size.
func Passengers(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Passengers != nil && st.AwaitingStep != StepPassengers {
		return api.Continue(), nil
	}

	raw, err := rt.LLM.Complete(ctx, passengerPrompt(st.LatestUserMessage()))
	if err != nil {
		return api.Outcome{}, fmt.Errorf("passenger extraction: %w", err)
	}

	var ext passengerExtraction
	if err := extractInto(raw, &ext); err != nil {
		st.RequestInput(StepPassengers, passengerQuestion)
		return api.Pause(), nil
	}

	if ext.Confidence == "low" || ext.Adults == nil || *ext.Adults < 1 {
		st.RequestInput(StepPassengers, passengerQuestion)
		return api.Pause(), nil
	}

	counts := &api.PassengerCounts{
		Adults:      *ext.Adults,
		TravelClass: api.ClassEconomy,
	}
	if ext.Children != nil && *ext.Children > 0 {
		counts.Children = *ext.Children
	}
	if ext.Infants != nil && *ext.Infants > 0 {
		counts.Infants = *ext.Infants
	}
	if ext.TravelClass != nil {
		switch api.TravelClass(*ext.TravelClass) {
		case api.ClassEconomy, api.ClassBusiness, api.ClassFirst:
			counts.TravelClass = api.TravelClass(*ext.TravelClass)
		default:
			// An unrecognised class is ambiguity, not a guess.
			st.RequestInput(StepPassengers,
				fmt.Sprintf("I didn't recognise the travel class %q. Economy, business, or first?", *ext.TravelClass))
			return api.Pause(), nil
		}
	}

	st.Passengers = counts
	st.ClearPending()
	return api.Continue(), nil
}
