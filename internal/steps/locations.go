package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpetrin/tripweave/pkg/api"
)

// Locations resolves the plan's free-text origin and destination into
// three-letter codes. Resolution failure pauses with a question specific
// to the failing side; it never silently substitutes a default.
func Locations(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Codes != nil && st.AwaitingStep != StepLocations {
		return api.Continue(), nil
	}
	if st.Plan == nil {
		st.RequestInput(StepLocations,
			"I need the trip details before I can look up city codes. Where are you travelling from and to?")
		return api.Pause(), nil
	}

	originCode, ok, err := resolveCode(ctx, rt, st.Plan.Origin)
	if err != nil {
		return api.Outcome{}, fmt.Errorf("resolve origin %q: %w", st.Plan.Origin, err)
	}
	if !ok {
		st.RequestInput(StepLocations,
			fmt.Sprintf("I couldn't find a city code for your departure location %q. Could you give a clearer city name or an airport code?", st.Plan.Origin))
		return api.Pause(), nil
	}

	destCode, ok, err := resolveCode(ctx, rt, st.Plan.Destination)
	if err != nil {
		return api.Outcome{}, fmt.Errorf("resolve destination %q: %w", st.Plan.Destination, err)
	}
	if !ok {
		st.RequestInput(StepLocations,
			fmt.Sprintf("I couldn't find a city code for your destination %q. Could you give a clearer city name or an airport code?", st.Plan.Destination))
		return api.Pause(), nil
	}

	st.Codes = &api.ResolvedCodes{Origin: originCode, Destination: destCode}
	st.ClearPending()
	return api.Continue(), nil
}

// resolveCode looks a place up and picks the best-matching code. A single
// candidate is used directly; several candidates go through the model,
// falling back to the first candidate when the model's answer is not a
// plausible code.
func resolveCode(ctx context.Context, rt *api.Runtime, name string) (string, bool, error) {
	keyword := strings.TrimSpace(strings.SplitN(name, ",", 2)[0])
	if keyword == "" {
		return "", false, nil
	}

	matches, err := rt.Locations.SearchLocations(ctx, keyword)
	if err != nil {
		return "", false, err
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	if len(matches) == 1 {
		return matches[0].Code, true, nil
	}

	raw, err := rt.LLM.Complete(ctx, locationPrompt(name, matches))
	if err != nil {
		return "", false, err
	}
	code := strings.ToUpper(strings.TrimSpace(raw))
	if isCode(code) {
		for _, m := range matches {
			if m.Code == code {
				return code, true, nil
			}
		}
	}
	return matches[0].Code, true, nil
}

func isCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
