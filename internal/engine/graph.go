package engine

import (
	"github.com/mpetrin/tripweave/internal/steps"
	"github.com/mpetrin/tripweave/pkg/api"
)

// buildTripGraph assembles the static step table. Edges are declared here
// and validated once at engine construction; routers can only pick
// successors from their declared allow-list.
func buildTripGraph(revisionCap int) api.Graph {
	return api.Graph{
		Root: steps.StepPlan,
		Nodes: map[string]api.Node{
			steps.StepPlan: {
				Fn:   api.Step{Name: steps.StepPlan, Run: steps.Plan},
				Next: steps.StepLocations,
			},
			steps.StepLocations: {
				Fn:   api.Step{Name: steps.StepLocations, Run: steps.Locations},
				Next: steps.StepPassengers,
			},
			steps.StepPassengers: {
				Fn:   api.Step{Name: steps.StepPassengers, Run: steps.Passengers},
				Next: steps.StepFlightSearch,
			},
			steps.StepFlightSearch: {
				Fn:          api.Step{Name: steps.StepFlightSearch, Run: steps.FlightSearch},
				Route:       routeAfterFlight,
				AllowedNext: []string{steps.StepHotelSearch, steps.StepActivitySearch, steps.StepDraft},
			},
			steps.StepHotelSearch: {
				Fn:          api.Step{Name: steps.StepHotelSearch, Run: steps.HotelSearch},
				Route:       routeAfterHotel,
				AllowedNext: []string{steps.StepActivitySearch, steps.StepDraft},
			},
			steps.StepActivitySearch: {
				Fn:   api.Step{Name: steps.StepActivitySearch, Run: steps.ActivitySearch},
				Next: steps.StepDraft,
			},
			steps.StepDraft: {
				Fn:   api.Step{Name: steps.StepDraft, Run: steps.Draft},
				Next: steps.StepCritique,
			},
			steps.StepCritique: {
				Fn:          api.Step{Name: steps.StepCritique, Run: steps.Critique},
				Route:       routeAfterCritique(revisionCap),
				AllowedNext: []string{steps.StepDraft, ""},
			},
			steps.StepExplainFailure: {
				Fn: api.Step{Name: steps.StepExplainFailure, Run: steps.ExplainFailure},
				// Terminal by default edge; the step always pauses.
			},
		},
	}
}

// routeAfterFlight branches to the hotel step, the activity step, or
// drafting. A pending pause always wins: no category step may run while a
// question is outstanding.
func routeAfterFlight(st *api.TripState) string {
	if st.Paused() || st.Plan == nil {
		return steps.StepDraft
	}
	if st.Plan.NeedHotel {
		return steps.StepHotelSearch
	}
	if st.Plan.NeedActivities {
		return steps.StepActivitySearch
	}
	return steps.StepDraft
}

// routeAfterHotel branches to the activity step or drafting.
func routeAfterHotel(st *api.TripState) string {
	if st.Paused() || st.Plan == nil {
		return steps.StepDraft
	}
	if st.Plan.NeedActivities {
		return steps.StepActivitySearch
	}
	return steps.StepDraft
}

// routeAfterCritique implements the redraft transition: accepted ends
// the turn; rejected loops back to drafting until the revision cap, after
// which the best draft is accepted regardless of the verdict.
func routeAfterCritique(cap int) api.RouterFunc {
	return func(st *api.TripState) string {
		if st.Critique == "" || st.Critique == "accepted" {
			return ""
		}
		if st.RevisionCount <= cap {
			return steps.StepDraft
		}
		return ""
	}
}
