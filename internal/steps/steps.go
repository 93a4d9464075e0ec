// Package steps implements the trip-planning pipeline steps: plan
// extraction, location resolution, passenger extraction, the three search
// and selection steps, the draft/critique pair, and the failure explainer.
//
// Every step follows the same contract: read and mutate the shared trip
// state, call external collaborators through the turn runtime, and return
// a tagged outcome. Expected conditions (missing data, empty results) are
// outcomes; only unexpected failures use the error channel, and the engine
// downgrades those to a pause at its boundary.
package steps

// Step names. The engine's graph and the awaiting_step field both use
// these; an awaiting_step recorded in a checkpoint must match the name the
// step registers under, or resume would restart the pipeline instead of
// re-entering the step that asked the question.
const (
	StepPlan           = "plan_extraction"
	StepLocations      = "location_resolution"
	StepPassengers     = "passenger_extraction"
	StepFlightSearch   = "flight_search"
	StepHotelSearch    = "hotel_search"
	StepActivitySearch = "activity_search"
	StepDraft          = "draft"
	StepCritique       = "critique"
	StepExplainFailure = "explain_failure"
)
