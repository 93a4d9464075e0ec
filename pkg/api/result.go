package api

// TurnStatus tags the overall result of one Advance call.
type TurnStatus string

const (
	// TurnPaused means the pipeline is waiting on a human answer.
	TurnPaused TurnStatus = "PAUSED"
	// TurnDone means the graph reached its terminal step.
	TurnDone TurnStatus = "DONE"
)

// TurnResult is what one Advance call hands back to the caller: either a
// clarification question or a completed itinerary with its cost summary.
// Hard failures (checkpoint I/O) travel on the error channel instead.
type TurnResult struct {
	Status TurnStatus

	// Question is set when Status == TurnPaused, together with the step
	// that asked it.
	Question     string
	AwaitingStep string

	// Itinerary and Costs are set when Status == TurnDone.
	Itinerary string
	Costs     []CostLine
}
