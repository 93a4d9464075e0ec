package steps

import (
	"context"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

// ExplainFailure converts an unrecoverable step error into a pause with a
// clarifying question, attributed to the step that failed so the next
// message re-enters it. Every external failure becomes a human-recoverable
// state; a conversation is never hard-crashed by one.
func ExplainFailure(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	failed := st.LastFailedStep
	if failed == "" {
		failed = StepPlan
	}
	detail := st.LastError
	if detail == "" {
		detail = "an unexpected error"
	}

	question := fmt.Sprintf(
		"I ran into a problem while working on your trip (%s). Could you double-check the details you gave me, or tell me what to change?",
		detail)

	st.LastError = ""
	st.LastFailedStep = ""
	st.RequestInput(failed, question)
	return api.Pause(), nil
}
