package steps

import (
	"context"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

// Draft composes an itinerary from everything populated so far plus the
// running budget summary. It always runs when reached, even on a retry:
// critique feedback must be incorporated into a fresh draft, so there is
// no skip rule here.
func Draft(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	raw, err := rt.LLM.Complete(ctx, draftPrompt(st))
	if err != nil {
		return api.Outcome{}, fmt.Errorf("draft itinerary: %w", err)
	}
	if raw == "" {
		return api.Outcome{}, fmt.Errorf("draft itinerary: model returned empty output")
	}

	st.DraftItinerary = raw
	return api.Continue(), nil
}
