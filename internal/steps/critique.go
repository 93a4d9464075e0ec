package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpetrin/tripweave/pkg/api"
)

// Critique compares the draft against the plan's constraints and records
// "accepted" or "rejected: reason". The revision counter increments
// exactly once per invocation, including the one whose verdict triggers
// best-effort acceptance at the cap.
func Critique(ctx context.Context, rt *api.Runtime, st *api.TripState) (api.Outcome, error) {
	if st.Plan == nil || st.DraftItinerary == "" {
		// Nothing to judge; count the pass and accept.
		st.RevisionCount++
		st.Critique = "accepted"
		return api.Continue(), nil
	}

	raw, err := rt.LLM.Complete(ctx, critiquePrompt(st))
	if err != nil {
		return api.Outcome{}, fmt.Errorf("critique: %w", err)
	}

	st.RevisionCount++
	st.Critique = normalizeVerdict(raw)
	return api.Continue(), nil
}

// normalizeVerdict maps free-form model output onto the two canonical
// verdicts. Anything that does not clearly reject is an acceptance; a
// garbled verdict must not strand the conversation in the loop.
func normalizeVerdict(raw string) string {
	v := strings.TrimSpace(raw)
	upper := strings.ToUpper(v)
	if idx := strings.Index(upper, "REJECT"); idx >= 0 {
		reason := strings.TrimSpace(v[idx+len("REJECT"):])
		if len(reason) >= 2 && strings.EqualFold(reason[:2], "ed") &&
			(len(reason) == 2 || reason[2] == ':' || reason[2] == ' ') {
			reason = reason[2:] // REJECTED
		}
		reason = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(reason), ":"))
		if reason == "" {
			reason = "no reason given"
		}
		return "rejected: " + reason
	}
	return "accepted"
}
