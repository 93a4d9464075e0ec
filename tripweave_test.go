package tripweave

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mpetrin/tripweave/internal/providers"
)

func parisScript() *providers.ScriptedLLM {
	return providers.NewScriptedLLM(
		`{"destination": "Paris", "origin": "New York", "departure_date": "2026-10-01",
		  "arrival_date": "2026-10-08", "budget": 3000, "budget_currency": "USD",
		  "interests": "museums", "need_hotel": true, "need_activities": true}`,
		`{"adults": 2, "children": 0, "infants": 0, "travel_class": "ECONOMY", "confidence": "high"}`,
		`{"selected_index": 0, "reasoning": "nonstop evening departure"}`,
		`{"selected_index": 0, "reasoning": "central and well rated"}`,
		"Day 1: arrive at CDG.\nDay 2: Louvre Museum.\nDay 8: fly home.",
		"APPROVE",
	)
}

func TestInMemoryPlannerAgainstFixtureCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := providers.NewCatalog()
	require.NoError(t, err)

	llm := parisScript()
	planner, err := NewInMemoryPlanner(catalog.Collaborators(llm))
	require.NoError(t, err)

	res, err := planner.Advance(context.Background(), "trip-1",
		"A week in Paris from New York, October 1st to 8th 2026, 3000 USD, two of us. We love museums.", nil)
	require.NoError(t, err)
	require.Equal(t, TurnDone, res.Status)
	require.Contains(t, res.Itinerary, "Louvre")
	require.Len(t, res.Costs, 3)
	require.Zero(t, llm.Remaining())

	st, err := planner.GetState(context.Background(), "trip-1")
	require.NoError(t, err)
	// Flight 780 USD, hotel 145 EUR x 7 nights at 1.09, Louvre 22 EUR.
	require.InDelta(t, 3000-780-1106.35-23.98, st.Plan.RemainingBudget, 1e-6)
}

func TestSQLitePlannerPersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", "file:facade_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	catalog, err := providers.NewCatalog()
	require.NoError(t, err)
	llm := parisScript()

	planner, err := NewSQLitePlanner(db, catalog.Collaborators(llm))
	require.NoError(t, err)

	res, err := planner.Advance(context.Background(), "trip-1",
		"A week in Paris from New York, October 1st to 8th 2026, 3000 USD, two of us.", nil)
	require.NoError(t, err)
	require.Equal(t, TurnDone, res.Status)

	// A second planner over the same database sees the conversation.
	reopened, err := NewSQLitePlanner(db, catalog.Collaborators(providers.NewScriptedLLM()))
	require.NoError(t, err)

	st, err := reopened.GetState(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Equal(t, "Paris", st.Plan.Destination)
	require.False(t, st.Paused())
}

func TestWithRevisionCapOption(t *testing.T) {
	t.Parallel()

	catalog, err := providers.NewCatalog()
	require.NoError(t, err)

	llm := providers.NewScriptedLLM(
		`{"destination": "Paris", "origin": "New York", "departure_date": "2026-10-01",
		  "arrival_date": "2026-10-08", "budget": 3000, "budget_currency": "USD",
		  "interests": "", "need_hotel": false, "need_activities": false}`,
		`{"adults": 1, "children": 0, "infants": 0, "travel_class": "ECONOMY", "confidence": "high"}`,
		`{"selected_index": 0, "reasoning": "fine"}`,
		"draft one", "REJECT: vague",
		"draft two", "REJECT: vague",
	)

	planner, err := NewInMemoryPlanner(catalog.Collaborators(llm), WithRevisionCap(1))
	require.NoError(t, err)

	res, err := planner.Advance(context.Background(), "trip-1",
		"Paris, Oct 1-8 2026, 3000 USD, just flights.", nil)
	require.NoError(t, err)
	require.Equal(t, TurnDone, res.Status)
	require.Equal(t, "draft two", res.Itinerary)
	require.Zero(t, llm.Remaining())
}
