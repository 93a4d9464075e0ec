package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpetrin/tripweave/pkg/api"
)

func activitiesRuntime(llm api.LLMClient, options ...api.ActivityOption) *api.Runtime {
	rt := testRuntime(llm)
	rt.Activities = fakeActivities{options: options}
	return rt
}

func TestActivitySearchBucketsCostsByCurrency(t *testing.T) {
	t.Parallel()

	rt := activitiesRuntime(scripted(),
		api.ActivityOption{Name: "Louvre", Price: 22, Currency: "EUR", Category: "museums"},
		api.ActivityOption{Name: "Cruise", Price: 89, Currency: "EUR", Category: "food"},
		api.ActivityOption{Name: "Day Trip", Price: 120, Currency: "USD", Category: "sightseeing"},
	)
	st := parisState()

	out, err := ActivitySearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind)
	require.Len(t, st.Activities.Options, 3)

	require.Len(t, st.Costs, 2, "one line per source currency")

	byFrom := map[string]api.CostLine{}
	for _, line := range st.Costs {
		require.Equal(t, "activities", line.Category)
		byFrom[line.FromCurrency] = line
	}
	require.Equal(t, 111.0, byFrom["EUR"].Amount)
	require.InDelta(t, 122.1, byFrom["EUR"].Converted, 1e-9)
	require.Equal(t, 120.0, byFrom["USD"].Amount)
	require.Equal(t, 120.0, byFrom["USD"].Converted)

	require.InDelta(t, 3000.0-122.1-120.0, st.Plan.RemainingBudget, 1e-9)
}

func TestActivitySearchIsNotBudgetGated(t *testing.T) {
	t.Parallel()

	rt := activitiesRuntime(scripted(),
		api.ActivityOption{Name: "Grand Tour", Price: 10000, Currency: "USD", Category: "luxury"},
	)
	st := parisState()

	out, err := ActivitySearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind, "activities never pause on cost")
	require.Negative(t, st.Plan.RemainingBudget, "the overrun is visible in the bookkeeping")
}

func TestActivitySearchFallbackRateIsAttributed(t *testing.T) {
	t.Parallel()

	// GBP has no rate table in the test runtime, so its bucket carries
	// the fallback flag while the EUR bucket stays clean.
	rt := activitiesRuntime(scripted(),
		api.ActivityOption{Name: "Museum", Price: 30, Currency: "EUR"},
		api.ActivityOption{Name: "Show", Price: 75, Currency: "GBP"},
	)
	st := parisState()

	out, err := ActivitySearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind)

	byFrom := map[string]api.CostLine{}
	for _, line := range st.Costs {
		byFrom[line.FromCurrency] = line
	}
	require.False(t, byFrom["EUR"].FallbackRate)
	require.True(t, byFrom["GBP"].FallbackRate)
	require.Equal(t, 75.0, byFrom["GBP"].Converted, "fallback is 1:1")
}

func TestActivitySearchEmptyResultsPause(t *testing.T) {
	t.Parallel()

	rt := activitiesRuntime(scripted())
	st := parisState()
	st.Plan.Interests = "underwater basket weaving"

	out, err := ActivitySearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomePause, out.Kind)
	require.Equal(t, StepActivitySearch, st.AwaitingStep)
	require.Contains(t, st.PendingQuestion, "underwater basket weaving")
}

func TestActivitySearchSkipsWhenPopulated(t *testing.T) {
	t.Parallel()

	rt := activitiesRuntime(scripted())
	st := parisState()
	require.NoError(t, st.SetActivityResults(&api.ActivityResults{
		Options: []api.ActivityOption{{Name: "Kept"}},
	}))

	out, err := ActivitySearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind)
	require.Len(t, st.Activities.Options, 1)
}
