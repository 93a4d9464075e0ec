package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpetrin/tripweave/pkg/api"
)

func hotelsRuntime(llm api.LLMClient, options ...api.HotelOption) *api.Runtime {
	rt := testRuntime(llm)
	rt.Hotels = fakeHotels{options: options}
	return rt
}

func TestHotelSearchCommitsNightlyTotal(t *testing.T) {
	t.Parallel()

	llm := scripted(`{"selected_index": 0, "reasoning": "close to the centre"}`)
	rt := hotelsRuntime(llm, api.HotelOption{
		Name:          "Hotel du Marais",
		PricePerNight: 100,
		Currency:      "EUR",
		Rating:        4.2,
	})
	st := parisState() // 7 nights

	out, err := HotelSearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind)

	hotel, ok := st.SelectedHotel()
	require.True(t, ok)
	require.Equal(t, "Hotel du Marais", hotel.Name)

	require.Len(t, st.Costs, 1)
	require.Equal(t, "hotel", st.Costs[0].Category)
	require.Equal(t, 700.0, st.Costs[0].Amount, "7 nights at 100 per night")
	require.Equal(t, "EUR", st.Costs[0].FromCurrency)
	require.InDelta(t, 770.0, st.Costs[0].Converted, 1e-9)
	require.InDelta(t, 2230.0, st.Plan.RemainingBudget, 1e-9)
}

func TestHotelSearchBudgetGateUsesStayTotal(t *testing.T) {
	t.Parallel()

	// 450 per night looks affordable, but 7 nights exceed what is left.
	rt := hotelsRuntime(scripted(), api.HotelOption{
		Name:          "Palace",
		PricePerNight: 450,
		Currency:      "USD",
	})
	st := parisState()

	out, err := HotelSearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomePause, out.Kind)
	require.Equal(t, StepHotelSearch, st.AwaitingStep)
	require.Contains(t, st.PendingQuestion, "7-night")
	require.Empty(t, st.Costs)
	require.Nil(t, st.Hotels)
}

func TestHotelSearchEmptyResultsPause(t *testing.T) {
	t.Parallel()

	rt := hotelsRuntime(scripted())
	st := parisState()

	out, err := HotelSearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomePause, out.Kind)
	require.Equal(t, StepHotelSearch, st.AwaitingStep)
}

func TestHotelSearchFallsBackToCheapest(t *testing.T) {
	t.Parallel()

	llm := scripted("the fancy one, obviously")
	rt := hotelsRuntime(llm,
		api.HotelOption{Name: "Pricey", PricePerNight: 300, Currency: "USD"},
		api.HotelOption{Name: "Modest", PricePerNight: 90, Currency: "USD"},
	)
	st := parisState()

	out, err := HotelSearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind)

	hotel, ok := st.SelectedHotel()
	require.True(t, ok)
	require.Equal(t, "Modest", hotel.Name)
}

func TestHotelSearchSkipsWhenSelected(t *testing.T) {
	t.Parallel()

	llm := scripted()
	rt := hotelsRuntime(llm)
	st := parisState()
	sel := 0
	require.NoError(t, st.SetHotelResults(&api.HotelResults{
		Options:  []api.HotelOption{{Name: "Kept", PricePerNight: 100, Currency: "USD"}},
		Selected: &sel,
	}))

	out, err := HotelSearch(context.Background(), rt, st)
	require.NoError(t, err)
	require.Equal(t, api.OutcomeContinue, out.Kind)
	require.Zero(t, len(llm.Prompts()))
}
