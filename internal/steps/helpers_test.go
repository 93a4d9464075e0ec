package steps

import (
	"context"
	"errors"

	"github.com/mpetrin/tripweave/internal/providers"
	"github.com/mpetrin/tripweave/pkg/api"
	"github.com/mpetrin/tripweave/pkg/currency"
)

// fakeRates serves static tables keyed by base currency; missing bases
// fail, which exercises the normalizer's per-base fallback.
type fakeRates map[string]map[string]float64

func (f fakeRates) Rates(ctx context.Context, base string) (map[string]float64, error) {
	table, ok := f[base]
	if !ok {
		return nil, errors.New("no rates for base " + base)
	}
	return table, nil
}

type fakeFlights struct {
	options []api.FlightOption
	err     error
}

func (f fakeFlights) SearchFlights(ctx context.Context, c api.FlightCriteria) ([]api.FlightOption, error) {
	return f.options, f.err
}

type fakeHotels struct {
	options []api.HotelOption
	err     error
}

func (f fakeHotels) SearchHotels(ctx context.Context, c api.HotelCriteria) ([]api.HotelOption, error) {
	return f.options, f.err
}

type fakeActivities struct {
	options []api.ActivityOption
	err     error
}

func (f fakeActivities) SearchActivities(ctx context.Context, c api.ActivityCriteria) ([]api.ActivityOption, error) {
	return f.options, f.err
}

// fakeLocations maps lowercase keywords to candidate lists.
type fakeLocations map[string][]api.LocationMatch

func (f fakeLocations) SearchLocations(ctx context.Context, keyword string) ([]api.LocationMatch, error) {
	return f[keyword], nil
}

// testRuntime assembles a Runtime with USD-centric rates and a fixed
// clock; individual tests overwrite the collaborators they exercise.
func testRuntime(llm api.LLMClient) *api.Runtime {
	rates := fakeRates{
		"USD": {"EUR": 0.9},
		"EUR": {"USD": 1.1},
	}
	return &api.Runtime{
		LLM: llm,
		FX:  currency.NewNormalizer(rates),
		Now: func() string { return "2026-09-01" },
	}
}

func scripted(replies ...string) *providers.ScriptedLLM {
	return providers.NewScriptedLLM(replies...)
}

// parisState is a conversation that already extracted a plan and
// resolved both codes, ready for the search steps.
func parisState() *api.TripState {
	st := api.NewTripState("conv-1")
	st.AppendMessage(api.RoleUser, "Plan me a week in Paris, 3000 USD, two adults")
	st.Plan = &api.Plan{
		Destination:     "Paris",
		Origin:          "New York",
		DepartureDate:   "2026-10-01",
		ArrivalDate:     "2026-10-08",
		TotalBudget:     3000,
		BudgetCurrency:  "USD",
		RemainingBudget: 3000,
		NeedHotel:       true,
		NeedActivities:  true,
	}
	st.Codes = &api.ResolvedCodes{Origin: "NYC", Destination: "PAR"}
	st.Passengers = &api.PassengerCounts{Adults: 2, TravelClass: api.ClassEconomy}
	return st
}

func daytimeFlight(price float64, cur string) api.FlightOption {
	return api.FlightOption{
		Price:    price,
		Currency: cur,
		Segments: []api.FlightSegment{{
			Airline:          "Air France",
			DepartureAirport: "JFK",
			ArrivalAirport:   "CDG",
			DepartureTime:    "2026-10-01T18:30:00Z",
			ArrivalTime:      "2026-10-02T07:45:00Z",
		}},
	}
}
