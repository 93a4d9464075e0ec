package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpetrin/tripweave/internal/persistence"
	"github.com/mpetrin/tripweave/internal/providers"
	"github.com/mpetrin/tripweave/internal/steps"
	"github.com/mpetrin/tripweave/pkg/api"
)

type stubRates map[string]map[string]float64

func (s stubRates) Rates(ctx context.Context, base string) (map[string]float64, error) {
	table, ok := s[base]
	if !ok {
		return nil, errors.New("no rates for " + base)
	}
	return table, nil
}

type stubLocations map[string][]api.LocationMatch

func (s stubLocations) SearchLocations(ctx context.Context, keyword string) ([]api.LocationMatch, error) {
	return s[keyword], nil
}

// stubFlights lets a test swap the result set between turns.
type stubFlights struct {
	mu      sync.Mutex
	options []api.FlightOption
	err     error
}

func (s *stubFlights) set(options []api.FlightOption, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = options
	s.err = err
}

func (s *stubFlights) SearchFlights(ctx context.Context, c api.FlightCriteria) ([]api.FlightOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options, s.err
}

type stubHotels struct{ options []api.HotelOption }

func (s stubHotels) SearchHotels(ctx context.Context, c api.HotelCriteria) ([]api.HotelOption, error) {
	return s.options, nil
}

type stubActivities struct{ options []api.ActivityOption }

func (s stubActivities) SearchActivities(ctx context.Context, c api.ActivityCriteria) ([]api.ActivityOption, error) {
	return s.options, nil
}

func parisFlight(price float64) api.FlightOption {
	return api.FlightOption{
		Price:    price,
		Currency: "USD",
		Segments: []api.FlightSegment{{
			Airline:          "Air France",
			DepartureAirport: "JFK",
			ArrivalAirport:   "CDG",
			DepartureTime:    "2026-10-01T18:30:00Z",
			ArrivalTime:      "2026-10-02T07:45:00Z",
		}},
	}
}

// planReply builds the plan-extraction JSON a test's model emits.
func planReply(dest string, budget float64, needHotel, needActivities bool) string {
	return fmt.Sprintf(`{"destination": %q, "origin": "New York",
		"departure_date": "2026-10-01", "arrival_date": "2026-10-08",
		"budget": %v, "budget_currency": "USD", "interests": "museums",
		"need_hotel": %v, "need_activities": %v}`, dest, budget, needHotel, needActivities)
}

const adultsReply = `{"adults": 2, "children": 0, "infants": 0, "travel_class": "ECONOMY", "confidence": "high"}`
const pickFirst = `{"selected_index": 0, "reasoning": "best fit"}`

func defaultCollab(llm api.LLMClient, flights *stubFlights) api.Collaborators {
	return api.Collaborators{
		LLM:     llm,
		Flights: flights,
		Hotels: stubHotels{options: []api.HotelOption{
			{Name: "Hotel du Marais", PricePerNight: 100, Currency: "EUR", Rating: 4.2},
		}},
		Activities: stubActivities{options: []api.ActivityOption{
			{Name: "Louvre", Price: 22, Currency: "EUR", Category: "museums"},
		}},
		Locations: stubLocations{
			"New York": {{Code: "NYC", Name: "New York"}},
			"Paris":    {{Code: "PAR", Name: "Paris"}},
		},
		Rates: stubRates{
			"USD": {"EUR": 0.9},
			"EUR": {"USD": 1.1},
		},
	}
}

func newTestPlanner(t *testing.T, store persistence.CheckpointStore, collab api.Collaborators) api.Planner {
	t.Helper()

	planner, err := New(Config{
		Store:  store,
		Collab: collab,
		Today:  func() string { return "2026-09-01" },
	})
	require.NoError(t, err)
	return planner
}

func TestAdvanceFullPipelineToDone(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, true, true),
		adultsReply,
		pickFirst, // flight
		pickFirst, // hotel
		"Day 1: arrive at CDG.\nDay 2: Louvre.",
		"APPROVE",
	)
	flights := &stubFlights{options: []api.FlightOption{parisFlight(700)}}
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, defaultCollab(llm, flights))
	ctx := context.Background()

	res, err := planner.Advance(ctx, "trip-1", "A week in Paris from New York, 3000 USD, two of us.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)
	require.Contains(t, res.Itinerary, "Louvre")
	require.Len(t, res.Costs, 3, "flight, hotel, activities")
	require.Zero(t, llm.Remaining(), "every scripted reply was consumed")

	st, err := planner.GetState(ctx, "trip-1")
	require.NoError(t, err)
	require.Equal(t, 1, st.RevisionCount)
	require.False(t, st.Paused())
	require.Greater(t, st.CheckpointSeq, 1, "one checkpoint per step invocation")

	// The itinerary is part of the conversation record.
	last := st.History[len(st.History)-1]
	require.Equal(t, api.RoleAssistant, last.Role)
	require.Equal(t, res.Itinerary, last.Text)

	// Budget bookkeeping: 700 flight + 770 hotel (7 nights at 100 EUR)
	// + 24.2 activities, all in USD.
	require.InDelta(t, 3000-700-770-24.2, st.Plan.RemainingBudget, 1e-9)
}

func TestAdvancePausesAndResumesAtPlan(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		`{"destination": "Paris", "origin": null, "departure_date": null,
		  "arrival_date": null, "budget": null, "budget_currency": null}`,
		planReply("Paris", 3000, false, false),
		adultsReply,
		pickFirst,
		"A lean Paris itinerary.",
		"APPROVE",
	)
	flights := &stubFlights{options: []api.FlightOption{parisFlight(700)}}
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, defaultCollab(llm, flights))
	ctx := context.Background()

	res, err := planner.Advance(ctx, "trip-1", "I want to go to Paris.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnPaused, res.Status)
	require.Equal(t, steps.StepPlan, res.AwaitingStep)
	require.Contains(t, res.Question, "departure date")

	// The pause survives the process boundary: state reloads paused.
	st, err := planner.GetState(ctx, "trip-1")
	require.NoError(t, err)
	require.True(t, st.Paused())

	res, err = planner.Advance(ctx, "trip-1", "October 1st to 8th, 3000 USD.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)
	require.Zero(t, llm.Remaining())
}

func TestAdvanceResumesAtFlightSearchDirectly(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, false, false),
		adultsReply,
		// Turn two starts here: no second plan or passenger extraction.
		pickFirst,
		"A lean Paris itinerary.",
		"APPROVE",
	)
	flights := &stubFlights{} // no results on the first turn
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, defaultCollab(llm, flights))
	ctx := context.Background()

	res, err := planner.Advance(ctx, "trip-1", "Paris, Oct 1-8, 3000 USD, solo.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnPaused, res.Status)
	require.Equal(t, steps.StepFlightSearch, res.AwaitingStep)
	require.Equal(t, 2, len(llm.Prompts()), "plan and passengers ran before the pause")

	flights.set([]api.FlightOption{parisFlight(700)}, nil)

	res, err = planner.Advance(ctx, "trip-1", "Those dates are flexible, try again.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)
	require.Zero(t, llm.Remaining(),
		"the resumed turn re-entered flight search without re-running earlier steps")
}

func TestAdvanceRevisionLoopStopsAtCap(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, false, false),
		adultsReply,
		pickFirst,
		"draft one", "REJECT: too vague",
		"draft two", "REJECT: still too vague",
		"draft three", "REJECT: hopeless",
	)
	flights := &stubFlights{options: []api.FlightOption{parisFlight(700)}}
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, defaultCollab(llm, flights))
	ctx := context.Background()

	res, err := planner.Advance(ctx, "trip-1", "Paris, Oct 1-8, 3000 USD, solo.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status, "a persistently rejected draft still completes")
	require.Equal(t, "draft three", res.Itinerary)
	require.Zero(t, llm.Remaining())

	st, err := planner.GetState(ctx, "trip-1")
	require.NoError(t, err)
	require.Equal(t, 3, st.RevisionCount, "initial critique plus two capped revisions")
	require.Contains(t, st.Critique, "rejected")
}

func TestAdvanceRoutesAroundUnneededCategories(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, false, false),
		adultsReply,
		pickFirst,
		"Flight-only itinerary.",
		"APPROVE",
	)
	flights := &stubFlights{options: []api.FlightOption{parisFlight(700)}}
	collab := defaultCollab(llm, flights)
	collab.Hotels = nil     // would panic if the hotel step ran
	collab.Activities = nil // likewise
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, collab)

	res, err := planner.Advance(context.Background(), "trip-1", "Paris, flight only please.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)

	st, err := planner.GetState(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Nil(t, st.Hotels)
	require.Nil(t, st.Activities)
	require.Len(t, st.Costs, 1)
}

func TestAdvanceSkipsDisabledSteps(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, true, true),
		adultsReply,
		"An itinerary without live search data.",
	)
	store := persistence.NewInMemoryStore()
	// No search collaborators at all: the disabled steps must not touch them.
	collab := api.Collaborators{
		LLM:   llm,
		Rates: stubRates{},
	}
	planner := newTestPlanner(t, store, collab)

	flags := api.DefaultFlags()
	flags.UseLiveSearch = false
	flags.UseCritique = false

	res, err := planner.Advance(context.Background(), "trip-1", "Paris, Oct 1-8, 3000 USD.", &flags)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)
	require.Zero(t, llm.Remaining())

	st, err := planner.GetState(context.Background(), "trip-1")
	require.NoError(t, err)
	require.Nil(t, st.Codes, "location resolution was skipped, not invoked")
	require.Nil(t, st.Flights)
	require.Zero(t, st.RevisionCount, "critique was skipped")
	require.Equal(t, flags, st.Flags, "flag overrides persist with the conversation")
}

func TestAdvanceDowngradesStepErrorToPause(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, false, false),
		adultsReply,
	)
	flights := &stubFlights{err: errors.New("upstream search timeout")}
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, defaultCollab(llm, flights))

	res, err := planner.Advance(context.Background(), "trip-1", "Paris, Oct 1-8, 3000 USD.", nil)
	require.NoError(t, err, "collaborator failures never crash the conversation")
	require.Equal(t, api.TurnPaused, res.Status)
	require.Equal(t, steps.StepFlightSearch, res.AwaitingStep, "the next message re-enters the failed step")
	require.Contains(t, res.Question, "upstream search timeout")
}

func TestReplayForksFromPastCheckpoint(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, false, false),
		adultsReply,
		pickFirst,
		"the first itinerary",
		"APPROVE",
		// Replay from an early checkpoint re-runs everything after it.
		adultsReply,
		pickFirst,
		"the replayed itinerary",
		"APPROVE",
	)
	flights := &stubFlights{options: []api.FlightOption{parisFlight(700)}}
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, defaultCollab(llm, flights))
	ctx := context.Background()

	res, err := planner.Advance(ctx, "trip-1", "Paris, Oct 1-8, 3000 USD.", nil)
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)

	// Checkpoint 2 is right after location resolution: the plan exists
	// but passengers and searches do not.
	res, err = planner.Replay(ctx, "trip-1", 2, "")
	require.NoError(t, err)
	require.Equal(t, api.TurnDone, res.Status)
	require.Equal(t, "the replayed itinerary", res.Itinerary)
	require.Zero(t, llm.Remaining())
}

func TestReplayRequiresHistoryStore(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM()
	planner := newTestPlanner(t, latestOnlyStore{persistence.NewInMemoryStore()}, api.Collaborators{LLM: llm, Rates: stubRates{}})

	_, err := planner.Replay(context.Background(), "trip-1", 1, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "history")
}

// latestOnlyStore hides the history methods of the wrapped store.
type latestOnlyStore struct {
	inner *persistence.InMemoryStore
}

func (s latestOnlyStore) Save(ctx context.Context, st *api.TripState) error {
	return s.inner.Save(ctx, st)
}

func (s latestOnlyStore) Load(ctx context.Context, id string) (*api.TripState, error) {
	return s.inner.Load(ctx, id)
}

func (s latestOnlyStore) Delete(ctx context.Context, id string) error {
	return s.inner.Delete(ctx, id)
}

func TestClearResetsConversation(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, true, true),
		adultsReply,
		"Skipped-search itinerary.",
	)
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, api.Collaborators{LLM: llm, Rates: stubRates{}})
	ctx := context.Background()

	flags := api.DefaultFlags()
	flags.UseLiveSearch = false
	flags.UseCritique = false

	_, err := planner.Advance(ctx, "trip-1", "Paris, Oct 1-8, 3000 USD.", &flags)
	require.NoError(t, err)

	require.NoError(t, planner.Clear(ctx, "trip-1"))

	_, err = planner.GetState(ctx, "trip-1")
	require.ErrorIs(t, err, persistence.ErrConversationNotFound)
}

func TestAdvanceSerializesPerConversation(t *testing.T) {
	t.Parallel()

	llm := providers.NewScriptedLLM(
		planReply("Paris", 3000, true, true),
		adultsReply,
		"itinerary one",
		// The second turn skips extraction (the plan exists) and redrafts.
		"itinerary two",
	)
	store := persistence.NewInMemoryStore()
	planner := newTestPlanner(t, store, api.Collaborators{LLM: llm, Rates: stubRates{}})
	ctx := context.Background()

	flags := api.DefaultFlags()
	flags.UseLiveSearch = false
	flags.UseCritique = false

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = planner.Advance(ctx, "trip-1", fmt.Sprintf("message %d", i), &flags)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Zero(t, llm.Remaining(), "turns ran back to back, never interleaved")

	st, err := planner.GetState(ctx, "trip-1")
	require.NoError(t, err)
	require.False(t, st.Paused())
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Collab: api.Collaborators{LLM: providers.NewScriptedLLM()}})
	require.Error(t, err, "a store is required")

	_, err = New(Config{Store: persistence.NewInMemoryStore()})
	require.Error(t, err, "a language model client is required")
}
