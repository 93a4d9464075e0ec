package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mpetrin/tripweave/internal/persistence"
	"github.com/mpetrin/tripweave/internal/steps"
	"github.com/mpetrin/tripweave/pkg/api"
	"github.com/mpetrin/tripweave/pkg/currency"
)

// DefaultRevisionCap is the number of rejected drafts the critique cycle
// redrafts before accepting best-effort.
const DefaultRevisionCap = 2

// maxStepsPerTurn bounds a single Advance call. The longest legitimate
// turn is the full pipeline plus a capped redraft cycle; anything past
// this limit is a graph bug, not a long conversation.
const maxStepsPerTurn = 32

// Config describes how to construct an engine. All collaborators are
// explicit; there are no ambient globals.
type Config struct {
	Store       persistence.CheckpointStore
	Collab      api.Collaborators
	Observer    api.Observer
	RevisionCap int
	Today       func() string // YYYY-MM-DD; defaults to time.Now in UTC
}

// engineImpl drives the trip-planning pipeline for one conversation at a
// time per id: it invokes the current step, applies routing, detects
// pause/terminal conditions, and persists a checkpoint after every step.
type engineImpl struct {
	graph    api.Graph
	store    persistence.CheckpointStore
	collab   api.Collaborators
	observer api.Observer
	today    func() string

	locks conversationLocks
}

// New validates the step graph and returns a Planner.
func New(cfg Config) (api.Planner, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: checkpoint store is required")
	}
	if cfg.Collab.LLM == nil {
		return nil, errors.New("engine: language model client is required")
	}
	cap := cfg.RevisionCap
	if cap <= 0 {
		cap = DefaultRevisionCap
	}
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	today := cfg.Today
	if today == nil {
		today = func() string { return time.Now().UTC().Format("2006-01-02") }
	}

	graph := buildTripGraph(cap)
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid step graph: %w", err)
	}

	return &engineImpl{
		graph:    graph,
		store:    cfg.Store,
		collab:   cfg.Collab,
		observer: obs,
		today:    today,
		locks:    newConversationLocks(),
	}, nil
}

func (e *engineImpl) Advance(ctx context.Context, conversationID, message string, flags *api.FeatureFlags) (api.TurnResult, error) {
	if conversationID == "" {
		return api.TurnResult{}, errors.New("conversation id is required")
	}

	unlock := e.locks.lock(conversationID)
	defer unlock()

	st, err := e.loadOrCreate(ctx, conversationID)
	if err != nil {
		return api.TurnResult{}, err
	}
	if flags != nil {
		st.Flags = *flags
	}
	if message != "" {
		st.AppendMessage(api.RoleUser, message)
	}

	return e.runTurn(ctx, st)
}

func (e *engineImpl) GetState(ctx context.Context, conversationID string) (*api.TripState, error) {
	return e.store.Load(ctx, conversationID)
}

func (e *engineImpl) Replay(ctx context.Context, conversationID string, seq int, message string) (api.TurnResult, error) {
	hist, ok := e.store.(persistence.HistoryStore)
	if !ok {
		return api.TurnResult{}, errors.New("checkpoint store does not retain history; replay unavailable")
	}

	unlock := e.locks.lock(conversationID)
	defer unlock()

	st, err := hist.LoadVersion(ctx, conversationID, seq)
	if err != nil {
		return api.TurnResult{}, err
	}
	if message != "" {
		st.AppendMessage(api.RoleUser, message)
	}

	return e.runTurn(ctx, st)
}

func (e *engineImpl) Clear(ctx context.Context, conversationID string) error {
	unlock := e.locks.lock(conversationID)
	defer unlock()
	return e.store.Delete(ctx, conversationID)
}

func (e *engineImpl) loadOrCreate(ctx context.Context, conversationID string) (*api.TripState, error) {
	st, err := e.store.Load(ctx, conversationID)
	if err == nil {
		return st, nil
	}
	if errors.Is(err, persistence.ErrConversationNotFound) {
		return api.NewTripState(conversationID), nil
	}
	return nil, fmt.Errorf("load checkpoint for %s: %w", conversationID, err)
}

// runTurn drives steps until a pause or the terminal step. The entry step
// is the one that raised the pending question, if any, so a resumed
// conversation re-enters that exact step rather than restarting.
func (e *engineImpl) runTurn(ctx context.Context, st *api.TripState) (api.TurnResult, error) {
	e.observer.OnTurnStart(ctx, st)

	rt := &api.Runtime{
		LLM:        e.collab.LLM,
		Flights:    e.collab.Flights,
		Hotels:     e.collab.Hotels,
		Activities: e.collab.Activities,
		Locations:  e.collab.Locations,
		FX:         currency.NewNormalizer(e.collab.Rates),
		Now:        e.today,
	}

	current := e.graph.Root
	if st.AwaitingStep != "" {
		if _, ok := e.graph.Nodes[st.AwaitingStep]; !ok {
			err := fmt.Errorf("checkpoint awaits unknown step %q", st.AwaitingStep)
			e.observer.OnTurnFailed(ctx, st, err)
			return api.TurnResult{}, err
		}
		current = st.AwaitingStep
	}

	for i := 0; i < maxStepsPerTurn; i++ {
		if !stepEnabled(current, st.Flags) {
			next, err := e.graph.Successor(current, st)
			if err != nil {
				e.observer.OnTurnFailed(ctx, st, err)
				return api.TurnResult{}, err
			}
			if next == "" {
				return e.finishTurn(ctx, st)
			}
			current = next
			continue
		}

		node := e.graph.Nodes[current]

		e.observer.OnStepStart(ctx, st, current)
		start := time.Now()
		out, err := node.Fn.Run(ctx, rt, st)
		e.observer.OnStepCompleted(ctx, st, current, out, err, time.Since(start))

		if err != nil {
			// Unexpected failure: downgrade to a pause by way of the
			// failure explainer, never a hard crash of the conversation.
			st.LastError = err.Error()
			st.LastFailedStep = current
			out = api.Redirect(steps.StepExplainFailure)
		}

		if saveErr := e.store.Save(ctx, st); saveErr != nil {
			// Checkpoint I/O is the one fatal failure class for a turn.
			wrapped := fmt.Errorf("persist checkpoint for %s: %w", st.ConversationID, saveErr)
			e.observer.OnTurnFailed(ctx, st, wrapped)
			return api.TurnResult{}, wrapped
		}

		switch out.Kind {
		case api.OutcomePause:
			if !st.Paused() {
				err := fmt.Errorf("step %q paused without a pending question", current)
				e.observer.OnTurnFailed(ctx, st, err)
				return api.TurnResult{}, err
			}
			e.observer.OnPause(ctx, st, current, st.PendingQuestion)
			return api.TurnResult{
				Status:       api.TurnPaused,
				Question:     st.PendingQuestion,
				AwaitingStep: st.AwaitingStep,
			}, nil

		case api.OutcomeRedirect:
			if _, ok := e.graph.Nodes[out.Next]; !ok {
				err := fmt.Errorf("step %q redirected to undeclared step %q", current, out.Next)
				e.observer.OnTurnFailed(ctx, st, err)
				return api.TurnResult{}, err
			}
			current = out.Next

		case api.OutcomeContinue:
			next, err := e.graph.Successor(current, st)
			if err != nil {
				e.observer.OnTurnFailed(ctx, st, err)
				return api.TurnResult{}, err
			}
			if next == "" {
				return e.finishTurn(ctx, st)
			}
			current = next

		default:
			err := fmt.Errorf("step %q returned unknown outcome %q", current, out.Kind)
			e.observer.OnTurnFailed(ctx, st, err)
			return api.TurnResult{}, err
		}
	}

	err := fmt.Errorf("conversation %s exceeded %d step invocations in one turn", st.ConversationID, maxStepsPerTurn)
	e.observer.OnTurnFailed(ctx, st, err)
	return api.TurnResult{}, err
}

func (e *engineImpl) finishTurn(ctx context.Context, st *api.TripState) (api.TurnResult, error) {
	if st.DraftItinerary != "" {
		st.AppendMessage(api.RoleAssistant, st.DraftItinerary)
	}
	if err := e.store.Save(ctx, st); err != nil {
		wrapped := fmt.Errorf("persist final checkpoint for %s: %w", st.ConversationID, err)
		e.observer.OnTurnFailed(ctx, st, wrapped)
		return api.TurnResult{}, wrapped
	}
	e.observer.OnTurnCompleted(ctx, st)
	return api.TurnResult{
		Status:    api.TurnDone,
		Itinerary: st.DraftItinerary,
		Costs:     st.Costs,
	}, nil
}

// stepEnabled applies the feature flags: they let the orchestrator skip
// optional steps entirely for controlled evaluation runs.
func stepEnabled(name string, flags api.FeatureFlags) bool {
	switch name {
	case steps.StepPlan:
		return flags.UsePlanner
	case steps.StepLocations, steps.StepFlightSearch, steps.StepHotelSearch, steps.StepActivitySearch:
		return flags.UseLiveSearch
	case steps.StepCritique:
		return flags.UseCritique
	default:
		return true
	}
}
