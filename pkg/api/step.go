package api

import (
	"context"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/currency"
)

// OutcomeKind tags the result of a step invocation.
type OutcomeKind string

const (
	// OutcomeContinue hands control back to the router.
	OutcomeContinue OutcomeKind = "CONTINUE"
	// OutcomePause stops the turn and surfaces the state's pending question.
	OutcomePause OutcomeKind = "PAUSE"
	// OutcomeRedirect bypasses the router and names the next step directly.
	OutcomeRedirect OutcomeKind = "REDIRECT"
)

// Outcome is the tagged result of a step. Expected conditions (missing
// data, empty search results) are expressed here, never through the error
// channel; only truly unexpected failures return an error from a step.
type Outcome struct {
	Kind OutcomeKind
	Next string // set only for OutcomeRedirect
}

// Continue routes to the successor chosen by the step's router (or the
// default edge for linear steps).
func Continue() Outcome { return Outcome{Kind: OutcomeContinue} }

// Pause stops the turn. The step must have called TripState.RequestInput
// before returning this.
func Pause() Outcome { return Outcome{Kind: OutcomePause} }

// Redirect jumps straight to the named step, skipping the router.
func Redirect(next string) Outcome { return Outcome{Kind: OutcomeRedirect, Next: next} }

// Runtime bundles the external collaborators a step may call during one
// turn. The currency normalizer is turn-scoped: the engine creates a fresh
// one per Advance call so rate tables are fetched at most once per base
// currency per turn.
type Runtime struct {
	LLM        LLMClient
	Flights    FlightSearcher
	Hotels     HotelSearcher
	Activities ActivitySearcher
	Locations  LocationResolver
	FX         *currency.Normalizer
	Now        func() string // today's date, YYYY-MM-DD
}

// StepFunc is a single unit of pipeline work. It reads and mutates the
// shared trip state and returns a tagged outcome. Steps must be
// idempotent-skippable: if their required output is already present and no
// pause is attributed to them, they return Continue without re-executing
// their external call.
type StepFunc func(ctx context.Context, rt *Runtime, st *TripState) (Outcome, error)

// RouterFunc is a pure function over the trip state that selects the next
// step name after a Continue outcome. It must return either a member of
// the node's successor allow-list or "" for terminal.
type RouterFunc func(st *TripState) string

// Node is one entry in the step graph: the step function, its default
// successor for linear edges, and an optional router with the successor
// allow-list for junctions.
type Node struct {
	Fn Step
	// Next is the default successor; ignored when Route is set.
	Next string
	// Route selects the successor at a junction.
	Route RouterFunc
	// AllowedNext is the declared successor set for Route. A router
	// returning a name outside this list is an engine error.
	AllowedNext []string
}

// Step pairs a step function with its name.
type Step struct {
	Name string
	Run  StepFunc
}

// Graph is the static step table: step name to function, step name to
// allowed successors. It is checked once at engine construction rather
// than resolved dynamically at each call.
type Graph struct {
	Root  string
	Nodes map[string]Node
}

// Validate fails fast on an empty root, a missing step function, or an
// edge pointing at an undeclared step.
func (g Graph) Validate() error {
	if g.Root == "" {
		return fmt.Errorf("graph has no root step")
	}
	if _, ok := g.Nodes[g.Root]; !ok {
		return fmt.Errorf("root step %q is not declared", g.Root)
	}
	for name, node := range g.Nodes {
		if node.Fn.Run == nil {
			return fmt.Errorf("step %q has no function", name)
		}
		if node.Fn.Name != name {
			return fmt.Errorf("step %q registered under mismatched name %q", node.Fn.Name, name)
		}
		if node.Next != "" {
			if _, ok := g.Nodes[node.Next]; !ok {
				return fmt.Errorf("step %q declares undeclared successor %q", name, node.Next)
			}
		}
		for _, succ := range node.AllowedNext {
			if succ == "" {
				continue // terminal is always allowed
			}
			if _, ok := g.Nodes[succ]; !ok {
				return fmt.Errorf("step %q allows undeclared successor %q", name, succ)
			}
		}
		if node.Route != nil && len(node.AllowedNext) == 0 {
			return fmt.Errorf("step %q has a router but no successor allow-list", name)
		}
	}
	return nil
}

// Successor resolves the next step after a Continue outcome from the named
// step. It returns "" when the graph is terminal at this point, and an
// error when a router steps outside its allow-list.
func (g Graph) Successor(name string, st *TripState) (string, error) {
	node, ok := g.Nodes[name]
	if !ok {
		return "", fmt.Errorf("unknown step %q", name)
	}
	if node.Route == nil {
		return node.Next, nil
	}
	next := node.Route(st)
	if next == "" {
		for _, allowed := range node.AllowedNext {
			if allowed == "" {
				return "", nil
			}
		}
		return "", fmt.Errorf("router for %q returned terminal, which is not in its allow-list", name)
	}
	for _, allowed := range node.AllowedNext {
		if next == allowed {
			return next, nil
		}
	}
	return "", fmt.Errorf("router for %q returned %q, outside its allow-list", name, next)
}
