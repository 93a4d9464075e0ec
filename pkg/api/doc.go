// Package api contains the core building blocks used by the tripweave
// planning engine: the trip state document, step outcomes, the static step
// graph, the collaborator interfaces, and the observer hooks.
//
// Most users interact with the higher-level tripweave package, which
// re-exports selected types and helpers from this package. The api package
// is intended for advanced use cases, custom integrations, or contributors
// extending the engine itself.
//
// # Trip State
//
// TripState is the single mutable record threaded through every step of a
// conversation. It is created empty on the first message for a
// conversation id, loaded from the checkpoint store on subsequent
// messages, mutated in place by each step, and persisted as a flat JSON
// document after every step invocation.
//
// Mutations that carry invariants go through methods rather than direct
// field writes: RequestInput and ClearPending keep the pending question
// and its attribution in lockstep, CommitCost refuses a budget decrement
// whose converted currency does not match the plan's budget currency, and
// the Set*Results methods refuse to overwrite a search category that an
// earlier step already populated.
//
// # Steps and Outcomes
//
// A StepFunc is a single unit of pipeline work. It returns a tagged
// Outcome rather than using errors for expected conditions:
//
//   - Continue hands control to the router
//   - Pause stops the turn and surfaces a question to the human
//   - Redirect jumps straight to a named step, skipping the router
//
// Steps are idempotent-skippable: when their required output is already
// present in the state and no pause is attributed to them, they return
// Continue without re-executing their external call. This is what makes
// resume-after-pause cheap and side-effect-safe.
//
// # The Graph
//
// Graph is an explicit static table from step name to function and from
// step name to allowed successors. It is validated once at engine
// construction; an undeclared edge fails fast instead of surfacing as a
// routing error mid-conversation.
package api
