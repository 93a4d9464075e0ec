// Package tripweave is an embeddable trip-planning workflow engine for Go.
//
// Tripweave drives a multi-step travel planning conversation: it extracts a
// trip plan from free-form user messages, resolves airport codes, searches
// flights, hotels and activities, keeps a running multi-currency budget, and
// drafts an itinerary that a critique step reviews in a bounded revision
// loop. Whenever a step needs more information from the traveller, the engine
// pauses the turn, checkpoints the conversation, and resumes from the exact
// step once the answer arrives.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Planner
//  2. TripState
//  3. Collaborators
//  4. Feature flags
//
// # Planner
//
// The Planner is the only entry point. Each call to Advance delivers one user
// message, runs the step graph until it either pauses on a question or
// finishes with an itinerary, and checkpoints the conversation after every
// step. Conversations are addressed by id; a paused conversation resumes at
// the step that asked the question, and concurrent calls for the same id are
// serialized.
//
// Planners can be backed by different storage systems:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability, full checkpoint history)
//
// Both backends retain every checkpoint, so Replay can fork a conversation
// from any earlier point.
//
// # TripState
//
// TripState is the complete record of one conversation: the message history,
// the extracted plan, passenger counts, resolved airport codes, search
// results with the picks made from them, committed cost lines, the draft
// itinerary and its critique, and the pending question when the conversation
// is paused. It is a flat JSON document; GetState returns a copy callers are
// free to inspect.
//
// # Collaborators
//
// The engine owns orchestration but delegates the actual work: an LLMClient
// for extraction, ranking, drafting and critique, searchers for flights,
// hotels and activities, a LocationResolver for airport codes, and a
// RateProvider for currency conversion. All of them are small interfaces;
// the providers package ships fixture-backed implementations plus an Ollama
// client, and tests script their own.
//
// # Feature flags
//
// Every conversation carries three flags: use_planner, use_live_search and
// use_critique. A disabled flag makes the engine skip the corresponding
// steps without invoking them, which lets callers shrink the pipeline per
// conversation (for example, skipping critique in latency-sensitive runs).
//
// # Quick Start
//
//	collab := tripweave.Collaborators{
//		LLM:        llm,
//		Flights:    flights,
//		Hotels:     hotels,
//		Activities: activities,
//		Locations:  locations,
//		Rates:      rates,
//	}
//	planner, err := tripweave.NewInMemoryPlanner(collab)
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := planner.Advance(ctx, "trip-1",
//		"Plan me a week in Paris from New York, 3000 USD, leaving 2026-10-01", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if res.Status == tripweave.TurnPaused {
//		// answer res.Question with another Advance call
//	}
//
// See the examples directory for complete runnable programs.
package tripweave
