package api

import "context"

// Planner is the engine's exposed interface, consumed by CLI/HTTP front
// ends. One Advance call per conversation id runs at a time; a concurrent
// call for the same id blocks until the first completes.
type Planner interface {
	// Advance appends the message to the conversation and runs steps
	// until a pause or the terminal step. A nil flags keeps the flags
	// already persisted for the conversation (defaults for a new one).
	Advance(ctx context.Context, conversationID, message string, flags *FeatureFlags) (TurnResult, error)

	// GetState returns a read-only snapshot of the latest checkpoint.
	GetState(ctx context.Context, conversationID string) (*TripState, error)

	// Replay re-runs the pipeline from a past checkpoint, with message
	// substituted for the follow-up ("" replays without one). It requires
	// a history-retaining checkpoint store.
	Replay(ctx context.Context, conversationID string, seq int, message string) (TurnResult, error)

	// Clear removes all checkpoints for the conversation. State is never
	// deleted automatically; this is the caller's explicit reset.
	Clear(ctx context.Context, conversationID string) error
}
