package persistence

import (
	"context"
	"errors"

	"github.com/mpetrin/tripweave/pkg/api"
)

var (
	// ErrConversationNotFound is returned when no checkpoint exists for a
	// conversation id.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrCheckpointNotFound is returned when a specific checkpoint
	// sequence number does not exist for a conversation.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// CheckpointStore persists full-state snapshots of a conversation's trip
// state. Each save is a full-state overwrite keyed by conversation id;
// Load returns the most recent snapshot.
type CheckpointStore interface {
	// Save persists st as the newest checkpoint for its conversation id
	// and stamps st.CheckpointSeq with the assigned sequence number.
	Save(ctx context.Context, st *api.TripState) error

	// Load returns the latest checkpoint for the conversation id, or
	// ErrConversationNotFound.
	Load(ctx context.Context, conversationID string) (*api.TripState, error)

	// Delete removes every checkpoint for the conversation id. Trip state
	// is never deleted automatically; this is the caller's explicit clear.
	Delete(ctx context.Context, conversationID string) error
}

// HistoryStore is the optional variant that retains every intermediate
// snapshot keyed by (conversation id, sequence number), supporting
// replay-from-a-past-point.
type HistoryStore interface {
	CheckpointStore

	// LoadVersion returns the snapshot with the given sequence number.
	LoadVersion(ctx context.Context, conversationID string, seq int) (*api.TripState, error)

	// ListVersions returns the stored sequence numbers in ascending order.
	ListVersions(ctx context.Context, conversationID string) ([]int, error)
}
