package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/mpetrin/tripweave/pkg/api"
)

// EncodeState serializes a trip state as a flat JSON document. JSON is the
// persisted format on purpose: checkpoints stay inspectable and additive
// fields decode cleanly from older snapshots.
func EncodeState(st *api.TripState) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("cannot encode nil trip state")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode trip state: %w", err)
	}
	return data, nil
}

// DecodeState deserializes a trip state document.
func DecodeState(data []byte) (*api.TripState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decode empty trip state document")
	}
	var st api.TripState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode trip state: %w", err)
	}
	return &st, nil
}

// CloneState deep-copies a trip state through the codec, so stored
// snapshots never share memory with the state a step mutates next.
func CloneState(st *api.TripState) (*api.TripState, error) {
	data, err := EncodeState(st)
	if err != nil {
		return nil, err
	}
	return DecodeState(data)
}
