// Package currency converts monetary amounts between currencies, batching
// external lookups by source currency: the first conversion for a base
// fetches that base's full rate table in one call, and every later pair
// for the same base is served from the cached table.
package currency

import (
	"context"
	"strings"
)

// RateProvider returns the full rate table for a base currency. It may
// fail per base; the normalizer absorbs the failure with a 1:1 fallback
// scoped to that base only.
type RateProvider interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// Normalizer caches one rate table per base currency. It is scoped to a
// single turn of the pipeline; the engine creates a fresh one per Advance
// call. It is not safe for concurrent use, matching the strictly
// sequential execution of steps within one conversation.
type Normalizer struct {
	provider RateProvider
	tables   map[string]map[string]float64
	failed   map[string]bool
}

// NewNormalizer creates a turn-scoped normalizer over the given provider.
func NewNormalizer(provider RateProvider) *Normalizer {
	return &Normalizer{
		provider: provider,
		tables:   make(map[string]map[string]float64),
		failed:   make(map[string]bool),
	}
}

// Conversion is the result of a single currency conversion.
type Conversion struct {
	Amount   float64
	From     string
	To       string
	Result   float64
	Rate     float64
	// Fallback marks a conversion priced with the 1:1 rate after the
	// provider failed for this base currency. The failure is attributed
	// to the caller's cost line, never silently absorbed into a total.
	Fallback bool
}

// Convert converts amount from one currency to another. Converting a
// currency to itself is an exact no-op returning the identical amount.
// Provider failure never blocks the turn: the affected base falls back to
// a 1:1 rate and the conversion is flagged.
func (n *Normalizer) Convert(ctx context.Context, amount float64, from, to string) Conversion {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to || from == "" || to == "" {
		return Conversion{Amount: amount, From: from, To: to, Result: amount, Rate: 1}
	}

	table, ok := n.tables[from]
	if !ok && !n.failed[from] {
		fetched, err := n.provider.Rates(ctx, from)
		if err != nil || fetched == nil {
			n.failed[from] = true
		} else {
			n.tables[from] = fetched
			table = fetched
			ok = true
		}
	}

	if !ok {
		return Conversion{Amount: amount, From: from, To: to, Result: amount, Rate: 1, Fallback: true}
	}

	rate, present := table[to]
	if !present || rate <= 0 {
		// The base's table loaded but lacks this target; same fallback.
		return Conversion{Amount: amount, From: from, To: to, Result: amount, Rate: 1, Fallback: true}
	}

	return Conversion{Amount: amount, From: from, To: to, Result: amount * rate, Rate: rate}
}

// Lookups reports how many provider calls this normalizer has issued,
// counting failed fetches. Useful for asserting the batch-by-base policy.
func (n *Normalizer) Lookups() int {
	return len(n.tables) + len(n.failed)
}
