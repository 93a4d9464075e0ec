package tripweave

import (
	"database/sql"

	"github.com/mpetrin/tripweave/internal/engine"
	"github.com/mpetrin/tripweave/internal/persistence"
	"github.com/mpetrin/tripweave/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Planner           = api.Planner
	TripState         = api.TripState
	Plan              = api.Plan
	PassengerCounts   = api.PassengerCounts
	FeatureFlags      = api.FeatureFlags
	TurnResult        = api.TurnResult
	TurnStatus        = api.TurnStatus
	CostLine          = api.CostLine
	Collaborators     = api.Collaborators
	LLMClient         = api.LLMClient
	FlightSearcher    = api.FlightSearcher
	HotelSearcher     = api.HotelSearcher
	ActivitySearcher  = api.ActivitySearcher
	LocationResolver  = api.LocationResolver
	Observer          = api.Observer
	LoggingObserver   = api.LoggingObserver
	CompositeObserver = api.CompositeObserver
	NoopObserver      = api.NoopObserver
)

// Re-export common helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	DefaultFlags         = api.DefaultFlags
)

// Re-export turn statuses for convenience.

const (
	TurnPaused = api.TurnPaused
	TurnDone   = api.TurnDone
)

// Option tweaks engine construction.
type Option func(*engine.Config)

// WithObserver attaches an observer to the engine.
func WithObserver(obs Observer) Option {
	return func(cfg *engine.Config) { cfg.Observer = obs }
}

// WithRevisionCap overrides how many rejected drafts trigger a redraft
// before the best draft is accepted as-is.
func WithRevisionCap(cap int) Option {
	return func(cfg *engine.Config) { cfg.RevisionCap = cap }
}

// WithToday fixes the "today" the plan-extraction prompt is anchored to,
// in YYYY-MM-DD. Mostly useful in tests and evaluation runs.
func WithToday(today func() string) Option {
	return func(cfg *engine.Config) { cfg.Today = today }
}

// Planner constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryPlanner returns a Planner whose checkpoints live in memory.
// History is retained, so Replay works; everything is lost with the
// process.
func NewInMemoryPlanner(collab Collaborators, opts ...Option) (Planner, error) {
	cfg := engine.Config{
		Store:  persistence.NewInMemoryStore(),
		Collab: collab,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return engine.New(cfg)
}

// NewSQLitePlanner returns a Planner that persists checkpoints in a
// SQLite database, retaining full history per conversation.
//
// It expects an *sql.DB opened with a SQLite driver (for example,
// "modernc.org/sqlite"); the caller imports the driver.
func NewSQLitePlanner(db *sql.DB, collab Collaborators, opts ...Option) (Planner, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	cfg := engine.Config{
		Store:  store,
		Collab: collab,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return engine.New(cfg)
}
