package api

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay the pipeline.
type Observer interface {
	// OnTurnStart is called once per Advance call, after the checkpoint
	// has been loaded and the new message appended.
	OnTurnStart(ctx context.Context, st *TripState)

	// OnStepStart is called before invoking a step function.
	OnStepStart(ctx context.Context, st *TripState, stepName string)

	// OnStepCompleted is called after a step function returns, for both
	// successes and failures (err != nil).
	OnStepCompleted(ctx context.Context, st *TripState, stepName string, outcome Outcome, err error, duration time.Duration)

	// OnPause is called when a step pauses the turn with a question.
	OnPause(ctx context.Context, st *TripState, stepName, question string)

	// OnTurnCompleted is called when the turn reaches a terminal step.
	OnTurnCompleted(ctx context.Context, st *TripState)

	// OnTurnFailed is called when an Advance call fails outright
	// (checkpoint I/O errors; never ordinary step validation).
	OnTurnFailed(ctx context.Context, st *TripState, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnTurnStart(ctx context.Context, st *TripState)                  {}
func (NoopObserver) OnStepStart(ctx context.Context, st *TripState, stepName string) {}
func (NoopObserver) OnStepCompleted(ctx context.Context, st *TripState, stepName string, outcome Outcome, err error, d time.Duration) {
}
func (NoopObserver) OnPause(ctx context.Context, st *TripState, stepName, question string) {}
func (NoopObserver) OnTurnCompleted(ctx context.Context, st *TripState)                    {}
func (NoopObserver) OnTurnFailed(ctx context.Context, st *TripState, err error)            {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnTurnStart(ctx context.Context, st *TripState) {
	for _, o := range c.observers {
		o.OnTurnStart(ctx, st)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, st *TripState, stepName string) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, st, stepName)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, st *TripState, stepName string, outcome Outcome, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, st, stepName, outcome, err, d)
	}
}

func (c *CompositeObserver) OnPause(ctx context.Context, st *TripState, stepName, question string) {
	for _, o := range c.observers {
		o.OnPause(ctx, st, stepName, question)
	}
}

func (c *CompositeObserver) OnTurnCompleted(ctx context.Context, st *TripState) {
	for _, o := range c.observers {
		o.OnTurnCompleted(ctx, st)
	}
}

func (c *CompositeObserver) OnTurnFailed(ctx context.Context, st *TripState, err error) {
	for _, o := range c.observers {
		o.OnTurnFailed(ctx, st, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs turn / step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnTurnStart(ctx context.Context, st *TripState) {
	o.Logger.InfoContext(ctx, "turn_start",
		slog.String("conversation_id", st.ConversationID),
		slog.Int("messages", len(st.History)),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, st *TripState, stepName string) {
	o.Logger.InfoContext(ctx, "step_start",
		slog.String("conversation_id", st.ConversationID),
		slog.String("step", stepName),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, st *TripState, stepName string, outcome Outcome, err error, d time.Duration) {
	attrs := []any{
		slog.String("conversation_id", st.ConversationID),
		slog.String("step", stepName),
		slog.String("outcome", string(outcome.Kind)),
		slog.Duration("duration", d),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		o.Logger.ErrorContext(ctx, "step_completed", attrs...)
		return
	}
	o.Logger.InfoContext(ctx, "step_completed", attrs...)
}

func (o *LoggingObserver) OnPause(ctx context.Context, st *TripState, stepName, question string) {
	o.Logger.InfoContext(ctx, "turn_paused",
		slog.String("conversation_id", st.ConversationID),
		slog.String("step", stepName),
		slog.String("question", question),
	)
}

func (o *LoggingObserver) OnTurnCompleted(ctx context.Context, st *TripState) {
	o.Logger.InfoContext(ctx, "turn_completed",
		slog.String("conversation_id", st.ConversationID),
		slog.Int("revisions", st.RevisionCount),
	)
}

func (o *LoggingObserver) OnTurnFailed(ctx context.Context, st *TripState, err error) {
	o.Logger.ErrorContext(ctx, "turn_failed",
		slog.String("conversation_id", st.ConversationID),
		slog.String("error", err.Error()),
	)
}
