package api

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the conversation history.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// TravelClass is the cabin class requested for flight searches.
type TravelClass string

const (
	ClassEconomy  TravelClass = "ECONOMY"
	ClassBusiness TravelClass = "BUSINESS"
	ClassFirst    TravelClass = "FIRST"
)

// Plan holds the structured trip plan extracted from the conversation.
// RemainingBudget is decremented by every step that commits a cost; the
// decrement must go through TripState.CommitCost so that the converted
// currency is recorded alongside it.
type Plan struct {
	Destination     string  `json:"destination"`
	Origin          string  `json:"origin"`
	DepartureDate   string  `json:"departure_date"` // YYYY-MM-DD
	ArrivalDate     string  `json:"arrival_date"`   // YYYY-MM-DD
	TotalBudget     float64 `json:"total_budget"`
	BudgetCurrency  string  `json:"budget_currency"`
	RemainingBudget float64 `json:"remaining_budget"`
	Interests       string  `json:"interests"`
	NeedHotel       bool    `json:"need_hotel"`
	NeedActivities  bool    `json:"need_activities"`
}

// Nights returns the stay length in nights, floored at 1.
func (p *Plan) Nights() int {
	dep, err1 := time.Parse("2006-01-02", p.DepartureDate)
	arr, err2 := time.Parse("2006-01-02", p.ArrivalDate)
	if err1 != nil || err2 != nil {
		return 1
	}
	n := int(arr.Sub(dep).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// PassengerCounts describes the travelling party.
type PassengerCounts struct {
	Adults      int         `json:"adults"`
	Children    int         `json:"children"`
	Infants     int         `json:"infants"`
	TravelClass TravelClass `json:"travel_class"`
}

// ResolvedCodes holds the three-letter location codes for both ends of the trip.
type ResolvedCodes struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// FlightSegment is one leg of a flight itinerary.
type FlightSegment struct {
	Airline          string `json:"airline"`
	DepartureAirport string `json:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport"`
	DepartureTime    string `json:"departure_time"` // RFC 3339
	ArrivalTime      string `json:"arrival_time"`   // RFC 3339
	Stops            int    `json:"stops"`
}

// FlightOption is one candidate returned by a flight search.
type FlightOption struct {
	Price    float64         `json:"price"`
	Currency string          `json:"currency"`
	Segments []FlightSegment `json:"segments"`
}

// HotelOption is one candidate returned by a hotel search.
type HotelOption struct {
	Name          string  `json:"name"`
	PricePerNight float64 `json:"price_per_night"`
	Currency      string  `json:"currency"`
	Rating        float64 `json:"rating"`
	Distance      float64 `json:"distance_km"`
}

// ActivityOption is one candidate returned by an activity search.
type ActivityOption struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Category string  `json:"category"`
}

// FlightResults holds the raw flight candidates plus the selected index.
type FlightResults struct {
	Options  []FlightOption `json:"options"`
	Selected *int           `json:"selected,omitempty"`
}

// HotelResults holds the raw hotel candidates plus the selected index.
type HotelResults struct {
	Options  []HotelOption `json:"options"`
	Selected *int          `json:"selected,omitempty"`
}

// ActivityResults holds the raw activity candidates. Activities are not
// selected individually; all of them feed the itinerary.
type ActivityResults struct {
	Options []ActivityOption `json:"options"`
}

// CostLine records a single budget decrement: the original amount, the
// currency it was converted from, and the converted amount in the plan's
// budget currency. FallbackRate marks lines priced with the 1:1 fallback
// after a rate-provider failure.
type CostLine struct {
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	FromCurrency string  `json:"from_currency"`
	Converted    float64 `json:"converted"`
	Currency     string  `json:"currency"`
	FallbackRate bool    `json:"fallback_rate,omitempty"`
}

// FeatureFlags toggle optional steps for controlled evaluation runs.
type FeatureFlags struct {
	UsePlanner    bool `json:"use_planner"`
	UseLiveSearch bool `json:"use_live_search"`
	UseCritique   bool `json:"use_critique"`
}

// DefaultFlags enables every step.
func DefaultFlags() FeatureFlags {
	return FeatureFlags{UsePlanner: true, UseLiveSearch: true, UseCritique: true}
}

// TripState is the aggregate root threaded through every step of a
// conversation. It is mutated in place by steps and persisted as a flat
// JSON document after each one.
type TripState struct {
	ConversationID string    `json:"conversation_id"`
	History        []Message `json:"conversation_history"`

	Plan       *Plan            `json:"plan,omitempty"`
	Passengers *PassengerCounts `json:"passenger_counts,omitempty"`
	Codes      *ResolvedCodes   `json:"resolved_codes,omitempty"`

	Flights    *FlightResults   `json:"flight_results,omitempty"`
	Hotels     *HotelResults    `json:"hotel_results,omitempty"`
	Activities *ActivityResults `json:"activity_results,omitempty"`

	DraftItinerary string `json:"draft_itinerary,omitempty"`
	Critique       string `json:"critique,omitempty"`
	RevisionCount  int    `json:"revision_count"`

	PendingQuestion string `json:"pending_question,omitempty"`
	AwaitingStep    string `json:"awaiting_step,omitempty"`

	LastError      string     `json:"last_error,omitempty"`
	LastFailedStep string     `json:"last_failed_step,omitempty"`
	Costs          []CostLine `json:"cost_lines,omitempty"`

	Flags FeatureFlags `json:"feature_flags"`

	// CheckpointSeq is the sequence number of the last persisted checkpoint.
	CheckpointSeq int `json:"checkpoint_seq"`
}

// NewTripState creates an empty state for a conversation id.
func NewTripState(conversationID string) *TripState {
	return &TripState{
		ConversationID: conversationID,
		Flags:          DefaultFlags(),
	}
}

// AppendMessage adds a message to the conversation history.
func (s *TripState) AppendMessage(role Role, text string) {
	s.History = append(s.History, Message{Role: role, Text: text})
}

// LatestUserMessage returns the most recent user message, or "".
func (s *TripState) LatestUserMessage() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleUser {
			return s.History[i].Text
		}
	}
	return ""
}

// RequestInput pauses the pipeline: it records the question to ask the
// human and the step that raised it. The two fields are always set
// together; Paused reports whether they are.
func (s *TripState) RequestInput(step, question string) {
	s.AwaitingStep = step
	s.PendingQuestion = question
	s.AppendMessage(RoleAssistant, question)
}

// ClearPending clears the pending question and its attribution together.
func (s *TripState) ClearPending() {
	s.PendingQuestion = ""
	s.AwaitingStep = ""
}

// Paused reports whether the pipeline is waiting on a human answer.
func (s *TripState) Paused() bool {
	return s.PendingQuestion != "" && s.AwaitingStep != ""
}

// ErrCurrencyMismatch is returned by CommitCost when the converted currency
// does not match the plan's budget currency.
var ErrCurrencyMismatch = errors.New("cost currency does not match budget currency")

// CommitCost appends a cost line and decrements the remaining budget.
// The converted currency must match the plan's budget currency; a step must
// never touch RemainingBudget without recording what it converted from.
func (s *TripState) CommitCost(line CostLine) error {
	if s.Plan == nil {
		return errors.New("no plan to commit a cost against")
	}
	if line.Currency != s.Plan.BudgetCurrency {
		return fmt.Errorf("%w: got %q, budget is %q", ErrCurrencyMismatch, line.Currency, s.Plan.BudgetCurrency)
	}
	s.Costs = append(s.Costs, line)
	s.Plan.RemainingBudget -= line.Converted
	return nil
}

// ErrAlreadyPopulated is returned when a step tries to overwrite a search
// category that an earlier invocation already filled.
var ErrAlreadyPopulated = errors.New("search category already populated")

// SetFlightResults populates the flight category. A category is written by
// at most one step; re-entry after a pause must go through ResetSearches if
// it genuinely needs fresh data.
func (s *TripState) SetFlightResults(r *FlightResults) error {
	if s.Flights != nil {
		return fmt.Errorf("%w: flights", ErrAlreadyPopulated)
	}
	s.Flights = r
	return nil
}

// SetHotelResults populates the hotel category.
func (s *TripState) SetHotelResults(r *HotelResults) error {
	if s.Hotels != nil {
		return fmt.Errorf("%w: hotels", ErrAlreadyPopulated)
	}
	s.Hotels = r
	return nil
}

// SetActivityResults populates the activity category.
func (s *TripState) SetActivityResults(r *ActivityResults) error {
	if s.Activities != nil {
		return fmt.Errorf("%w: activities", ErrAlreadyPopulated)
	}
	s.Activities = r
	return nil
}

// ResetSearches discards all search results, selections and committed
// costs, restoring the remaining budget to the total. Used when the
// destination changes and every category needs a refresh.
func (s *TripState) ResetSearches() {
	s.Flights = nil
	s.Hotels = nil
	s.Activities = nil
	s.Codes = nil
	s.Costs = nil
	s.DraftItinerary = ""
	s.Critique = ""
	if s.Plan != nil {
		s.Plan.RemainingBudget = s.Plan.TotalBudget
	}
}

// SelectedFlight returns the chosen flight option, if any.
func (s *TripState) SelectedFlight() (FlightOption, bool) {
	if s.Flights == nil || s.Flights.Selected == nil {
		return FlightOption{}, false
	}
	i := *s.Flights.Selected
	if i < 0 || i >= len(s.Flights.Options) {
		return FlightOption{}, false
	}
	return s.Flights.Options[i], true
}

// SelectedHotel returns the chosen hotel option, if any.
func (s *TripState) SelectedHotel() (HotelOption, bool) {
	if s.Hotels == nil || s.Hotels.Selected == nil {
		return HotelOption{}, false
	}
	i := *s.Hotels.Selected
	if i < 0 || i >= len(s.Hotels.Options) {
		return HotelOption{}, false
	}
	return s.Hotels.Options[i], true
}
