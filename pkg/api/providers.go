package api

import (
	"context"

	"github.com/mpetrin/tripweave/pkg/currency"
)

// LLMClient is the language-model collaborator. Calls are synchronous,
// blocking, and fallible; empty or garbled output is a parse failure for
// the calling step, not a crash.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FlightCriteria is the typed input to a flight search.
type FlightCriteria struct {
	Origin        string // three-letter code
	Destination   string // three-letter code
	DepartureDate string
	ReturnDate    string
	Adults        int
	TravelClass   TravelClass
	MaxResults    int
}

// FlightSearcher searches flight offers. An empty result list is a valid,
// expected outcome and routes to a pause, not an error.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, c FlightCriteria) ([]FlightOption, error)
}

// HotelCriteria is the typed input to a hotel search.
type HotelCriteria struct {
	CityCode     string
	CheckInDate  string
	CheckOutDate string
	Adults       int
	MaxResults   int
}

// HotelSearcher searches hotel offers.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, c HotelCriteria) ([]HotelOption, error)
}

// ActivityCriteria is the typed input to an activity search.
type ActivityCriteria struct {
	CityCode   string
	Interests  string
	MaxResults int
}

// ActivitySearcher searches activities at the destination.
type ActivitySearcher interface {
	SearchActivities(ctx context.Context, c ActivityCriteria) ([]ActivityOption, error)
}

// LocationMatch is one candidate returned by a location lookup.
type LocationMatch struct {
	Code string
	Name string
}

// LocationResolver converts free-text place names into three-letter codes.
type LocationResolver interface {
	SearchLocations(ctx context.Context, keyword string) ([]LocationMatch, error)
}

// Collaborators groups every external dependency of the engine. All of
// them are passed explicitly to the constructor; there are no ambient
// globals.
type Collaborators struct {
	LLM        LLMClient
	Flights    FlightSearcher
	Hotels     HotelSearcher
	Activities ActivitySearcher
	Locations  LocationResolver
	Rates      currency.RateProvider
}
