package providers

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpetrin/tripweave/pkg/api"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Catalog is a static travel inventory loaded from a YAML document. It
// implements every search collaborator plus the exchange-rate provider,
// which makes it a complete offline substitute for live APIs.
type Catalog struct {
	Locations  []catalogLocation          `yaml:"locations"`
	Flights    []catalogFlight            `yaml:"flights"`
	Hotels     []catalogHotel             `yaml:"hotels"`
	Activities []catalogActivity             `yaml:"activities"`
	RateTables map[string]map[string]float64 `yaml:"rates"`
}

type catalogLocation struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type catalogFlight struct {
	Origin      string           `yaml:"origin"`
	Destination string           `yaml:"destination"`
	Price       float64          `yaml:"price"`
	Currency    string           `yaml:"currency"`
	Segments    []catalogSegment `yaml:"segments"`
}

type catalogSegment struct {
	Airline       string `yaml:"airline"`
	From          string `yaml:"from"`
	To            string `yaml:"to"`
	DepartureTime string `yaml:"departure_time"` // HH:MM, applied to the requested date
	ArrivalTime   string `yaml:"arrival_time"`
	Stops         int    `yaml:"stops"`
}

type catalogHotel struct {
	CityCode      string  `yaml:"city_code"`
	Name          string  `yaml:"name"`
	PricePerNight float64 `yaml:"price_per_night"`
	Currency      string  `yaml:"currency"`
	Rating        float64 `yaml:"rating"`
	DistanceKM    float64 `yaml:"distance_km"`
}

type catalogActivity struct {
	CityCode string  `yaml:"city_code"`
	Name     string  `yaml:"name"`
	Price    float64 `yaml:"price"`
	Currency string  `yaml:"currency"`
	Category string  `yaml:"category"`
}

// NewCatalog loads the embedded fixture inventory.
func NewCatalog() (*Catalog, error) {
	return ParseCatalog(fixturesYAML)
}

// ParseCatalog loads a catalog from raw YAML, for callers that ship
// their own inventory file.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Collaborators wires the catalog into every slot except the LLM.
func (c *Catalog) Collaborators(llm api.LLMClient) api.Collaborators {
	return api.Collaborators{
		LLM:        llm,
		Flights:    c,
		Hotels:     c,
		Activities: c,
		Locations:  c,
		Rates:      c,
	}
}

// SearchLocations matches the keyword against known city names and
// aliases, case-insensitively.
func (c *Catalog) SearchLocations(ctx context.Context, keyword string) ([]api.LocationMatch, error) {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil, nil
	}
	var out []api.LocationMatch
	for _, loc := range c.Locations {
		if locationMatches(loc, needle) {
			out = append(out, api.LocationMatch{Code: loc.Code, Name: loc.Name})
		}
	}
	return out, nil
}

func locationMatches(loc catalogLocation, needle string) bool {
	if strings.Contains(strings.ToLower(loc.Name), needle) {
		return true
	}
	if strings.EqualFold(loc.Code, needle) {
		return true
	}
	for _, kw := range loc.Keywords {
		if strings.Contains(strings.ToLower(kw), needle) || strings.Contains(needle, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// SearchFlights returns catalog flights on the requested route,
// with segment times anchored to the departure date.
func (c *Catalog) SearchFlights(ctx context.Context, crit api.FlightCriteria) ([]api.FlightOption, error) {
	var out []api.FlightOption
	for _, f := range c.Flights {
		if !strings.EqualFold(f.Origin, crit.Origin) || !strings.EqualFold(f.Destination, crit.Destination) {
			continue
		}
		opt := api.FlightOption{Price: f.Price, Currency: f.Currency}
		for _, s := range f.Segments {
			opt.Segments = append(opt.Segments, api.FlightSegment{
				Airline:          s.Airline,
				DepartureAirport: s.From,
				ArrivalAirport:   s.To,
				DepartureTime:    onDate(crit.DepartureDate, s.DepartureTime),
				ArrivalTime:      onDate(crit.DepartureDate, s.ArrivalTime),
				Stops:            s.Stops,
			})
		}
		out = append(out, opt)
		if crit.MaxResults > 0 && len(out) >= crit.MaxResults {
			break
		}
	}
	return out, nil
}

// onDate combines a YYYY-MM-DD date and an HH:MM clock time into an
// RFC 3339 timestamp. Missing pieces fall through unchanged.
func onDate(date, clock string) string {
	if date == "" || clock == "" {
		return clock
	}
	return date + "T" + clock + ":00Z"
}

// SearchHotels returns catalog hotels for the city code.
func (c *Catalog) SearchHotels(ctx context.Context, crit api.HotelCriteria) ([]api.HotelOption, error) {
	var out []api.HotelOption
	for _, h := range c.Hotels {
		if !strings.EqualFold(h.CityCode, crit.CityCode) {
			continue
		}
		out = append(out, api.HotelOption{
			Name:          h.Name,
			PricePerNight: h.PricePerNight,
			Currency:      h.Currency,
			Rating:        h.Rating,
			Distance:      h.DistanceKM,
		})
		if crit.MaxResults > 0 && len(out) >= crit.MaxResults {
			break
		}
	}
	return out, nil
}

// SearchActivities returns catalog activities for the city code. When
// interests are given the list narrows to category and name matches,
// but only if at least one activity matches.
func (c *Catalog) SearchActivities(ctx context.Context, crit api.ActivityCriteria) ([]api.ActivityOption, error) {
	var all, matched []api.ActivityOption
	needle := strings.ToLower(strings.TrimSpace(crit.Interests))
	for _, a := range c.Activities {
		if !strings.EqualFold(a.CityCode, crit.CityCode) {
			continue
		}
		opt := api.ActivityOption{Name: a.Name, Price: a.Price, Currency: a.Currency, Category: a.Category}
		all = append(all, opt)
		if needle != "" && (strings.Contains(strings.ToLower(a.Category), needle) ||
			strings.Contains(needle, strings.ToLower(a.Category)) ||
			strings.Contains(strings.ToLower(a.Name), needle)) {
			matched = append(matched, opt)
		}
	}
	out := all
	if len(matched) > 0 {
		out = matched
	}
	if crit.MaxResults > 0 && len(out) > crit.MaxResults {
		out = out[:crit.MaxResults]
	}
	return out, nil
}

// Rates returns the conversion table for the base currency, mirroring
// the shape of the Frankfurter latest-rates API.
func (c *Catalog) Rates(ctx context.Context, base string) (map[string]float64, error) {
	table, ok := c.RateTables[strings.ToUpper(base)]
	if !ok {
		return nil, fmt.Errorf("no rates for base currency %q", base)
	}
	out := make(map[string]float64, len(table))
	for cur, rate := range table {
		out[strings.ToUpper(cur)] = rate
	}
	return out, nil
}
