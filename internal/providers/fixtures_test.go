package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpetrin/tripweave/pkg/api"
)

func flightCriteria(origin, dest, date string) api.FlightCriteria {
	return api.FlightCriteria{Origin: origin, Destination: dest, DepartureDate: date, Adults: 1, MaxResults: 10}
}

func hotelCriteria(city string) api.HotelCriteria {
	return api.HotelCriteria{CityCode: city, CheckInDate: "2026-10-01", CheckOutDate: "2026-10-08", Adults: 1, MaxResults: 10}
}

func activityCriteria(city, interests string) api.ActivityCriteria {
	return api.ActivityCriteria{CityCode: city, Interests: interests, MaxResults: 10}
}

func TestNewCatalogLoadsEmbeddedInventory(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, c.Locations)
	require.NotEmpty(t, c.Flights)
	require.NotEmpty(t, c.Hotels)
	require.NotEmpty(t, c.Activities)
	require.NotEmpty(t, c.RateTables)
}

func TestCatalogSearchLocations(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog()
	require.NoError(t, err)
	ctx := context.Background()

	matches, err := c.SearchLocations(ctx, "Paris")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "PAR", matches[0].Code)

	// Ambiguous names return every candidate; resolution is the
	// pipeline's job, not the catalog's.
	matches, err = c.SearchLocations(ctx, "Springfield")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = c.SearchLocations(ctx, "Atlantis")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestCatalogSearchFlightsFiltersRoute(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog()
	require.NoError(t, err)

	opts, err := c.SearchFlights(context.Background(), flightCriteria("NYC", "PAR", "2026-10-01"))
	require.NoError(t, err)
	require.NotEmpty(t, opts)
	for _, opt := range opts {
		require.NotEmpty(t, opt.Segments)
		require.Contains(t, opt.Segments[0].DepartureTime, "2026-10-01T",
			"segment times are anchored to the requested date")
	}

	none, err := c.SearchFlights(context.Background(), flightCriteria("PAR", "TYO", "2026-10-01"))
	require.NoError(t, err)
	require.Empty(t, none, "an unserved route is an empty result, not an error")
}

func TestCatalogSearchHotelsAndActivities(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog()
	require.NoError(t, err)
	ctx := context.Background()

	hotels, err := c.SearchHotels(ctx, hotelCriteria("PAR"))
	require.NoError(t, err)
	require.NotEmpty(t, hotels)
	for _, h := range hotels {
		require.Equal(t, "EUR", h.Currency)
	}

	acts, err := c.SearchActivities(ctx, activityCriteria("PAR", "museums"))
	require.NoError(t, err)
	require.NotEmpty(t, acts)
	for _, a := range acts {
		require.Equal(t, "museums", a.Category, "interest filter narrows to matches")
	}

	// An interest nothing matches falls back to the full city list.
	all, err := c.SearchActivities(ctx, activityCriteria("PAR", "spelunking"))
	require.NoError(t, err)
	require.Greater(t, len(all), 1)
}

func TestCatalogRates(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog()
	require.NoError(t, err)

	table, err := c.Rates(context.Background(), "usd")
	require.NoError(t, err)
	require.InDelta(t, 0.92, table["EUR"], 1e-9)

	_, err = c.Rates(context.Background(), "XXX")
	require.Error(t, err, "unknown bases fail so the normalizer can fall back")
}

func TestParseCatalogRejectsBadYAML(t *testing.T) {
	t.Parallel()

	_, err := ParseCatalog([]byte("locations: [unclosed"))
	require.Error(t, err)
}
