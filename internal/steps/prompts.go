package steps

import (
	"fmt"
	"strings"

	"github.com/mpetrin/tripweave/pkg/api"
)

func planPrompt(st *api.TripState, today string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a travel architect. Today is %s.
Extract trip details from the conversation below into JSON.

Date format: YYYY-MM-DD. If the user says "tomorrow", calculate from today.
If the user says "for a week", the arrival date is 7 days after departure.
Use null for anything the user did not state clearly.

Return JSON:
{
  "destination": "City, Country" or null,
  "origin": "City, Country" or null,
  "departure_date": "YYYY-MM-DD" or null,
  "arrival_date": "YYYY-MM-DD" or null,
  "budget": number or null,
  "budget_currency": "ISO code" or null,
  "interests": "string",
  "need_hotel": true/false,
  "need_activities": true/false
}

CONVERSATION:
`, today)
	for _, m := range st.History {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	return b.String()
}

func locationPrompt(name string, matches []api.LocationMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I am looking for the three-letter city code for: %s.\nCandidates:\n", name)
	for _, m := range matches {
		fmt.Fprintf(&b, "  %s — %s\n", m.Code, m.Name)
	}
	b.WriteString("\nReturn ONLY the single best-matching three-letter code. Nothing else.")
	return b.String()
}

func passengerPrompt(message string) string {
	return fmt.Sprintf(`Extract passenger information from the user message.
If anything is unclear, use null and report low confidence.

USER MESSAGE:
%s

Return JSON:
{
  "adults": number or null,
  "children": number or null,
  "infants": number or null,
  "travel_class": "ECONOMY"/"BUSINESS"/"FIRST" or null,
  "confidence": "high"/"medium"/"low"
}`, message)
}

func flightRankPrompt(st *api.TripState, options []api.FlightOption) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Select the best flight for the traveller.
Remaining budget: %.2f %s. Weigh price against convenience (fewer stops,
shorter layovers, civilised departure times).

OPTIONS:
%s
Return JSON:
{"selected_index": 0, "reasoning": "one sentence"}`,
		st.Plan.RemainingBudget, st.Plan.BudgetCurrency, formatFlights(options))
	return b.String()
}

func formatFlights(options []api.FlightOption) string {
	var b strings.Builder
	for i, opt := range options {
		fmt.Fprintf(&b, "Offer #%d — %.2f %s\n", i, opt.Price, opt.Currency)
		for _, seg := range opt.Segments {
			fmt.Fprintf(&b, "  %s: %s %s -> %s %s (stops: %d)\n",
				seg.Airline, seg.DepartureAirport, seg.DepartureTime,
				seg.ArrivalAirport, seg.ArrivalTime, seg.Stops)
		}
	}
	return b.String()
}

func hotelRankPrompt(st *api.TripState, options []api.HotelOption, nights int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Select the best hotel for a %d-night stay.
Remaining budget: %.2f %s. Weigh total price against rating and location.

OPTIONS:
`, nights, st.Plan.RemainingBudget, st.Plan.BudgetCurrency)
	for i, opt := range options {
		fmt.Fprintf(&b, "Offer #%d — %s: %.2f %s/night, rating %.1f, %.1f km from centre\n",
			i, opt.Name, opt.PricePerNight, opt.Currency, opt.Rating, opt.Distance)
	}
	b.WriteString("\nReturn JSON:\n{\"selected_index\": 0, \"reasoning\": \"one sentence\"}")
	return b.String()
}

func draftPrompt(st *api.TripState) string {
	var b strings.Builder
	b.WriteString(`You are an expert travel planner. Write the itinerary.

OUTPUT GUIDELINES:
- Clean sections, bullet points, short paragraphs.
- Full overview plus a day-by-day breakdown.
- Include estimated costs where available.
- If data is missing (e.g. no hotel), say so politely and suggest next steps.

DATA:
`)
	if st.Plan != nil {
		fmt.Fprintf(&b, "Destination: %s\nDates: %s to %s\n",
			st.Plan.Destination, st.Plan.DepartureDate, st.Plan.ArrivalDate)
		fmt.Fprintf(&b, "Budget: %.2f %s total, %.2f remaining\n",
			st.Plan.TotalBudget, st.Plan.BudgetCurrency, st.Plan.RemainingBudget)
		if st.Plan.Interests != "" {
			fmt.Fprintf(&b, "Interests: %s\n", st.Plan.Interests)
		}
	}
	if st.Passengers != nil {
		fmt.Fprintf(&b, "Travellers: %d adults, %d children, %d infants, class %s\n",
			st.Passengers.Adults, st.Passengers.Children, st.Passengers.Infants, st.Passengers.TravelClass)
	}
	if flight, ok := st.SelectedFlight(); ok {
		fmt.Fprintf(&b, "Selected flight:\n%s", formatFlights([]api.FlightOption{flight}))
	}
	if hotel, ok := st.SelectedHotel(); ok {
		fmt.Fprintf(&b, "Selected hotel: %s, %.2f %s/night, rating %.1f\n",
			hotel.Name, hotel.PricePerNight, hotel.Currency, hotel.Rating)
	}
	if st.Activities != nil {
		b.WriteString("Activities:\n")
		for _, a := range st.Activities.Options {
			fmt.Fprintf(&b, "  %s (%s) — %.2f %s\n", a.Name, a.Category, a.Price, a.Currency)
		}
	}
	if len(st.Costs) > 0 {
		b.WriteString("Committed costs:\n")
		for _, c := range st.Costs {
			fmt.Fprintf(&b, "  %s: %.2f %s", c.Category, c.Converted, c.Currency)
			if c.FallbackRate {
				fmt.Fprintf(&b, " (approximate: converted from %s at 1:1)", c.FromCurrency)
			}
			b.WriteString("\n")
		}
	}
	if strings.HasPrefix(st.Critique, "rejected:") {
		fmt.Fprintf(&b, `
CRITICAL: your previous draft was rejected.
Reason: %s
You must fix this in this version.
`, strings.TrimSpace(strings.TrimPrefix(st.Critique, "rejected:")))
	}
	return b.String()
}

func critiquePrompt(st *api.TripState) string {
	return fmt.Sprintf(`You are a strict travel quality-control agent.

PLAN CONSTRAINTS:
- Destination: %s
- Dates: %s to %s
- Budget limit: %.2f %s

ITINERARY:
%s

Check that the itinerary respects the constraints.
- If good: reply "APPROVE"
- If bad (wrong dates, wrong city, budget blown, hallucinations): reply "REJECT: [reason]"`,
		st.Plan.Destination, st.Plan.DepartureDate, st.Plan.ArrivalDate,
		st.Plan.TotalBudget, st.Plan.BudgetCurrency, st.DraftItinerary)
}
