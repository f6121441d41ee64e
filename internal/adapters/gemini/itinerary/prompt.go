package itinerary

import (
	"fmt"
	"strconv"

	"github.com/tourvisto/travel-planner-api/internal/ports/out/itinerary"
)

// BuildPrompt renders the itinerary instruction sent to the model.
// The schema block mirrors domain.TripDetail's JSON shape.
func BuildPrompt(req itinerary.Request) string {
	return fmt.Sprintf(`Generate a %d-day travel itinerary for %s based on the following user information:
Budget: '%s'
Interests: '%s'
TravelStyle: '%s'
GroupType: '%s'
Return the itinerary and lowest estimated price. You are to output ONLY valid JSON and nothing else.
Format exactly as in the schema provided.
Do not include any markdown, explanations, or extra text.
Schema:
{
  "name": "A descriptive title for the trip",
  "description": "A brief description of the trip and its highlights not exceeding 100 words",
  "estimatedPrice": "Lowest average price for the trip in USD, e.g.$price",
  "duration": %d,
  "budget": %s,
  "travelStyle": %s,
  "country": %s,
  "interests": %s,
  "groupType": %s,
  "bestTimeToVisit": [
    "Season (from month to month): reason to visit"
  ],
  "weatherInfo": [
    "Season: temperature range in Celsius (temperature range in Fahrenheit)"
  ],
  "location": {
    "city": "name of the city or region",
    "coordinates": [latitude, longitude],
    "openStreetMap": "link to open street map"
  },
  "itinerary": [
    {
      "day": 1,
      "location": "City/Region Name",
      "activities": [
        {"time": "Morning", "description": "What to do in the morning"},
        {"time": "Afternoon", "description": "What to do in the afternoon"},
        {"time": "Evening", "description": "What to do in the evening"}
      ]
    }
  ]
}`,
		req.NumberOfDays, req.Country,
		req.Budget, req.Interests, req.TravelStyle, req.GroupType,
		req.NumberOfDays,
		strconv.Quote(req.Budget),
		strconv.Quote(req.TravelStyle),
		strconv.Quote(req.Country),
		strconv.Quote(req.Interests),
		strconv.Quote(req.GroupType),
	)
}
