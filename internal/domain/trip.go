package domain

import "time"

type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

type DayPlan struct {
	Day        int        `json:"day"`
	Location   string     `json:"location"`
	Activities []Activity `json:"activities"`
}

type TripLocation struct {
	City          string    `json:"city"`
	Coordinates   []float64 `json:"coordinates,omitempty"`
	OpenStreetMap string    `json:"openStreetMap,omitempty"`
}

// TripDetail is the generated itinerary as persisted in the trip record's detail field.
type TripDetail struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	EstimatedPrice  string        `json:"estimatedPrice"`
	Duration        FlexInt       `json:"duration"`
	Budget          string        `json:"budget"`
	TravelStyle     string        `json:"travelStyle"`
	Country         string        `json:"country"`
	Interests       StringList    `json:"interests"`
	GroupType       string        `json:"groupType"`
	BestTimeToVisit []string      `json:"bestTimeToVisit,omitempty"`
	WeatherInfo     []string      `json:"weatherInfo,omitempty"`
	Location        *TripLocation `json:"location,omitempty"`
	Itinerary       []DayPlan     `json:"itinerary"`
	UserID          UserID        `json:"userId,omitempty"`
}

// Trip is the resolved read model: stored metadata plus the parsed detail.
type Trip struct {
	ID TripID
	TripDetail

	ImageURLs   []string
	PaymentLink *string
	CreatedAt   time.Time
}

// Thumbnail returns the first image URL, or "" when the trip has none.
func (t Trip) Thumbnail() string {
	if len(t.ImageURLs) == 0 {
		return ""
	}
	return t.ImageURLs[0]
}

// TripPage is one page of trips ordered by creation time descending.
type TripPage struct {
	Trips []Trip
	Total int
}
