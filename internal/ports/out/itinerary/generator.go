package itinerary

import "context"

// Request carries the traveller's preferences for a generated itinerary.
type Request struct {
	Country      string
	NumberOfDays int
	TravelStyle  string
	Interests    string
	Budget       string
	GroupType    string
}

// Generator returns model text expected to parse as a serialized trip detail.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
