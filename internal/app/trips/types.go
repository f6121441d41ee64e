package trips

import "github.com/tourvisto/travel-planner-api/internal/domain"

// GenerateTripInput carries the traveller preferences for CreateTrip.
type GenerateTripInput struct {
	Country      string
	NumberOfDays int
	TravelStyle  string
	Interests    string
	Budget       string
	GroupType    string
}

// TripCreated is the minimal response returned when a trip is generated.
type TripCreated struct {
	ID domain.TripID
}

const (
	// DefaultPhotoCount bounds the images attached to a generated trip.
	DefaultPhotoCount = 3

	MaxTripDays = 30
)
