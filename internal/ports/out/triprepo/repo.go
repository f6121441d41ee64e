package triprepo

import (
	"context"
	"time"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Trip is the persistence shape used by the trip repository.
// Detail holds the serialized itinerary (see domain.ParseTripDetail).
type Trip struct {
	ID     domain.TripID
	UserID domain.UserID

	Detail      string
	ImageURLs   []string
	PaymentLink *string

	CreatedAt time.Time
}

// Repository provides access to persisted trips.
//
// Result ordering expectations:
// - List returns trips ordered by CreatedAt descending, ties broken by ID ascending.
type Repository interface {
	Create(ctx context.Context, t Trip) error
	GetByID(ctx context.Context, id domain.TripID) (Trip, error)

	// List returns one page of trips and the total number of trips in the store.
	List(ctx context.Context, limit, offset int) ([]Trip, int, error)

	// SetPaymentLink records the checkout URL provisioned for the trip.
	SetPaymentLink(ctx context.Context, id domain.TripID, url string) error

	Delete(ctx context.Context, id domain.TripID) error

	// CountByUser counts trips created by each of the given users.
	CountByUser(ctx context.Context, ids []domain.UserID) (map[domain.UserID]int, error)
}
