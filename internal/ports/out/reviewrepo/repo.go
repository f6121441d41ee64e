package reviewrepo

import (
	"context"
	"errors"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

var ErrNotFound = errors.New("review not found")

// Repository provides access to trip reviews.
//
// Result ordering expectations:
// - ListByTrip returns reviews ordered by CreatedAt descending (newest first).
type Repository interface {
	Create(ctx context.Context, r domain.Review) error
	GetByID(ctx context.Context, id domain.ReviewID) (domain.Review, error)
	Delete(ctx context.Context, id domain.ReviewID) error
	ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Review, error)
}
