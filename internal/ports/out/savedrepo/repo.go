package savedrepo

import (
	"context"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Repository provides access to saved-trip links.
//
// The store does not enforce (UserID, TripID) uniqueness by itself; callers
// check FindByUserAndTrip before Create.
//
// Result ordering expectations:
// - ListByUser returns links ordered by CreatedAt ascending, ties broken by ID.
type Repository interface {
	Create(ctx context.Context, l domain.SavedLink) error
	GetByID(ctx context.Context, id domain.SavedLinkID) (domain.SavedLink, error)
	Delete(ctx context.Context, id domain.SavedLinkID) error

	// ListByUser returns one page of links for the user and the total matching count.
	// A limit of zero or less returns every link from offset on.
	ListByUser(ctx context.Context, userID domain.UserID, limit, offset int) ([]domain.SavedLink, int, error)

	// FindByUserAndTrip returns ErrNotFound when the pair has no link.
	FindByUserAndTrip(ctx context.Context, userID domain.UserID, tripID domain.TripID) (domain.SavedLink, error)
}
