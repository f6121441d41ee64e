package userrepo

import (
	"context"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Repository provides access to persisted users.
//
// Result ordering expectations:
// - List returns users ordered by CreatedAt descending (latest signups first), ties broken by ID.
type Repository interface {
	Create(ctx context.Context, u domain.User) error
	Update(ctx context.Context, u domain.User) error

	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error)

	// List returns one page of users and the total number of users.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)
}
