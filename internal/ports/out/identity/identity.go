package identity

import (
	"context"
	"errors"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// ErrUnauthenticated indicates there is no active session for the caller.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver supplies the current authenticated user.
type Resolver interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (domain.User, error)

func (f ResolverFunc) CurrentUser(ctx context.Context) (domain.User, error) { return f(ctx) }
