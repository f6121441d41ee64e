package httpapi

import (
	"context"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Principal is the authenticated caller as established by the auth middleware.
// Profile fields come from token claims and may be empty.
type Principal struct {
	Subject domain.SubjectID
	Email   string
	Name    string
	Picture string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.Subject != ""
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (domain.SubjectID, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.Subject, ok
}
