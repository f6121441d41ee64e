package tripcache

import (
	"context"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Cache holds resolved trips keyed by id.
// A miss is reported as ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, id domain.TripID) (domain.Trip, bool, error)
	Set(ctx context.Context, t domain.Trip) error
	Invalidate(ctx context.Context, id domain.TripID) error
}
