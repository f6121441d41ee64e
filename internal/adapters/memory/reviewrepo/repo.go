package reviewrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
)

// Repo is an in-memory implementation of reviewrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.ReviewID]domain.Review
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.ReviewID]domain.Review)}
}

func (r *Repo) Create(ctx context.Context, rv domain.Review) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rv.ID] = cloneReview(rv)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ReviewID) (domain.Review, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.byID[id]
	if !ok {
		return domain.Review{}, reviewrepo.ErrNotFound
	}
	return cloneReview(rv), nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ReviewID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return reviewrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Review, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Review, 0)
	for _, rv := range r.byID {
		if rv.TripID == tripID {
			out = append(out, cloneReview(rv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return string(out[i].ID) < string(out[j].ID)
	})
	return out, nil
}

func cloneReview(rv domain.Review) domain.Review {
	cp := rv
	if rv.UserAvatar != nil {
		v := *rv.UserAvatar
		cp.UserAvatar = &v
	}
	if rv.Rating != nil {
		v := *rv.Rating
		cp.Rating = &v
	}
	if rv.Permissions != nil {
		cp.Permissions = append([]domain.Grant(nil), rv.Permissions...)
	}
	return cp
}
