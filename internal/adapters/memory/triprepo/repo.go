package triprepo

import (
	"context"
	"sort"
	"sync"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

// Repo is an in-memory implementation of triprepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.TripID]triprepo.Trip
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.TripID]triprepo.Trip),
	}
}

func (r *Repo) Create(ctx context.Context, t triprepo.Trip) error {
	_ = ctx
	if t.ID == "" {
		return triprepo.ErrAlreadyExists // treat empty ID as invalid for now
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; ok {
		return triprepo.ErrAlreadyExists
	}
	r.byID[t.ID] = cloneTrip(t)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TripID) (triprepo.Trip, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return triprepo.Trip{}, triprepo.ErrNotFound
	}
	return cloneTrip(t), nil
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]triprepo.Trip, int, error) {
	_ = ctx
	r.mu.RLock()
	all := make([]triprepo.Trip, 0, len(r.byID))
	for _, t := range r.byID {
		all = append(all, t)
	}
	r.mu.RUnlock()

	sortNewestFirst(all)
	total := len(all)
	page := paginate(all, limit, offset)
	out := make([]triprepo.Trip, 0, len(page))
	for _, t := range page {
		out = append(out, cloneTrip(t))
	}
	return out, total, nil
}

func (r *Repo) SetPaymentLink(ctx context.Context, id domain.TripID, url string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return triprepo.ErrNotFound
	}
	t.PaymentLink = &url
	r.byID[id] = t
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.TripID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return triprepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) CountByUser(ctx context.Context, ids []domain.UserID) (map[domain.UserID]int, error) {
	_ = ctx
	want := make(map[domain.UserID]struct{}, len(ids))
	out := make(map[domain.UserID]int, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
		out[id] = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.byID {
		if _, ok := want[t.UserID]; ok {
			out[t.UserID]++
		}
	}
	return out, nil
}

func cloneTrip(t triprepo.Trip) triprepo.Trip {
	cp := t
	if t.ImageURLs != nil {
		cp.ImageURLs = append([]string(nil), t.ImageURLs...)
	}
	if t.PaymentLink != nil {
		v := *t.PaymentLink
		cp.PaymentLink = &v
	}
	return cp
}

func sortNewestFirst(ts []triprepo.Trip) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return string(a.ID) < string(b.ID)
	})
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
