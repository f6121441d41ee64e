package savedrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
)

// Repo is an in-memory implementation of savedrepo.Repository.
// It is safe for concurrent use.
//
// Like the hosted store it stands in for, it does not enforce (user, trip) uniqueness.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.SavedLinkID]domain.SavedLink
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.SavedLinkID]domain.SavedLink),
	}
}

func (r *Repo) Create(ctx context.Context, l domain.SavedLink) error {
	_ = ctx
	if l.ID == "" {
		return savedrepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[l.ID]; ok {
		return savedrepo.ErrAlreadyExists
	}
	r.byID[l.ID] = cloneLink(l)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.SavedLinkID) (domain.SavedLink, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id]
	if !ok {
		return domain.SavedLink{}, savedrepo.ErrNotFound
	}
	return cloneLink(l), nil
}

func (r *Repo) Delete(ctx context.Context, id domain.SavedLinkID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return savedrepo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID domain.UserID, limit, offset int) ([]domain.SavedLink, int, error) {
	_ = ctx
	r.mu.RLock()
	matched := make([]domain.SavedLink, 0)
	for _, l := range r.byID {
		if l.UserID == userID {
			matched = append(matched, l)
		}
	}
	r.mu.RUnlock()

	sortOldestFirst(matched)
	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.SavedLink{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]domain.SavedLink, 0, end-offset)
	for _, l := range matched[offset:end] {
		out = append(out, cloneLink(l))
	}
	return out, total, nil
}

func (r *Repo) FindByUserAndTrip(ctx context.Context, userID domain.UserID, tripID domain.TripID) (domain.SavedLink, error) {
	_ = ctx
	r.mu.RLock()
	matched := make([]domain.SavedLink, 0, 1)
	for _, l := range r.byID {
		if l.UserID == userID && l.TripID == tripID {
			matched = append(matched, l)
		}
	}
	r.mu.RUnlock()
	if len(matched) == 0 {
		return domain.SavedLink{}, savedrepo.ErrNotFound
	}
	sortOldestFirst(matched)
	return cloneLink(matched[0]), nil
}

func cloneLink(l domain.SavedLink) domain.SavedLink {
	cp := l
	if l.Permissions != nil {
		cp.Permissions = append([]domain.Grant(nil), l.Permissions...)
	}
	return cp
}

func sortOldestFirst(ls []domain.SavedLink) {
	sort.Slice(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return string(a.ID) < string(b.ID)
	})
}
