package savedsync

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
)

// Registry keeps one mounted Controller per subject.
type Registry struct {
	newController func() *Controller
	clk           clockport.Clock
	log           *zap.SugaredLogger

	mu    sync.Mutex
	views map[domain.SubjectID]*view
}

type view struct {
	c        *Controller
	lastSeen time.Time
}

func NewRegistry(newController func() *Controller, clk clockport.Clock, log *zap.SugaredLogger) *Registry {
	return &Registry{
		newController: newController,
		clk:           clk,
		log:           logging.OrNop(log),
		views:         map[domain.SubjectID]*view{},
	}
}

// Mount returns the subject's controller, creating one when none is mounted.
func (r *Registry) Mount(subject domain.SubjectID) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clk.Now()
	if v, ok := r.views[subject]; ok && !v.c.Closed() {
		v.lastSeen = now
		return v.c
	}
	c := r.newController()
	r.views[subject] = &view{c: c, lastSeen: now}
	r.log.Debugw("saved-trips view mounted", "subject", subject)
	return c
}

// Lookup returns the mounted controller without creating one.
func (r *Registry) Lookup(subject domain.SubjectID) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[subject]
	if !ok {
		return nil, false
	}
	v.lastSeen = r.clk.Now()
	return v.c, true
}

// Unmount closes and forgets the subject's controller.
func (r *Registry) Unmount(subject domain.SubjectID) bool {
	r.mu.Lock()
	v, ok := r.views[subject]
	delete(r.views, subject)
	r.mu.Unlock()
	if ok {
		v.c.Close()
	}
	return ok
}

// EvictIdle unmounts views not touched within ttl and returns how many were dropped.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	cutoff := r.clk.Now().Add(-ttl)
	var stale []*Controller

	r.mu.Lock()
	for sub, v := range r.views {
		if v.lastSeen.Before(cutoff) {
			stale = append(stale, v.c)
			delete(r.views, sub)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	if len(stale) > 0 {
		r.log.Infow("evicted idle saved-trips views", "count", len(stale))
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
