// Package savedsync keeps one view's saved-trip state in step with the
// saved-link store: it loads the user's saved trips once per mount and
// serializes save/unsave toggles per trip.
package savedsync

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/identity"
)

const (
	LoginRequiredMessage = "Please log in to save trips."
	toggleFailedPrefix   = "Couldn't update saved trips: "
	toggleFailedFallback = "Failed to update saved trips. Please try again."

	// LoadPageSize is the number of links read on load.
	LoadPageSize = 500

	// DefaultFetchConcurrency bounds parallel trip resolution during load.
	DefaultFetchConcurrency = 8
)

// ErrLoginRequired is returned by Toggle when there is no authenticated user.
var ErrLoginRequired = errors.New("login required")

// SavedStore is the saved-link data access the controller depends on.
type SavedStore interface {
	SaveTripForUser(ctx context.Context, userID domain.UserID, tripID domain.TripID) (domain.SavedLink, error)
	UnsaveByID(ctx context.Context, callerID domain.UserID, id domain.SavedLinkID) error
	GetSavedTripsByUser(ctx context.Context, userID domain.UserID, limit, offset int) (domain.SavedPage, error)
}

// TripSource resolves trip details. A nil trip with a nil error means not found.
type TripSource interface {
	GetTrip(ctx context.Context, id domain.TripID) (*domain.Trip, error)
}

// ToggleResult reports the state of the trip after Toggle returns.
type ToggleResult struct {
	// InFlight is set when another toggle for the trip was already running
	// and this call made no change.
	InFlight bool
	Saved    bool
	SavedID  domain.SavedLinkID
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	UserID     domain.UserID
	SavedMap   map[domain.TripID]domain.SavedLinkID
	SavedTrips []domain.Trip
	Saving     map[domain.TripID]bool
	Geometry   Geometry
	LeftArrow  bool
	RightArrow bool
}

// Controller owns the saved-trip state of one mounted view. It is safe for
// concurrent use; no lock is held across a store call.
type Controller struct {
	identity identity.Resolver
	saved    SavedStore
	trips    TripSource
	notify   Notifier
	log      *zap.SugaredLogger

	fetchConcurrency int

	loadOnce sync.Once

	mu         sync.Mutex
	closed     bool
	userID     domain.UserID
	savedMap   map[domain.TripID]domain.SavedLinkID
	savedTrips []domain.Trip
	saving     map[domain.TripID]bool
	carousel   Carousel
}

type Option func(*Controller)

func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notify = n } }

func WithLogger(l *zap.SugaredLogger) Option { return func(c *Controller) { c.log = l } }

// WithFetchConcurrency bounds parallel trip fetches during Load.
func WithFetchConcurrency(n int) Option { return func(c *Controller) { c.fetchConcurrency = n } }

// WithCardWidth sets the estimated card width used to derive carousel
// geometry when the saved list changes.
func WithCardWidth(w float64) Option { return func(c *Controller) { c.carousel.ItemWidth = w } }

func NewController(id identity.Resolver, saved SavedStore, trips TripSource, opts ...Option) *Controller {
	c := &Controller{
		identity:         id,
		saved:            saved,
		trips:            trips,
		fetchConcurrency: DefaultFetchConcurrency,
		savedMap:         map[domain.TripID]domain.SavedLinkID{},
		savedTrips:       []domain.Trip{},
		saving:           map[domain.TripID]bool{},
	}
	for _, o := range opts {
		o(c)
	}
	c.log = logging.OrNop(c.log)
	if c.notify == nil {
		c.notify = logNotifier{log: c.log}
	}
	if c.fetchConcurrency <= 0 {
		c.fetchConcurrency = DefaultFetchConcurrency
	}
	return c
}

// Load populates the state from the store. Only the first call does any
// work; later calls return immediately, and concurrent callers wait for the
// first to finish. Failures leave an empty, logged-out state.
func (c *Controller) Load(ctx context.Context) {
	c.loadOnce.Do(func() { c.load(ctx) })
}

func (c *Controller) load(ctx context.Context) {
	user, err := c.identity.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, identity.ErrUnauthenticated) {
			c.log.Warnw("resolve user for saved trips failed", "error", err)
		}
		c.reset()
		return
	}
	if !c.apply(func() { c.userID = user.ID }) {
		return
	}

	page, err := c.saved.GetSavedTripsByUser(ctx, user.ID, LoadPageSize, 0)
	if err != nil {
		c.log.Errorw("load saved links failed", "user_id", user.ID, "error", err)
		c.reset()
		return
	}
	if page.Total > len(page.Links) {
		c.log.Warnw("saved links exceed load page", "user_id", user.ID, "total", page.Total, "loaded", len(page.Links))
	}

	savedMap := make(map[domain.TripID]domain.SavedLinkID, len(page.Links))
	order := make([]domain.TripID, 0, len(page.Links))
	for _, l := range page.Links {
		if l.TripID == "" || l.ID == "" {
			continue
		}
		if _, dup := savedMap[l.TripID]; !dup {
			order = append(order, l.TripID)
		}
		savedMap[l.TripID] = l.ID
	}
	if !c.apply(func() { c.savedMap = savedMap }) {
		return
	}

	trips := c.resolveTrips(ctx, order)
	c.apply(func() {
		c.savedTrips = trips
		c.carousel.OnContentChange(len(c.savedTrips))
	})
}

// resolveTrips fetches ids in parallel. Missing or failing trips are dropped.
func (c *Controller) resolveTrips(ctx context.Context, ids []domain.TripID) []domain.Trip {
	if len(ids) == 0 {
		return []domain.Trip{}
	}
	results := make([]*domain.Trip, len(ids))
	var g errgroup.Group
	g.SetLimit(c.fetchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			t, err := c.trips.GetTrip(ctx, id)
			if err != nil {
				c.log.Warnw("failed to fetch saved trip", "trip_id", id, "error", err)
				return nil
			}
			if t == nil {
				c.log.Debugw("saved trip no longer exists", "trip_id", id)
				return nil
			}
			results[i] = t
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Trip, 0, len(ids))
	for _, t := range results {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// Toggle flips the saved state of tripID for the current user.
//
// Without a user it posts a login notice and returns ErrLoginRequired. When a
// toggle for the same trip is already running it returns at once with
// InFlight set. Store failures post a notice and are returned as *Notice with
// the state left untouched.
func (c *Controller) Toggle(ctx context.Context, tripID domain.TripID) (ToggleResult, error) {
	user, err := c.identity.CurrentUser(ctx)
	if err != nil {
		c.notify.Notify(Notice{Message: LoginRequiredMessage})
		return ToggleResult{}, ErrLoginRequired
	}

	c.mu.Lock()
	if c.saving[tripID] {
		linkID, saved := c.savedMap[tripID]
		c.mu.Unlock()
		return ToggleResult{InFlight: true, Saved: saved, SavedID: linkID}, nil
	}
	c.saving[tripID] = true
	linkID, saved := c.savedMap[tripID]
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.saving, tripID)
		c.mu.Unlock()
	}()

	if saved {
		if err := c.saved.UnsaveByID(ctx, user.ID, linkID); err != nil {
			return ToggleResult{Saved: true, SavedID: linkID}, c.fail(tripID, err)
		}
		c.apply(func() {
			delete(c.savedMap, tripID)
			c.savedTrips = removeTrip(c.savedTrips, tripID)
			c.carousel.OnContentChange(len(c.savedTrips))
		})
		return ToggleResult{Saved: false}, nil
	}

	l, err := c.saved.SaveTripForUser(ctx, user.ID, tripID)
	if err != nil {
		return ToggleResult{}, c.fail(tripID, err)
	}
	c.apply(func() { c.savedMap[tripID] = l.ID })

	t, err := c.trips.GetTrip(ctx, tripID)
	switch {
	case err != nil:
		c.log.Warnw("failed to fetch trip after save", "trip_id", tripID, "error", err)
	case t != nil:
		c.apply(func() {
			if c.savedMap[tripID] != l.ID {
				return
			}
			c.savedTrips = append([]domain.Trip{*t}, removeTrip(c.savedTrips, tripID)...)
			c.carousel.OnContentChange(len(c.savedTrips))
		})
	}
	return ToggleResult{Saved: true, SavedID: l.ID}, nil
}

func (c *Controller) fail(tripID domain.TripID, err error) error {
	c.log.Errorw("toggle saved trip failed", "trip_id", tripID, "error", err)
	msg := err.Error()
	if msg == "" {
		msg = toggleFailedFallback
	}
	n := &Notice{Message: toggleFailedPrefix + msg, Err: err}
	c.notify.Notify(*n)
	return n
}

// Close unmounts the view. Completions that arrive afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReportGeometry records client-measured carousel geometry.
func (c *Controller) ReportGeometry(g Geometry) {
	c.apply(func() { c.carousel.Report(g) })
}

// Scroll moves the carousel one step; dir < 0 scrolls back.
func (c *Controller) Scroll(dir int) {
	c.apply(func() {
		if dir < 0 {
			c.carousel.ScrollPrev()
		} else {
			c.carousel.ScrollNext()
		}
	})
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		UserID:     c.userID,
		SavedMap:   make(map[domain.TripID]domain.SavedLinkID, len(c.savedMap)),
		SavedTrips: append([]domain.Trip{}, c.savedTrips...),
		Saving:     make(map[domain.TripID]bool, len(c.saving)),
		Geometry:   c.carousel.Geometry(),
	}
	for k, v := range c.savedMap {
		s.SavedMap[k] = v
	}
	for k, v := range c.saving {
		s.Saving[k] = v
	}
	s.LeftArrow, s.RightArrow = c.carousel.Arrows()
	return s
}

// apply runs fn under the lock unless the controller is closed.
// It reports whether fn ran.
func (c *Controller) apply(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	fn()
	return true
}

func (c *Controller) reset() {
	c.apply(func() {
		c.userID = ""
		c.savedMap = map[domain.TripID]domain.SavedLinkID{}
		c.savedTrips = []domain.Trip{}
		c.carousel.OnContentChange(0)
	})
}

func removeTrip(ts []domain.Trip, id domain.TripID) []domain.Trip {
	out := make([]domain.Trip, 0, len(ts))
	for _, t := range ts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
