// Package saved is the data access layer for saved-trip links.
// Every operation is one logical round trip to the saved-link store.
package saved

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
)

var (
	// ErrCollectionNotConfigured is returned before any store access when no
	// saved-trip collection is configured.
	ErrCollectionNotConfigured = errors.New("saved trips collection is not configured")

	// ErrPermissionDenied is returned when the caller holds no delete grant on the link.
	ErrPermissionDenied = errors.New("permission denied")
)

// DefaultPageSize is the page size used when listing a user's links.
const DefaultPageSize = 500

type Service struct {
	repo       savedrepo.Repository
	collection string
	clk        clockport.Clock
	log        *zap.SugaredLogger

	newLinkID func() domain.SavedLinkID
}

type Option func(*Service)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }

// NewService binds the service to the named collection. An empty name leaves
// the service unconfigured; every call then fails with ErrCollectionNotConfigured.
func NewService(repo savedrepo.Repository, collection string, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		collection: collection,
		clk:        clk,
		newLinkID: func() domain.SavedLinkID {
			return domain.SavedLinkID(uuid.NewString())
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrNop(s.log)
	return s
}

// SetNewLinkIDForTest overrides link ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewLinkIDForTest(fn func() domain.SavedLinkID) {
	if fn != nil {
		s.newLinkID = fn
	}
}

func (s *Service) configured() error {
	if s.collection == "" || s.repo == nil {
		return ErrCollectionNotConfigured
	}
	return nil
}

// SaveTripForUser links tripID to userID with owner-only grants. When a link
// for the pair already exists it is returned instead of creating another one.
func (s *Service) SaveTripForUser(ctx context.Context, userID domain.UserID, tripID domain.TripID) (domain.SavedLink, error) {
	if err := s.configured(); err != nil {
		return domain.SavedLink{}, err
	}

	existing, err := s.repo.FindByUserAndTrip(ctx, userID, tripID)
	if err == nil {
		s.log.Debugw("trip already saved", "user_id", userID, "trip_id", tripID, "saved_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, savedrepo.ErrNotFound) {
		s.log.Errorw("lookup saved trip failed", "user_id", userID, "trip_id", tripID, "error", err)
		return domain.SavedLink{}, err
	}

	l := domain.SavedLink{
		ID:          s.newLinkID(),
		UserID:      userID,
		TripID:      tripID,
		Permissions: domain.OwnerOnlyGrants(userID),
		CreatedAt:   s.clk.Now(),
	}
	if err := s.repo.Create(ctx, l); err != nil {
		if errors.Is(err, savedrepo.ErrAlreadyExists) {
			// Lost a race with a concurrent save of the same pair.
			if existing, ferr := s.repo.FindByUserAndTrip(ctx, userID, tripID); ferr == nil {
				return existing, nil
			}
		}
		s.log.Errorw("save trip failed", "user_id", userID, "trip_id", tripID, "error", err)
		return domain.SavedLink{}, err
	}
	return l, nil
}

// UnsaveByID deletes the link after checking the caller holds a delete grant.
func (s *Service) UnsaveByID(ctx context.Context, callerID domain.UserID, id domain.SavedLinkID) error {
	if err := s.configured(); err != nil {
		return err
	}

	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Errorw("unsave lookup failed", "saved_id", id, "error", err)
		return err
	}
	if !domain.Allows(l.Permissions, domain.ActionDelete, callerID) {
		s.log.Warnw("unsave denied", "saved_id", id, "caller_id", callerID)
		return ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Errorw("unsave failed", "saved_id", id, "error", err)
		return err
	}
	return nil
}

// GetSavedTripsByUser returns one page of the user's links. Total is the size
// of the full matching set. A non-positive limit selects DefaultPageSize.
func (s *Service) GetSavedTripsByUser(ctx context.Context, userID domain.UserID, limit, offset int) (domain.SavedPage, error) {
	if err := s.configured(); err != nil {
		return domain.SavedPage{}, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	links, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.log.Errorw("list saved trips failed", "user_id", userID, "error", err)
		return domain.SavedPage{}, err
	}
	if links == nil {
		links = []domain.SavedLink{}
	}
	return domain.SavedPage{Links: links, Total: total}, nil
}

// GetSavedByUserAndTrip returns the link for the pair, or nil when none exists.
func (s *Service) GetSavedByUserAndTrip(ctx context.Context, userID domain.UserID, tripID domain.TripID) (*domain.SavedLink, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	l, err := s.repo.FindByUserAndTrip(ctx, userID, tripID)
	if err != nil {
		if errors.Is(err, savedrepo.ErrNotFound) {
			return nil, nil
		}
		s.log.Errorw("find saved trip failed", "user_id", userID, "trip_id", tripID, "error", err)
		return nil, err
	}
	return &l, nil
}
