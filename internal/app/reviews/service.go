// Package reviews manages public trip reviews.
package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/reviewrepo"
)

const (
	MinRating = 1
	MaxRating = 5

	anonymousName = "Anonymous"
)

type AddReviewInput struct {
	Text string
	// Rating is optional.
	Rating *int
}

type Service struct {
	repo       reviewrepo.Repository
	collection string
	clk        clockport.Clock
	log        *zap.SugaredLogger

	newReviewID func() domain.ReviewID
}

type Option func(*Service)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }

// NewService binds the service to the named reviews collection. With an empty
// name, writes fail with REVIEWS_NOT_CONFIGURED and listings are empty.
func NewService(repo reviewrepo.Repository, collection string, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		collection: collection,
		clk:        clk,
		newReviewID: func() domain.ReviewID {
			return domain.ReviewID(uuid.NewString())
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrNop(s.log)
	return s
}

// SetNewReviewIDForTest overrides review ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewReviewIDForTest(fn func() domain.ReviewID) {
	if fn != nil {
		s.newReviewID = fn
	}
}

func (s *Service) configured() bool {
	return s.collection != "" && s.repo != nil
}

// ListByTrip returns the trip's reviews, newest first.
func (s *Service) ListByTrip(ctx context.Context, tripID domain.TripID) ([]domain.Review, error) {
	if !s.configured() {
		s.log.Warnw("reviews collection not configured")
		return []domain.Review{}, nil
	}
	out, err := s.repo.ListByTrip(ctx, tripID)
	if err != nil {
		s.log.Errorw("list reviews failed", "trip_id", tripID, "error", err)
		return nil, err
	}
	if out == nil {
		out = []domain.Review{}
	}
	return out, nil
}

// AddReview records a review by the caller. The review is publicly readable
// and writable only by its author.
func (s *Service) AddReview(ctx context.Context, caller *domain.User, tripID domain.TripID, in AddReviewInput) (domain.Review, error) {
	if caller == nil || caller.ID == "" {
		return domain.Review{}, unauthenticated()
	}
	if !s.configured() {
		return domain.Review{}, notConfigured()
	}
	if tripID == "" {
		return domain.Review{}, validation("tripId", "tripId is required.")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.Review{}, validation("text", "Review text must not be empty.")
	}
	if in.Rating != nil && (*in.Rating < MinRating || *in.Rating > MaxRating) {
		return domain.Review{}, validation("rating", "Rating must be between 1 and 5.")
	}

	r := domain.Review{
		ID:          s.newReviewID(),
		TripID:      tripID,
		UserID:      caller.ID,
		UserName:    displayName(*caller),
		UserAvatar:  caller.AvatarURL,
		Text:        text,
		Rating:      in.Rating,
		Permissions: domain.PublicReadOwnerWriteGrants(caller.ID),
		CreatedAt:   s.clk.Now(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.log.Errorw("add review failed", "trip_id", tripID, "user_id", caller.ID, "error", err)
		return domain.Review{}, err
	}
	s.log.Infow("review added", "trip_id", tripID, "review_id", r.ID)
	return r, nil
}

// DeleteReview removes a review. Only its author may delete it.
func (s *Service) DeleteReview(ctx context.Context, caller *domain.User, tripID domain.TripID, id domain.ReviewID) error {
	if caller == nil || caller.ID == "" {
		return unauthenticated()
	}
	if !s.configured() {
		return notConfigured()
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reviewrepo.ErrNotFound) {
			return notFound()
		}
		s.log.Errorw("get review failed", "review_id", id, "error", err)
		return err
	}
	if tripID != "" && r.TripID != tripID {
		return notFound()
	}
	if r.UserID != caller.ID || !domain.Allows(r.Permissions, domain.ActionDelete, caller.ID) {
		return forbidden()
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reviewrepo.ErrNotFound) {
			return notFound()
		}
		s.log.Errorw("delete review failed", "review_id", id, "error", err)
		return err
	}
	return nil
}

func displayName(u domain.User) string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if e := strings.TrimSpace(u.Email); e != "" {
		return e
	}
	return anonymousName
}
