package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/billing"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/itinerary"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/photos"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/tripcache"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

type Service struct {
	trips   triprepo.Repository
	cache   tripcache.Cache
	gen     itinerary.Generator
	photos  photos.Searcher
	billing billing.Provisioner
	clk     clockport.Clock
	log     *zap.SugaredLogger

	newTripID func() domain.TripID

	// PhotoCount bounds images attached to generated trips.
	PhotoCount int
}

type Option func(*Service)

func WithCache(c tripcache.Cache) Option { return func(s *Service) { s.cache = c } }

func WithGenerator(g itinerary.Generator) Option { return func(s *Service) { s.gen = g } }

func WithPhotoSearcher(p photos.Searcher) Option { return func(s *Service) { s.photos = p } }

func WithBilling(b billing.Provisioner) Option { return func(s *Service) { s.billing = b } }

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }

func NewService(tripsRepo triprepo.Repository, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{
		trips: tripsRepo,
		clk:   clk,
		newTripID: func() domain.TripID {
			return domain.TripID(uuid.NewString())
		},
		PhotoCount: DefaultPhotoCount,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrNop(s.log)
	return s
}

// SetNewTripIDForTest overrides trip ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewTripIDForTest(fn func() domain.TripID) {
	if fn != nil {
		s.newTripID = fn
	}
}

// ListTrips returns one page of trips, newest first. An empty store yields an
// empty page rather than an error.
func (s *Service) ListTrips(ctx context.Context, limit, offset int) (domain.TripPage, error) {
	recs, total, err := s.trips.List(ctx, limit, offset)
	if err != nil {
		s.log.Errorw("list trips failed", "limit", limit, "offset", offset, "error", err)
		return domain.TripPage{}, err
	}
	if total == 0 {
		s.log.Debugw("no trips found")
		return domain.TripPage{Trips: []domain.Trip{}, Total: 0}, nil
	}
	out := make([]domain.Trip, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.toDomain(rec))
	}
	return domain.TripPage{Trips: out, Total: total}, nil
}

// GetTrip returns the trip, or nil when it does not exist.
func (s *Service) GetTrip(ctx context.Context, id domain.TripID) (*domain.Trip, error) {
	if id == "" {
		return nil, nil
	}
	if s.cache != nil {
		t, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warnw("trip cache read failed", "trip_id", id, "error", err)
		} else if ok {
			return &t, nil
		}
	}

	rec, err := s.trips.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, triprepo.ErrNotFound) {
			s.log.Debugw("trip not found", "trip_id", id)
			return nil, nil
		}
		s.log.Errorw("get trip failed", "trip_id", id, "error", err)
		return nil, err
	}
	if rec.ID == "" {
		s.log.Debugw("trip record has no id", "trip_id", id)
		return nil, nil
	}

	t := s.toDomain(rec)
	if s.cache != nil {
		if err := s.cache.Set(ctx, t); err != nil {
			s.log.Warnw("trip cache write failed", "trip_id", id, "error", err)
		}
	}
	return &t, nil
}

func (s *Service) DeleteTrip(ctx context.Context, id domain.TripID) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		s.log.Errorw("delete trip failed", "trip_id", id, "error", err)
		return err
	}
	s.invalidate(ctx, id)
	s.log.Infow("trip deleted", "trip_id", id)
	return nil
}

// CreateTrip generates an itinerary for the caller, attaches photos, persists
// the trip and provisions its payment link. Photo and billing failures are
// logged; the trip is kept.
func (s *Service) CreateTrip(ctx context.Context, caller domain.UserID, in GenerateTripInput) (TripCreated, error) {
	if caller == "" {
		return TripCreated{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "login required"}
	}
	in.Country = strings.TrimSpace(in.Country)
	if in.Country == "" {
		return TripCreated{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid country", Details: map[string]any{"country": "must be non-empty"}}
	}
	if in.NumberOfDays < 1 || in.NumberOfDays > MaxTripDays {
		return TripCreated{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid numberOfDays", Details: map[string]any{"numberOfDays": fmt.Sprintf("must be between 1 and %d", MaxTripDays)}}
	}
	if s.gen == nil {
		return TripCreated{}, &Error{Status: 503, Code: "GENERATION_UNAVAILABLE", Message: "itinerary generation is not configured"}
	}

	text, err := s.gen.Generate(ctx, itinerary.Request{
		Country:      in.Country,
		NumberOfDays: in.NumberOfDays,
		TravelStyle:  in.TravelStyle,
		Interests:    in.Interests,
		Budget:       in.Budget,
		GroupType:    in.GroupType,
	})
	if err != nil {
		s.log.Errorw("itinerary generation failed", "country", in.Country, "error", err)
		return TripCreated{}, &Error{Status: 502, Code: "GENERATION_FAILED", Message: "itinerary generation failed"}
	}
	detail, err := domain.ParseGeneratedTripDetail(text)
	if err != nil {
		s.log.Errorw("generated itinerary is not valid JSON", "country", in.Country, "error", err)
		return TripCreated{}, &Error{Status: 502, Code: "GENERATION_FAILED", Message: "generated itinerary could not be parsed"}
	}
	detail.UserID = caller

	images := s.searchPhotos(ctx, in)

	raw, err := domain.MarshalTripDetail(detail)
	if err != nil {
		return TripCreated{}, err
	}
	id := s.newTripID()
	if err := s.trips.Create(ctx, triprepo.Trip{
		ID:        id,
		UserID:    caller,
		Detail:    raw,
		ImageURLs: images,
		CreatedAt: s.clk.Now(),
	}); err != nil {
		s.log.Errorw("persist trip failed", "trip_id", id, "error", err)
		return TripCreated{}, err
	}
	s.log.Infow("trip created", "trip_id", id, "user_id", caller, "images", len(images))

	s.provisionPaymentLink(ctx, id, detail, images)
	return TripCreated{ID: id}, nil
}

func (s *Service) searchPhotos(ctx context.Context, in GenerateTripInput) []string {
	if s.photos == nil || s.PhotoCount <= 0 {
		return []string{}
	}
	query := strings.Join(strings.Fields(fmt.Sprintf("%s %s %s", in.Country, in.Interests, in.TravelStyle)), " ")
	urls, err := s.photos.Search(ctx, query, s.PhotoCount)
	if err != nil {
		s.log.Warnw("photo search failed", "query", query, "error", err)
		return []string{}
	}
	if len(urls) > s.PhotoCount {
		urls = urls[:s.PhotoCount]
	}
	return urls
}

func (s *Service) provisionPaymentLink(ctx context.Context, id domain.TripID, detail domain.TripDetail, images []string) {
	if s.billing == nil {
		return
	}
	price := domain.ParsePriceUSD(detail.EstimatedPrice)
	if price <= 0 {
		s.log.Warnw("skipping payment link: no price", "trip_id", id, "estimated_price", detail.EstimatedPrice)
		return
	}
	url, err := s.billing.CreatePaymentLink(ctx, billing.Product{
		TripID:      id,
		Name:        detail.Name,
		Description: detail.Description,
		ImageURLs:   images,
		PriceUSD:    price,
	})
	if err != nil {
		s.log.Errorw("payment link provisioning failed", "trip_id", id, "error", err)
		return
	}
	if err := s.trips.SetPaymentLink(ctx, id, url); err != nil {
		s.log.Errorw("persist payment link failed", "trip_id", id, "error", err)
		return
	}
	s.invalidate(ctx, id)
}

func (s *Service) invalidate(ctx context.Context, id domain.TripID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warnw("trip cache invalidate failed", "trip_id", id, "error", err)
	}
}

// toDomain resolves a stored record. An unreadable detail yields a trip with
// only its stored metadata.
func (s *Service) toDomain(rec triprepo.Trip) domain.Trip {
	t := domain.Trip{
		ID:          rec.ID,
		ImageURLs:   append([]string{}, rec.ImageURLs...),
		PaymentLink: rec.PaymentLink,
		CreatedAt:   rec.CreatedAt,
	}
	d, err := domain.ParseTripDetail(rec.Detail)
	if err != nil {
		s.log.Warnw("unreadable trip detail", "trip_id", rec.ID, "error", err)
	} else {
		t.TripDetail = d
	}
	if t.UserID == "" {
		t.UserID = rec.UserID
	}
	return t
}
