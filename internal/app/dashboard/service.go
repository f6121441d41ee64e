// Package dashboard computes the admin dashboard aggregates.
package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/platform/logging"
	clockport "github.com/tourvisto/travel-planner-api/internal/ports/out/clock"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/userrepo"
)

const (
	scanPageSize = 500

	dayLayout    = "2006-01-02"
	unknownStyle = "Unknown"
)

// MonthCounts compares the current calendar month with the previous one.
type MonthCounts struct {
	CurrentMonth int `json:"currentMonth"`
	LastMonth    int `json:"lastMonth"`
}

type Stats struct {
	TotalUsers   int         `json:"totalUsers"`
	UsersJoined  MonthCounts `json:"usersJoined"`
	TotalTrips   int         `json:"totalTrips"`
	TripsCreated MonthCounts `json:"tripsCreated"`
}

// DayCount is the number of records created on Day (YYYY-MM-DD, UTC).
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type StyleCount struct {
	TravelStyle string `json:"travelStyle"`
	Count       int    `json:"count"`
}

// Overview bundles every dashboard aggregate computed from one scan.
type Overview struct {
	Stats              Stats        `json:"stats"`
	UserGrowth         []DayCount   `json:"userGrowth"`
	TripsCreated       []DayCount   `json:"tripsCreated"`
	TripsByTravelStyle []StyleCount `json:"tripsByTravelStyle"`
}

type Service struct {
	users userrepo.Repository
	trips triprepo.Repository
	clk   clockport.Clock
	log   *zap.SugaredLogger
}

type Option func(*Service)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Service) { s.log = l } }

func NewService(users userrepo.Repository, trips triprepo.Repository, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{users: users, trips: trips, clk: clk}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrNop(s.log)
	return s
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	users, trips, err := s.scan(ctx)
	if err != nil {
		return Stats{}, err
	}
	return s.stats(users, trips), nil
}

func (s *Service) UserGrowthPerDay(ctx context.Context) ([]DayCount, error) {
	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	return perDay(userTimes(users)), nil
}

func (s *Service) TripsCreatedPerDay(ctx context.Context) ([]DayCount, error) {
	trips, err := s.allTrips(ctx)
	if err != nil {
		return nil, err
	}
	return perDay(tripTimes(trips)), nil
}

func (s *Service) TripsByTravelStyle(ctx context.Context) ([]StyleCount, error) {
	trips, err := s.allTrips(ctx)
	if err != nil {
		return nil, err
	}
	return s.byTravelStyle(trips), nil
}

// Overview computes every aggregate from a single scan of both stores.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	users, trips, err := s.scan(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Stats:              s.stats(users, trips),
		UserGrowth:         perDay(userTimes(users)),
		TripsCreated:       perDay(tripTimes(trips)),
		TripsByTravelStyle: s.byTravelStyle(trips),
	}, nil
}

func (s *Service) scan(ctx context.Context) ([]domain.User, []triprepo.Trip, error) {
	var (
		users []domain.User
		trips []triprepo.Trip
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.allUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		trips, err = s.allTrips(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return users, trips, nil
}

func (s *Service) allUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for offset := 0; ; offset += scanPageSize {
		page, total, err := s.users.List(ctx, scanPageSize, offset)
		if err != nil {
			s.log.Errorw("dashboard user scan failed", "offset", offset, "error", err)
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || len(out) >= total {
			return out, nil
		}
	}
}

func (s *Service) allTrips(ctx context.Context) ([]triprepo.Trip, error) {
	var out []triprepo.Trip
	for offset := 0; ; offset += scanPageSize {
		page, total, err := s.trips.List(ctx, scanPageSize, offset)
		if err != nil {
			s.log.Errorw("dashboard trip scan failed", "offset", offset, "error", err)
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || len(out) >= total {
			return out, nil
		}
	}
}

func (s *Service) stats(users []domain.User, trips []triprepo.Trip) Stats {
	cur, last := monthBounds(s.clk.Now())
	return Stats{
		TotalUsers:   len(users),
		UsersJoined:  countMonths(userTimes(users), cur, last),
		TotalTrips:   len(trips),
		TripsCreated: countMonths(tripTimes(trips), cur, last),
	}
}

func (s *Service) byTravelStyle(trips []triprepo.Trip) []StyleCount {
	counts := map[string]int{}
	for _, t := range trips {
		style := unknownStyle
		if d, err := domain.ParseTripDetail(t.Detail); err != nil {
			s.log.Debugw("skipping unreadable trip detail", "trip_id", t.ID, "error", err)
		} else if ts := strings.TrimSpace(d.TravelStyle); ts != "" {
			style = ts
		}
		counts[style]++
	}
	out := make([]StyleCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, StyleCount{TravelStyle: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TravelStyle < out[j].TravelStyle
	})
	return out
}

// monthBounds returns the UTC starts of the current and previous month.
func monthBounds(now time.Time) (cur, last time.Time) {
	now = now.UTC()
	cur = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return cur, cur.AddDate(0, -1, 0)
}

func countMonths(ts []time.Time, cur, last time.Time) MonthCounts {
	var mc MonthCounts
	next := cur.AddDate(0, 1, 0)
	for _, t := range ts {
		switch {
		case !t.Before(cur) && t.Before(next):
			mc.CurrentMonth++
		case !t.Before(last) && t.Before(cur):
			mc.LastMonth++
		}
	}
	return mc
}

func perDay(ts []time.Time) []DayCount {
	counts := map[string]int{}
	for _, t := range ts {
		counts[t.UTC().Format(dayLayout)]++
	}
	out := make([]DayCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DayCount{Day: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func userTimes(us []domain.User) []time.Time {
	out := make([]time.Time, 0, len(us))
	for _, u := range us {
		out = append(out, u.CreatedAt)
	}
	return out
}

func tripTimes(ts []triprepo.Trip) []time.Time {
	out := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.CreatedAt)
	}
	return out
}
