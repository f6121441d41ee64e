package trips

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	memclock "github.com/tourvisto/travel-planner-api/internal/adapters/memory/clock"
	memtripcache "github.com/tourvisto/travel-planner-api/internal/adapters/memory/tripcache"
	memtriprepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/triprepo"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/billing"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/itinerary"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/triprepo"
)

type fakeGenerator struct {
	text string
	err  error
	got  itinerary.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req itinerary.Request) (string, error) {
	g.got = req
	return g.text, g.err
}

type fakePhotos struct {
	urls  []string
	err   error
	query string
}

func (p *fakePhotos) Search(_ context.Context, query string, n int) ([]string, error) {
	p.query = query
	if p.err != nil {
		return nil, p.err
	}
	return p.urls, nil
}

type fakeBilling struct {
	url string
	err error
	got billing.Product
}

func (b *fakeBilling) CreatePaymentLink(_ context.Context, p billing.Product) (string, error) {
	b.got = p
	return b.url, b.err
}

type failingRepo struct {
	triprepo.Repository
	err error
}

func (r failingRepo) Delete(context.Context, domain.TripID) error { return r.err }

func (r failingRepo) List(context.Context, int, int) ([]triprepo.Trip, int, error) {
	return nil, 0, r.err
}

const generated = "```json\n" + `{
  "name": "Kyoto Calm",
  "description": "Temples and tea",
  "estimatedPrice": "$1,450",
  "duration": 5,
  "budget": "Premium",
  "travelStyle": "Relaxed",
  "country": "Japan",
  "interests": "Food & Culinary",
  "groupType": "Couple",
  "itinerary": [{"day": 1, "location": "Kyoto", "activities": [{"time": "Morning", "description": "Fushimi Inari"}]}]
}` + "\n```"

func seedTrips(t *testing.T, repo *memtriprepo.Repo, n int) {
	t.Helper()
	base := time.Unix(1000, 0).UTC()
	for i := 1; i <= n; i++ {
		if err := repo.Create(context.Background(), triprepo.Trip{
			ID:        domain.TripID(fmt.Sprintf("t%02d", i)),
			UserID:    "u-1",
			Detail:    fmt.Sprintf(`{"name":"Trip %d","country":"Peru","duration":"%d"}`, i, i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create err=%v", err)
		}
	}
}

func TestService_ListTrips_PagesNewestFirst(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	seedTrips(t, repo, 20)
	svc := NewService(repo, memclock.NewManualClock(time.Unix(0, 0)), WithLogger(zaptest.NewLogger(t).Sugar()))

	page, err := svc.ListTrips(context.Background(), 8, 0)
	if err != nil {
		t.Fatalf("ListTrips err=%v", err)
	}
	if page.Total != 20 || len(page.Trips) != 8 {
		t.Fatalf("total=%d len=%d, want 20/8", page.Total, len(page.Trips))
	}
	if page.Trips[0].ID != "t20" || page.Trips[7].ID != "t13" {
		t.Fatalf("first=%s last=%s, want t20..t13", page.Trips[0].ID, page.Trips[7].ID)
	}
	if page.Trips[0].Name != "Trip 20" || page.Trips[0].Duration != 20 {
		t.Fatalf("detail not resolved: %+v", page.Trips[0].TripDetail)
	}
}

func TestService_ListTrips_EmptyStoreIsEmptyPage(t *testing.T) {
	t.Parallel()

	svc := NewService(memtriprepo.NewRepo(), memclock.NewManualClock(time.Unix(0, 0)))
	page, err := svc.ListTrips(context.Background(), 8, 0)
	if err != nil {
		t.Fatalf("ListTrips err=%v", err)
	}
	if page.Total != 0 || page.Trips == nil || len(page.Trips) != 0 {
		t.Fatalf("page=%+v, want empty non-nil page", page)
	}
}

func TestService_ListTrips_PropagatesStoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	svc := NewService(failingRepo{err: boom}, memclock.NewManualClock(time.Unix(0, 0)))
	if _, err := svc.ListTrips(context.Background(), 8, 0); !errors.Is(err, boom) {
		t.Fatalf("ListTrips err=%v, want boom", err)
	}
}

func TestService_GetTrip_MissingIsNil(t *testing.T) {
	t.Parallel()

	svc := NewService(memtriprepo.NewRepo(), memclock.NewManualClock(time.Unix(0, 0)))
	got, err := svc.GetTrip(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("GetTrip(missing)=%v err=%v, want nil,nil", got, err)
	}
	got, err = svc.GetTrip(context.Background(), "")
	if err != nil || got != nil {
		t.Fatalf("GetTrip(\"\")=%v err=%v, want nil,nil", got, err)
	}
}

func TestService_GetTrip_ReadThroughCache(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	seedTrips(t, repo, 1)
	cache := memtripcache.NewCache()
	svc := NewService(repo, memclock.NewManualClock(time.Unix(0, 0)), WithCache(cache))
	ctx := context.Background()

	got, err := svc.GetTrip(ctx, "t01")
	if err != nil || got == nil || got.Name != "Trip 1" {
		t.Fatalf("GetTrip=%v err=%v", got, err)
	}
	if _, ok, _ := cache.Get(ctx, "t01"); !ok {
		t.Fatalf("expected trip cached after read")
	}

	if err := svc.DeleteTrip(ctx, "t01"); err != nil {
		t.Fatalf("DeleteTrip err=%v", err)
	}
	if _, ok, _ := cache.Get(ctx, "t01"); ok {
		t.Fatalf("expected cache invalidated on delete")
	}
	got, err = svc.GetTrip(ctx, "t01")
	if err != nil || got != nil {
		t.Fatalf("GetTrip after delete=%v err=%v", got, err)
	}
}

func TestService_DeleteTrip_PropagatesFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(memtriprepo.NewRepo(), memclock.NewManualClock(time.Unix(0, 0)))
	if err := svc.DeleteTrip(context.Background(), "nope"); !errors.Is(err, triprepo.ErrNotFound) {
		t.Fatalf("DeleteTrip(missing) err=%v, want ErrNotFound", err)
	}

	boom := errors.New("store down")
	svc = NewService(failingRepo{err: boom}, memclock.NewManualClock(time.Unix(0, 0)))
	if err := svc.DeleteTrip(context.Background(), "t1"); !errors.Is(err, boom) {
		t.Fatalf("DeleteTrip err=%v, want store down", err)
	}
}

func TestService_CreateTrip_GeneratesPersistsAndBills(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	gen := &fakeGenerator{text: generated}
	ph := &fakePhotos{urls: []string{"https://img/1", "https://img/2", "https://img/3", "https://img/4"}}
	bill := &fakeBilling{url: "https://pay/1"}
	clk := memclock.NewManualClock(time.Unix(500, 0).UTC())
	svc := NewService(repo, clk,
		WithGenerator(gen), WithPhotoSearcher(ph), WithBilling(bill),
		WithLogger(zaptest.NewLogger(t).Sugar()))
	svc.SetNewTripIDForTest(func() domain.TripID { return "trip-new" })

	created, err := svc.CreateTrip(context.Background(), "u-1", GenerateTripInput{
		Country:      " Japan ",
		NumberOfDays: 5,
		TravelStyle:  "Relaxed",
		Interests:    "Food & Culinary",
		Budget:       "Premium",
		GroupType:    "Couple",
	})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	if created.ID != "trip-new" {
		t.Fatalf("id=%q", created.ID)
	}
	if gen.got.Country != "Japan" || gen.got.NumberOfDays != 5 {
		t.Fatalf("generator request=%+v", gen.got)
	}
	if ph.query != "Japan Food & Culinary Relaxed" {
		t.Fatalf("photo query=%q", ph.query)
	}
	if bill.got.PriceUSD != 1450 || bill.got.Name != "Kyoto Calm" || len(bill.got.ImageURLs) != 3 {
		t.Fatalf("billing product=%+v", bill.got)
	}

	got, err := svc.GetTrip(context.Background(), "trip-new")
	if err != nil || got == nil {
		t.Fatalf("GetTrip=%v err=%v", got, err)
	}
	if got.UserID != "u-1" || got.Name != "Kyoto Calm" || len(got.ImageURLs) != 3 || got.Thumbnail() != "https://img/1" {
		t.Fatalf("trip=%+v", got)
	}
	if got.PaymentLink == nil || *got.PaymentLink != "https://pay/1" {
		t.Fatalf("paymentLink=%v", got.PaymentLink)
	}
	if !got.CreatedAt.Equal(time.Unix(500, 0).UTC()) {
		t.Fatalf("createdAt=%v", got.CreatedAt)
	}
}

func TestService_CreateTrip_PhotoAndBillingFailuresKeepTrip(t *testing.T) {
	t.Parallel()

	repo := memtriprepo.NewRepo()
	svc := NewService(repo, memclock.NewManualClock(time.Unix(0, 0)),
		WithGenerator(&fakeGenerator{text: generated}),
		WithPhotoSearcher(&fakePhotos{err: errors.New("rate limited")}),
		WithBilling(&fakeBilling{err: errors.New("card network down")}))

	created, err := svc.CreateTrip(context.Background(), "u-1", GenerateTripInput{Country: "Japan", NumberOfDays: 3})
	if err != nil {
		t.Fatalf("CreateTrip err=%v", err)
	}
	rec, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if len(rec.ImageURLs) != 0 || rec.PaymentLink != nil {
		t.Fatalf("rec=%+v, want no images and no payment link", rec)
	}
}

func TestService_CreateTrip_Errors(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(0, 0))
	cases := []struct {
		name   string
		svc    *Service
		caller domain.UserID
		in     GenerateTripInput
		status int
		code   string
	}{
		{"anonymous", NewService(memtriprepo.NewRepo(), clk, WithGenerator(&fakeGenerator{text: generated})), "", GenerateTripInput{Country: "Japan", NumberOfDays: 3}, 401, "UNAUTHENTICATED"},
		{"no country", NewService(memtriprepo.NewRepo(), clk, WithGenerator(&fakeGenerator{text: generated})), "u-1", GenerateTripInput{Country: " ", NumberOfDays: 3}, 422, "VALIDATION_ERROR"},
		{"too many days", NewService(memtriprepo.NewRepo(), clk, WithGenerator(&fakeGenerator{text: generated})), "u-1", GenerateTripInput{Country: "Japan", NumberOfDays: 31}, 422, "VALIDATION_ERROR"},
		{"no generator", NewService(memtriprepo.NewRepo(), clk), "u-1", GenerateTripInput{Country: "Japan", NumberOfDays: 3}, 503, "GENERATION_UNAVAILABLE"},
		{"generator error", NewService(memtriprepo.NewRepo(), clk, WithGenerator(&fakeGenerator{err: errors.New("quota")})), "u-1", GenerateTripInput{Country: "Japan", NumberOfDays: 3}, 502, "GENERATION_FAILED"},
		{"unparseable", NewService(memtriprepo.NewRepo(), clk, WithGenerator(&fakeGenerator{text: "Sure! Here is your trip"})), "u-1", GenerateTripInput{Country: "Japan", NumberOfDays: 3}, 502, "GENERATION_FAILED"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.svc.CreateTrip(context.Background(), tc.caller, tc.in)
			ae := (*Error)(nil)
			if !errors.As(err, &ae) || ae.Status != tc.status || ae.Code != tc.code {
				t.Fatalf("err=%v, want %d %s", err, tc.status, tc.code)
			}
		})
	}
}
