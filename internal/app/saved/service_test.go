package saved

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	memclock "github.com/tourvisto/travel-planner-api/internal/adapters/memory/clock"
	memsavedrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/savedrepo"
	"github.com/tourvisto/travel-planner-api/internal/domain"
	"github.com/tourvisto/travel-planner-api/internal/ports/out/savedrepo"
)

type countingRepo struct {
	savedrepo.Repository
	calls int
}

func (r *countingRepo) FindByUserAndTrip(ctx context.Context, u domain.UserID, t domain.TripID) (domain.SavedLink, error) {
	r.calls++
	return r.Repository.FindByUserAndTrip(ctx, u, t)
}

func newTestService() (*Service, *memsavedrepo.Repo, *memclock.ManualClock) {
	repo := memsavedrepo.NewRepo()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	return NewService(repo, "saved_trips", clk), repo, clk
}

func TestService_UnconfiguredCollectionFailsBeforeStore(t *testing.T) {
	t.Parallel()

	repo := &countingRepo{Repository: memsavedrepo.NewRepo()}
	svc := NewService(repo, "", memclock.NewManualClock(time.Unix(0, 0)))
	ctx := context.Background()

	if _, err := svc.SaveTripForUser(ctx, "u-1", "t1"); !errors.Is(err, ErrCollectionNotConfigured) {
		t.Fatalf("SaveTripForUser err=%v", err)
	}
	if err := svc.UnsaveByID(ctx, "u-1", "s1"); !errors.Is(err, ErrCollectionNotConfigured) {
		t.Fatalf("UnsaveByID err=%v", err)
	}
	if _, err := svc.GetSavedTripsByUser(ctx, "u-1", 0, 0); !errors.Is(err, ErrCollectionNotConfigured) {
		t.Fatalf("GetSavedTripsByUser err=%v", err)
	}
	if _, err := svc.GetSavedByUserAndTrip(ctx, "u-1", "t1"); !errors.Is(err, ErrCollectionNotConfigured) {
		t.Fatalf("GetSavedByUserAndTrip err=%v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("store touched %d times, want 0", repo.calls)
	}
}

func TestService_SaveTripForUser_OwnerOnlyGrants(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	svc.SetNewLinkIDForTest(func() domain.SavedLinkID { return "s-1" })

	l, err := svc.SaveTripForUser(context.Background(), "u-1", "t1")
	if err != nil {
		t.Fatalf("SaveTripForUser err=%v", err)
	}
	if l.ID != "s-1" || l.UserID != "u-1" || l.TripID != "t1" {
		t.Fatalf("link=%+v", l)
	}
	for _, a := range []domain.Action{domain.ActionRead, domain.ActionWrite, domain.ActionDelete} {
		if !domain.Allows(l.Permissions, a, "u-1") {
			t.Fatalf("owner lacks %s", a)
		}
		if domain.Allows(l.Permissions, a, "u-2") {
			t.Fatalf("stranger granted %s", a)
		}
	}
}

func TestService_SaveTripForUser_ReturnsExistingLink(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()
	first, err := svc.SaveTripForUser(ctx, "u-1", "t1")
	if err != nil {
		t.Fatalf("SaveTripForUser err=%v", err)
	}
	second, err := svc.SaveTripForUser(ctx, "u-1", "t1")
	if err != nil {
		t.Fatalf("SaveTripForUser (again) err=%v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("second save created %q, want existing %q", second.ID, first.ID)
	}
	page, err := svc.GetSavedTripsByUser(ctx, "u-1", 0, 0)
	if err != nil || page.Total != 1 {
		t.Fatalf("page=%+v err=%v, want one link", page, err)
	}
}

func TestService_SaveThenUnsave_LeavesNoLinks(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()

	l, err := svc.SaveTripForUser(ctx, "u-1", "t1")
	if err != nil {
		t.Fatalf("SaveTripForUser err=%v", err)
	}
	if err := svc.UnsaveByID(ctx, "u-1", l.ID); err != nil {
		t.Fatalf("UnsaveByID err=%v", err)
	}
	got, err := svc.GetSavedByUserAndTrip(ctx, "u-1", "t1")
	if err != nil || got != nil {
		t.Fatalf("GetSavedByUserAndTrip=%v err=%v, want nil", got, err)
	}
	page, err := svc.GetSavedTripsByUser(ctx, "u-1", 0, 0)
	if err != nil || page.Total != 0 || len(page.Links) != 0 {
		t.Fatalf("page=%+v err=%v, want empty", page, err)
	}
}

func TestService_UnsaveByID_Errors(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.UnsaveByID(ctx, "u-1", "missing"); !errors.Is(err, savedrepo.ErrNotFound) {
		t.Fatalf("UnsaveByID(missing) err=%v, want ErrNotFound", err)
	}

	l, err := svc.SaveTripForUser(ctx, "u-1", "t1")
	if err != nil {
		t.Fatalf("SaveTripForUser err=%v", err)
	}
	if err := svc.UnsaveByID(ctx, "u-2", l.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("UnsaveByID(stranger) err=%v, want ErrPermissionDenied", err)
	}
	if got, _ := svc.GetSavedByUserAndTrip(ctx, "u-1", "t1"); got == nil {
		t.Fatalf("link deleted by stranger")
	}
}

func TestService_GetSavedTripsByUser_TotalIsFullSet(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		clk.Advance(time.Second)
		if _, err := svc.SaveTripForUser(ctx, "u-1", domain.TripID(fmt.Sprintf("t%d", i))); err != nil {
			t.Fatalf("SaveTripForUser err=%v", err)
		}
	}
	if _, err := svc.SaveTripForUser(ctx, "u-2", "t0"); err != nil {
		t.Fatalf("SaveTripForUser err=%v", err)
	}

	page, err := svc.GetSavedTripsByUser(ctx, "u-1", 3, 0)
	if err != nil {
		t.Fatalf("GetSavedTripsByUser err=%v", err)
	}
	if page.Total != 7 || len(page.Links) != 3 {
		t.Fatalf("total=%d len=%d, want 7/3", page.Total, len(page.Links))
	}
	if page.Links[0].TripID != "t0" {
		t.Fatalf("first=%s, want oldest t0", page.Links[0].TripID)
	}
}
