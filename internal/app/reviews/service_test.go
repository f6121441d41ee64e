package reviews

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	memclock "github.com/tourvisto/travel-planner-api/internal/adapters/memory/clock"
	memreviewrepo "github.com/tourvisto/travel-planner-api/internal/adapters/memory/reviewrepo"
	"github.com/tourvisto/travel-planner-api/internal/domain"
)

func newTestService(collection string) (*Service, *memclock.ManualClock) {
	clk := memclock.NewManualClock(time.Unix(500, 0).UTC())
	svc := NewService(memreviewrepo.NewRepo(), collection, clk)
	n := 0
	svc.SetNewReviewIDForTest(func() domain.ReviewID {
		n++
		return domain.ReviewID(fmt.Sprintf("r%d", n))
	})
	return svc, clk
}

func intPtr(v int) *int { return &v }

func wantError(t *testing.T, err error, status int, code string) {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != status || ae.Code != code {
		t.Fatalf("err=%v (type=%T), want %s %d", err, err, code, status)
	}
}

func TestService_AddReview_ListsNewestFirst(t *testing.T) {
	t.Parallel()

	svc, clk := newTestService("reviews")
	ctx := context.Background()
	alice := &domain.User{ID: "u-alice", Name: "Alice"}

	first, err := svc.AddReview(ctx, alice, "t1", AddReviewInput{Text: "  Great trip  ", Rating: intPtr(5)})
	if err != nil {
		t.Fatalf("AddReview err=%v", err)
	}
	if first.Text != "Great trip" || first.UserName != "Alice" || *first.Rating != 5 {
		t.Fatalf("review=%+v", first)
	}
	if !domain.Allows(first.Permissions, domain.ActionRead, "") {
		t.Fatalf("review must be publicly readable")
	}
	clk.Advance(time.Minute)
	if _, err := svc.AddReview(ctx, alice, "t1", AddReviewInput{Text: "Second look"}); err != nil {
		t.Fatalf("AddReview err=%v", err)
	}
	if _, err := svc.AddReview(ctx, alice, "t2", AddReviewInput{Text: "Other trip"}); err != nil {
		t.Fatalf("AddReview err=%v", err)
	}

	got, err := svc.ListByTrip(ctx, "t1")
	if err != nil {
		t.Fatalf("ListByTrip err=%v", err)
	}
	if len(got) != 2 || got[0].Text != "Second look" || got[1].ID != first.ID {
		t.Fatalf("reviews=%+v", got)
	}
	if got[0].Rating != nil {
		t.Fatalf("unrated review has rating %d", *got[0].Rating)
	}
}

func TestService_AddReview_DisplayNameFallback(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService("reviews")
	ctx := context.Background()
	cases := []struct {
		user domain.User
		want string
	}{
		{domain.User{ID: "a", Name: "Named"}, "Named"},
		{domain.User{ID: "b", Email: "b@example.com"}, "b@example.com"},
		{domain.User{ID: "c"}, "Anonymous"},
	}
	for _, tc := range cases {
		r, err := svc.AddReview(ctx, &tc.user, "t1", AddReviewInput{Text: "ok"})
		if err != nil {
			t.Fatalf("AddReview err=%v", err)
		}
		if r.UserName != tc.want {
			t.Fatalf("UserName=%q, want %q", r.UserName, tc.want)
		}
	}
}

func TestService_AddReview_Rejects(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService("reviews")
	ctx := context.Background()
	u := &domain.User{ID: "u1"}

	_, err := svc.AddReview(ctx, nil, "t1", AddReviewInput{Text: "hi"})
	wantError(t, err, 401, "UNAUTHENTICATED")

	_, err = svc.AddReview(ctx, u, "t1", AddReviewInput{Text: "   "})
	wantError(t, err, 422, "VALIDATION_ERROR")

	for _, r := range []int{0, 6} {
		_, err = svc.AddReview(ctx, u, "t1", AddReviewInput{Text: "hi", Rating: intPtr(r)})
		wantError(t, err, 422, "VALIDATION_ERROR")
	}

	unconfigured, _ := newTestService("")
	_, err = unconfigured.AddReview(ctx, u, "t1", AddReviewInput{Text: "hi"})
	wantError(t, err, 503, "REVIEWS_NOT_CONFIGURED")

	got, err := unconfigured.ListByTrip(ctx, "t1")
	if err != nil || len(got) != 0 {
		t.Fatalf("ListByTrip=%v err=%v, want empty", got, err)
	}
}

func TestService_DeleteReview_OwnerOnly(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService("reviews")
	ctx := context.Background()
	owner := &domain.User{ID: "owner"}
	other := &domain.User{ID: "other"}

	r, err := svc.AddReview(ctx, owner, "t1", AddReviewInput{Text: "mine"})
	if err != nil {
		t.Fatalf("AddReview err=%v", err)
	}

	wantError(t, svc.DeleteReview(ctx, other, "t1", r.ID), 403, "FORBIDDEN")
	wantError(t, svc.DeleteReview(ctx, owner, "t2", r.ID), 404, "REVIEW_NOT_FOUND")
	wantError(t, svc.DeleteReview(ctx, nil, "t1", r.ID), 401, "UNAUTHENTICATED")

	if err := svc.DeleteReview(ctx, owner, "t1", r.ID); err != nil {
		t.Fatalf("DeleteReview err=%v", err)
	}
	wantError(t, svc.DeleteReview(ctx, owner, "t1", r.ID), 404, "REVIEW_NOT_FOUND")

	got, _ := svc.ListByTrip(ctx, "t1")
	if len(got) != 0 {
		t.Fatalf("reviews=%+v after delete", got)
	}
}
